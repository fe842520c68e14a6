package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/filecatalog/internal/config"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	indexconfig "github.com/syntrixbase/filecatalog/internal/core/index/config"
	indexmem "github.com/syntrixbase/filecatalog/internal/core/index/memory"
	"github.com/syntrixbase/filecatalog/internal/core/pubsub"
	eventsconfig "github.com/syntrixbase/filecatalog/internal/core/pubsub/config"
	pubsubtest "github.com/syntrixbase/filecatalog/internal/core/pubsub/testing"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	remoteconfig "github.com/syntrixbase/filecatalog/internal/core/remote/config"
	remotemem "github.com/syntrixbase/filecatalog/internal/core/remote/memory"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

type stores struct {
	index  *indexmem.Store
	remote *remotemem.Store
	pub    *pubsubtest.MockPublisher
}

// stubFactories swaps the package factories for in-memory backends.
func stubFactories(t *testing.T) *stores {
	t.Helper()
	s := &stores{
		index:  indexmem.New(),
		remote: remotemem.New(2),
		pub:    pubsubtest.NewMockPublisher(),
	}
	s.remote.Put("docs/report.pdf", 440)
	s.remote.Put("docs/notes.txt", 12)
	s.remote.Put("img/report-cover.png", 2048)

	prevIndex, prevRemote, prevPub := indexStoreFactory, remoteStoreFactory, publisherFactory
	t.Cleanup(func() {
		indexStoreFactory, remoteStoreFactory, publisherFactory = prevIndex, prevRemote, prevPub
	})
	indexStoreFactory = func(context.Context, indexconfig.Config) (index.Store, error) { return s.index, nil }
	remoteStoreFactory = func(context.Context, remoteconfig.Config) (remote.Store, error) { return s.remote, nil }
	publisherFactory = func(context.Context, eventsconfig.Config) (pubsub.Publisher, error) { return s.pub, nil }
	return s
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.HTTPPort = 0
	cfg.Events.Enabled = true
	// trigger-driven only; see TestManager_InitialSyncAfterGate
	cfg.Catalog.Reconcile.Enabled = false
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startManager(t *testing.T, cfg *config.Config, opts Options) (*Manager, string) {
	t.Helper()
	m := NewManager(cfg, opts, discardLogger())
	require.NoError(t, m.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		m.Shutdown(shutdownCtx)
	})

	require.Eventually(t, func() bool { return m.Server().Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	return m, "http://" + m.Server().Addr()
}

func TestManager_ServesCatalog(t *testing.T) {
	s := stubFactories(t)
	_, base := startManager(t, testConfig(), Options{})

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// A miss is filled from the remote store.
	resp, err = http.Get(base + "/files/%2Fdocs%2Freport.pdf")
	require.NoError(t, err)
	var rec model.FileRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "id:docs/report.pdf", rec.ID)
	assert.Equal(t, 1, s.index.Len())

	req, _ := http.NewRequest(http.MethodPut, base+"/files/id:docs%2Freport.pdf/tags", strings.NewReader(`{"tags":["finance"]}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	got, err := s.index.Get(context.Background(), "id:docs/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, got.Tags)
	assert.Contains(t, s.pub.Subjects(), "tags.merge")
}

func TestManager_MetricsEndpoint(t *testing.T) {
	stubFactories(t)
	_, base := startManager(t, testConfig(), Options{})

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "filecatalog_conflict_retries_total")
	assert.Contains(t, string(body), "filecatalog_reconcile_duration_seconds")
}

func TestManager_InitialSyncAfterGate(t *testing.T) {
	s := stubFactories(t)
	cfg := testConfig()
	cfg.Catalog.Reconcile.Enabled = true
	cfg.Catalog.Reconcile.GateAttempts = 1
	cfg.Catalog.Reconcile.GateDelay = time.Millisecond
	m, _ := startManager(t, cfg, Options{})

	require.Eventually(t, func() bool { return m.Scheduler().Runs() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, s.index.Len())
	assert.Contains(t, s.pub.Subjects(), "reconcile.completed")
}

func TestManager_AdminTriggerReconciles(t *testing.T) {
	s := stubFactories(t)
	m, base := startManager(t, testConfig(), Options{})

	resp, err := http.Post(base+"/admin/reconcile", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool { return m.Scheduler().Runs() == 1 }, 2*time.Second, 10*time.Millisecond)
	report, err := m.Scheduler().LastReport()
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 3, s.index.Len())

	resp, err = http.Get(base + "/files/search?fileName=report")
	require.NoError(t, err)
	var recs []model.FileRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	resp.Body.Close()
	require.Len(t, recs, 2)
	assert.Equal(t, "report-cover.png", recs[0].Name)
	assert.Equal(t, "report.pdf", recs[1].Name)
}

func TestManager_NoSync(t *testing.T) {
	stubFactories(t)
	m, base := startManager(t, testConfig(), Options{NoSync: true})
	assert.Nil(t, m.Scheduler())

	resp, err := http.Post(base+"/admin/reconcile", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestManager_EventsDisabled(t *testing.T) {
	s := stubFactories(t)
	cfg := testConfig()
	cfg.Events.Enabled = false

	m := NewManager(cfg, Options{NoSync: true}, discardLogger())
	require.NoError(t, m.Init(context.Background()))
	defer m.Shutdown(context.Background())

	_, err := m.mutator.Apply(context.Background(), "/docs/notes.txt", []string{"a"}, model.TagModeReset)
	require.NoError(t, err)
	assert.Empty(t, s.pub.Messages())
}

func TestManager_ShutdownClosesPublisher(t *testing.T) {
	s := stubFactories(t)
	m := NewManager(testConfig(), Options{}, discardLogger())
	require.NoError(t, m.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	require.Eventually(t, func() bool { return m.Server().Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	m.Shutdown(shutdownCtx)

	assert.True(t, s.pub.IsClosed())
	assert.Nil(t, m.index)
}

func TestManager_InitErrors(t *testing.T) {
	t.Run("Index", func(t *testing.T) {
		stubFactories(t)
		indexStoreFactory = func(context.Context, indexconfig.Config) (index.Store, error) {
			return nil, errors.New("connection refused")
		}
		err := NewManager(testConfig(), Options{}, discardLogger()).Init(context.Background())
		assert.ErrorContains(t, err, "failed to initialize index")
	})

	t.Run("Remote", func(t *testing.T) {
		stubFactories(t)
		remoteStoreFactory = func(context.Context, remoteconfig.Config) (remote.Store, error) {
			return nil, errors.New("bad region")
		}
		err := NewManager(testConfig(), Options{}, discardLogger()).Init(context.Background())
		assert.ErrorContains(t, err, "failed to initialize remote store")
	})

	t.Run("PublisherReleasesIndex", func(t *testing.T) {
		stubFactories(t)
		publisherFactory = func(context.Context, eventsconfig.Config) (pubsub.Publisher, error) {
			return nil, errors.New("no servers available")
		}
		m := NewManager(testConfig(), Options{}, discardLogger())
		err := m.Init(context.Background())
		assert.ErrorContains(t, err, "failed to initialize event publisher")
		assert.Nil(t, m.index)
	})
}

func TestManager_StartBeforeInit(t *testing.T) {
	m := NewManager(testConfig(), Options{}, nil)
	assert.Error(t, m.Start(context.Background()))
}
