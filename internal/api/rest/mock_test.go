package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/stretchr/testify/mock"
	"github.com/syntrixbase/filecatalog/internal/api/config"
	"github.com/syntrixbase/filecatalog/internal/catalog"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

type MockReader struct{ mock.Mock }

func (m *MockReader) FindByID(ctx context.Context, id string) (*model.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

type MockMutator struct{ mock.Mock }

func (m *MockMutator) Apply(ctx context.Context, id string, requested []string, mode model.TagMode) (*model.FileRecord, error) {
	args := m.Called(ctx, id, requested, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

type MockSearcher struct{ mock.Mock }

func (m *MockSearcher) Search(ctx context.Context, q catalog.Query) ([]*model.FileRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FileRecord), args.Error(1)
}

type MockTrigger struct{ mock.Mock }

func (m *MockTrigger) Trigger() { m.Called() }

type testServer struct {
	reader   *MockReader
	mutator  *MockMutator
	searcher *MockSearcher
	trigger  *MockTrigger
	handler  *Handler
	mux      *http.ServeMux
}

func (s *testServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func createTestServer(cfg config.Config) *testServer {
	s := &testServer{
		reader:   new(MockReader),
		mutator:  new(MockMutator),
		searcher: new(MockSearcher),
		trigger:  new(MockTrigger),
		mux:      http.NewServeMux(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = NewHandler(s.reader, s.mutator, s.searcher, s.trigger, cfg, logger)
	s.handler.RegisterRoutes(s.mux)
	return s
}

func sampleRecord() *model.FileRecord {
	rec := model.NewFileRecord("id:docs/a.txt", "a.txt", "/docs/a.txt", 440)
	rec.Tags = []string{"red", "blue"}
	return rec
}
