// Package pebble implements the file index on an embedded PebbleDB, for
// single-node deployments that want a persistent index without a database
// server.
package pebble

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// Key prefixes.
const (
	prefixFile = "file/" // file/{id} → stored record
	prefixName = "name/" // name/{name}\x00{id} → {id}
)

var errClosed = errors.New("pebble index closed")

// Config configures the Store.
type Config struct {
	// Path is the database directory. It is created if missing.
	Path string

	// BlockCacheSize is the size of the block cache in bytes.
	BlockCacheSize int64

	Logger *slog.Logger
}

// stored is the on-disk form of a record. FileRecord keeps its version out
// of JSON so it travels separately here.
type stored struct {
	Record  *model.FileRecord `json:"record"`
	Version int64             `json:"version"`
}

// Store is an index.Store over a PebbleDB directory.
//
// Writes are serialized by mu so create-if-absent and versioned updates are
// read-check-write atomic. Reads go straight to pebble.
type Store struct {
	db     *pebble.DB
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ index.Store = (*Store)(nil)

// Open opens or creates the database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pebble-index")

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	cacheSize := cfg.BlockCacheSize
	if cacheSize <= 0 {
		cacheSize = 64 << 20
	}
	cache := pebble.NewCache(cacheSize)
	defer cache.Unref()

	db, err := pebble.Open(cfg.Path, &pebble.Options{
		Cache: cache,
		Levels: []pebble.LevelOptions{
			{FilterPolicy: bloom.FilterPolicy(10)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}
	logger.Info("Opened pebble index", "path", cfg.Path)
	return &Store{db: db, path: cfg.Path, logger: logger}, nil
}

func fileKey(id string) []byte {
	key := make([]byte, 0, len(prefixFile)+len(id))
	key = append(key, prefixFile...)
	return append(key, id...)
}

// nameKey orders entries by name then id. Names never contain NUL.
func nameKey(name, id string) []byte {
	key := make([]byte, 0, len(prefixName)+len(name)+1+len(id))
	key = append(key, prefixName...)
	key = append(key, name...)
	key = append(key, 0)
	return append(key, id...)
}

// nameFromKey extracts the name part of a name key.
func nameFromKey(key []byte) string {
	rest := key[len(prefixName):]
	if i := bytes.LastIndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	return string(rest)
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix.
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}

// load reads the stored record for id. The caller holds mu.
func (s *Store) load(id string) (*stored, error) {
	value, closer, err := s.db.Get(fileKey(id))
	if err == pebble.ErrNotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var st stored
	if err := json.Unmarshal(value, &st); err != nil {
		return nil, fmt.Errorf("failed to decode record %q: %w", id, err)
	}
	if st.Record == nil {
		return nil, fmt.Errorf("record %q is empty", id)
	}
	st.Record.Version = st.Version
	return &st, nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	st, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return st.Record, nil
}

// insert stages rec into batch unless it already exists. The caller holds mu
// for writing.
func (s *Store) insert(batch *pebble.Batch, rec *model.FileRecord) (bool, error) {
	_, closer, err := s.db.Get(fileKey(rec.ID))
	if err == nil {
		closer.Close()
		return false, nil
	}
	if err != pebble.ErrNotFound {
		return false, err
	}
	v := rec.Clone().Normalize()
	data, err := json.Marshal(stored{Record: v, Version: 1})
	if err != nil {
		return false, err
	}
	if err := batch.Set(fileKey(v.ID), data, nil); err != nil {
		return false, err
	}
	if err := batch.Set(nameKey(v.Name, v.ID), []byte(v.ID), nil); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, rec *model.FileRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, model.WrapError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, errClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	created, err := s.insert(batch, rec)
	if err != nil || !created {
		return false, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return false, fmt.Errorf("failed to commit record: %w", err)
	}
	return true, nil
}

// BulkCreateIfAbsent writes all new records in one batch. A record repeated
// within recs is created once and then skipped.
func (s *Store) BulkCreateIfAbsent(ctx context.Context, recs []*model.FileRecord) (index.BulkResult, error) {
	var res index.BulkResult
	if err := ctx.Err(); err != nil {
		return res, model.WrapError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return res, errClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	staged := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		if _, dup := staged[rec.ID]; dup {
			res.Skipped++
			continue
		}
		created, err := s.insert(batch, rec)
		if err != nil {
			s.logger.Warn("Failed to stage record", "id", rec.ID, "error", err)
			res.Failed++
			continue
		}
		if created {
			staged[rec.ID] = struct{}{}
			res.Created++
		} else {
			res.Skipped++
		}
	}
	if res.Created == 0 {
		return res, nil
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		res.Failed += res.Created
		res.Created = 0
		return res, fmt.Errorf("failed to commit batch: %w", err)
	}
	return res, nil
}

func (s *Store) UpdatePartial(ctx context.Context, id string, patch index.Patch, opts index.UpdateOptions) error {
	if err := ctx.Err(); err != nil {
		return model.WrapError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	st, err := s.load(id)
	if err != nil {
		return err
	}
	if opts.ExpectedVersion > 0 && st.Version != opts.ExpectedVersion {
		return model.ErrConflict
	}
	st.Record.Tags = append(make([]string, 0, len(patch.Tags)), patch.Tags...)
	st.Version++
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	// Name is unchanged so the name key stays valid.
	return s.db.Set(fileKey(id), data, pebble.Sync)
}

func (s *Store) SearchByName(ctx context.Context, text string, offset, limit int) ([]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	out := []*model.FileRecord{}
	if limit <= 0 {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}

	lower := []byte(prefixName)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	needle := strings.ToLower(text)
	skipped := 0
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, model.WrapError(err)
		}
		if !strings.Contains(strings.ToLower(nameFromKey(iter.Key())), needle) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		st, err := s.load(string(iter.Value()))
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("Dangling name key", "key", string(iter.Key()))
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, st.Record)
		if len(out) >= limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterator error: %w", err)
	}
	return out, nil
}

// Len counts indexed records by scanning the file prefix.
func (s *Store) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errClosed
	}
	lower := []byte(prefixFile)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close pebble database: %w", err)
	}
	return nil
}
