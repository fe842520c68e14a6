// Package memory is an in-process index ordered by (name, id), used by tests
// and by development runs with index.type=memory.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/pkg/model"
	"github.com/tidwall/btree"
)

var errClosed = errors.New("memory index closed")

type entry struct {
	name  string // lower-cased for matching
	id    string
	value *model.FileRecord
}

func byNameID(a, b entry) bool {
	if a.value.Name != b.value.Name {
		return a.value.Name < b.value.Name
	}
	return a.id < b.id
}

// Store is a goroutine-safe in-memory index.Store.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]entry
	byName *btree.BTreeG[entry]
	closed bool

	// Hooks let tests inject failures. Nil hooks are skipped.
	OnGet    func(id string) error
	OnUpdate func(id string) error
}

var _ index.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:   make(map[string]entry),
		byName: btree.NewBTreeG(byNameID),
	}
}

func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	if s.OnGet != nil {
		if err := s.OnGet(id); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return e.value.Clone(), nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, rec *model.FileRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, model.WrapError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(rec), nil
}

func (s *Store) BulkCreateIfAbsent(ctx context.Context, recs []*model.FileRecord) (index.BulkResult, error) {
	var res index.BulkResult
	if err := ctx.Err(); err != nil {
		return res, model.WrapError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if s.insertLocked(rec) {
			res.Created++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

func (s *Store) insertLocked(rec *model.FileRecord) bool {
	if _, ok := s.byID[rec.ID]; ok {
		return false
	}
	v := rec.Clone().Normalize()
	v.Version = 1
	e := entry{name: strings.ToLower(v.Name), id: v.ID, value: v}
	s.byID[v.ID] = e
	s.byName.Set(e)
	return true
}

func (s *Store) UpdatePartial(ctx context.Context, id string, patch index.Patch, opts index.UpdateOptions) error {
	if err := ctx.Err(); err != nil {
		return model.WrapError(err)
	}
	if s.OnUpdate != nil {
		if err := s.OnUpdate(id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return model.ErrNotFound
	}
	if opts.ExpectedVersion > 0 && e.value.Version != opts.ExpectedVersion {
		return model.ErrConflict
	}
	// Name is unchanged so the btree position stays valid.
	e.value.Tags = append(make([]string, 0, len(patch.Tags)), patch.Tags...)
	e.value.Version++
	return nil
}

func (s *Store) SearchByName(ctx context.Context, text string, offset, limit int) ([]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	needle := strings.ToLower(text)
	out := []*model.FileRecord{}
	if limit <= 0 {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	skipped := 0
	s.byName.Scan(func(e entry) bool {
		if !strings.Contains(e.name, needle) {
			return true
		}
		if skipped < offset {
			skipped++
			return true
		}
		out = append(out, e.value.Clone())
		return len(out) < limit
	})
	return out, nil
}

// Len returns the number of indexed records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
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
	s.closed = true
	s.mu.Unlock()
	return nil
}
