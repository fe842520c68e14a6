// Package memory is an in-process remote store used by tests and by
// development runs with remote.type=memory.
package memory

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

type object struct {
	key  string
	size int64
}

// Store holds objects ordered by key and lists them in pages.
type Store struct {
	mu       sync.RWMutex
	objects  *btree.BTreeG[object]
	pageSize int

	// Failure injection. Nil hooks are skipped.
	OnGet  func(id string) error
	OnList func(cursor string) error
	OnPing func() error

	gets  atomic.Int64
	lists atomic.Int64
}

var _ remote.Store = (*Store)(nil)

// New creates an empty store listing pageSize entries per page.
func New(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Store{
		objects:  btree.NewG[object](32, func(a, b object) bool { return a.key < b.key }),
		pageSize: pageSize,
	}
}

// Put adds or replaces an object. Keys ending in "/" are folders.
func (s *Store) Put(key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects.ReplaceOrInsert(object{key: key, size: size})
}

// Gets returns how many Get calls reached the store.
func (s *Store) Gets() int64 { return s.gets.Load() }

// Lists returns how many List calls reached the store.
func (s *Store) Lists() int64 { return s.lists.Load() }

func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	s.gets.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	if s.OnGet != nil {
		if err := s.OnGet(id); err != nil {
			return nil, err
		}
	}
	key, err := remote.KeyFromID(id)
	if err != nil {
		return nil, err
	}
	if remote.IsFolderKey(key) {
		return nil, model.ErrNotFound
	}
	s.mu.RLock()
	obj, ok := s.objects.Get(object{key: key})
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrNotFound
	}
	return remote.RecordFromKey(obj.key, obj.size), nil
}

func (s *Store) SearchByName(ctx context.Context, name string) ([]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	out := []*model.FileRecord{}
	if strings.TrimSpace(name) == "" {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.objects.Ascend(func(o object) bool {
		if !remote.IsFolderKey(o.key) && remote.NameMatches(o.key, name) {
			out = append(out, remote.RecordFromKey(o.key, o.size))
		}
		return true
	})
	return out, nil
}

// List pages through objects in key order; the cursor is the last key of the
// previous page.
func (s *Store) List(ctx context.Context, cursor string) (remote.Page, error) {
	s.lists.Add(1)
	if err := ctx.Err(); err != nil {
		return remote.Page{}, model.WrapError(err)
	}
	if s.OnList != nil {
		if err := s.OnList(cursor); err != nil {
			return remote.Page{}, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	page := remote.Page{}
	iter := func(o object) bool {
		if cursor != "" && o.key <= cursor {
			return true
		}
		if len(page.Entries) == s.pageSize {
			page.HasMore = true
			return false
		}
		page.Entries = append(page.Entries, remote.EntryFromKey(o.key, o.size))
		page.Cursor = o.key
		return true
	}
	if cursor == "" {
		s.objects.Ascend(iter)
	} else {
		s.objects.AscendGreaterOrEqual(object{key: cursor}, iter)
	}
	return page, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.OnPing != nil {
		if err := s.OnPing(); err != nil {
			return err
		}
	}
	return ctx.Err()
}
