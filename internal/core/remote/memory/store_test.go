package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	s := New(10)
	s.Put("ABC", 440)
	s.Put("docs/", 0)

	rec, err := s.Get(ctx, "id:ABC")
	require.NoError(t, err)
	assert.Equal(t, "id:ABC", rec.ID)
	assert.Equal(t, int64(440), rec.Size)

	rec, err = s.Get(ctx, "/ABC")
	require.NoError(t, err)
	assert.Equal(t, "id:ABC", rec.ID)

	_, err = s.Get(ctx, "id:docs/")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Get(ctx, "id:nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, int64(4), s.Gets())
}

func TestStore_SearchByName(t *testing.T) {
	s := New(10)
	s.Put("a/Report.pdf", 1)
	s.Put("b/report-2.txt", 2)
	s.Put("report/", 0)
	s.Put("c/notes.txt", 3)

	got, err := s.SearchByName(context.Background(), "REPORT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Report.pdf", got[0].Name)

	empty, err := s.SearchByName(context.Background(), " ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_ListPages(t *testing.T) {
	ctx := context.Background()
	s := New(2)
	for i := 0; i < 5; i++ {
		s.Put(fmt.Sprintf("f%d", i), int64(i))
	}

	var keys []string
	cursor := ""
	for {
		page, err := s.List(ctx, cursor)
		require.NoError(t, err)
		for _, e := range page.Entries {
			keys = append(keys, e.Record.ID)
		}
		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}
	assert.Equal(t, []string{"id:f0", "id:f1", "id:f2", "id:f3", "id:f4"}, keys)
	assert.Equal(t, int64(3), s.Lists())
}

func TestStore_ListExactPageBoundary(t *testing.T) {
	s := New(2)
	s.Put("a", 1)
	s.Put("b", 1)

	page, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2)
	assert.False(t, page.HasMore)
}

func TestStore_ListFolders(t *testing.T) {
	s := New(10)
	s.Put("docs/", 0)
	s.Put("docs/a.txt", 1)

	page, err := s.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, remote.KindFolder, page.Entries[0].Kind)
	assert.Equal(t, remote.KindFile, page.Entries[1].Kind)
}

func TestStore_Hooks(t *testing.T) {
	boom := errors.New("boom")
	s := New(1)
	s.Put("a", 1)
	s.Put("b", 1)
	s.OnList = func(cursor string) error {
		if cursor != "" {
			return boom
		}
		return nil
	}
	s.OnPing = func() error { return boom }

	page, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, page.HasMore)

	_, err = s.List(context.Background(), page.Cursor)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Ping(context.Background()), boom)
}
