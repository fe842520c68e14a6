// Package remote defines the authoritative file store the index is filled from.
package remote

import (
	"context"

	"github.com/syntrixbase/filecatalog/pkg/model"
)

// EntryKind classifies a listing entry.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindFolder
	KindOther
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return "other"
	}
}

// Entry is one item of a catalog listing. Record is set for files only.
type Entry struct {
	Kind   EntryKind
	Path   string
	Record *model.FileRecord
}

// Page is one page of a full catalog listing. Cursor continues the listing
// while HasMore is true.
type Page struct {
	Entries []Entry
	Cursor  string
	HasMore bool
}

// Store is the read side of the remote file store. Implementations are safe
// for concurrent use.
type Store interface {
	// Get returns the file with the given id or model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.FileRecord, error)

	// SearchByName returns files whose name contains name, case-insensitively.
	SearchByName(ctx context.Context, name string) ([]*model.FileRecord, error)

	// List returns the catalog page following cursor; an empty cursor starts
	// from the beginning.
	List(ctx context.Context, cursor string) (Page, error)

	Ping(ctx context.Context) error
}
