package remote

import (
	"fmt"
	"path"
	"strings"

	"github.com/syntrixbase/filecatalog/pkg/model"
)

// CanonicalPrefix prefixes the ids of records mapped from object keys.
const CanonicalPrefix = "id:"

// KeyFromID resolves an identifier to an object key:
//
//	/docs/a.txt   -> docs/a.txt
//	id:docs/a.txt -> docs/a.txt
//	ns:7/a.txt    -> a.txt
//
// An identifier that names no key (such as "/" or "ns:7") yields
// model.ErrNotFound.
func KeyFromID(id string) (string, error) {
	var key string
	switch {
	case strings.HasPrefix(id, "/"):
		key = strings.TrimPrefix(id, "/")
	case strings.HasPrefix(id, CanonicalPrefix):
		key = strings.TrimPrefix(id, CanonicalPrefix)
	case strings.HasPrefix(id, "ns:"):
		_, rest, ok := strings.Cut(id, "/")
		if !ok {
			return "", model.ErrNotFound
		}
		key = rest
	default:
		return "", fmt.Errorf("%w: unsupported id %q", model.ErrInvalidInput, id)
	}
	if key == "" {
		return "", model.ErrNotFound
	}
	return key, nil
}

// CanonicalID returns the id a record for id is indexed under, so "/a.txt",
// "ns:7/a.txt" and "id:a.txt" all resolve to "id:a.txt". Ids that name no
// key are returned unchanged.
func CanonicalID(id string) string {
	key, err := KeyFromID(id)
	if err != nil {
		return id
	}
	return CanonicalPrefix + key
}

// IsFolderKey reports whether key is a folder placeholder.
func IsFolderKey(key string) bool {
	return strings.HasSuffix(key, "/")
}

// RecordFromKey maps an object key and size to a FileRecord.
func RecordFromKey(key string, size int64) *model.FileRecord {
	if size < 0 {
		size = 0
	}
	return model.NewFileRecord(CanonicalPrefix+key, path.Base(key), "/"+strings.ToLower(key), size)
}

// EntryFromKey classifies a listed object.
func EntryFromKey(key string, size int64) Entry {
	if IsFolderKey(key) {
		return Entry{Kind: KindFolder, Path: "/" + strings.ToLower(key)}
	}
	rec := RecordFromKey(key, size)
	return Entry{Kind: KindFile, Path: rec.Path, Record: rec}
}

// NameMatches reports whether the base name of key contains name, ignoring case.
func NameMatches(key, name string) bool {
	return strings.Contains(strings.ToLower(path.Base(key)), strings.ToLower(name))
}
