package model

import (
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/zeebo/blake3"
)

// FileRecord is the metadata of one remote file as kept in the index.
// Tags is an insertion-ordered set and is never nil once a record leaves
// a constructor, a decoder or a store.
type FileRecord struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Path string   `json:"path"`
	Size int64    `json:"size"`
	Tags []string `json:"tags"`

	// Version is the optimistic concurrency counter maintained by the index.
	Version int64 `json:"-"`
}

// NewFileRecord builds a record with an empty tag set.
func NewFileRecord(id, name, path string, size int64) *FileRecord {
	return &FileRecord{
		ID:   id,
		Name: name,
		Path: path,
		Size: size,
		Tags: []string{},
	}
}

// SameFile reports whether two records describe the same file.
// Size and tags are excluded so tag mutations never change identity.
func (f *FileRecord) SameFile(other *FileRecord) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.ID == other.ID && f.Name == other.Name && f.Path == other.Path
}

// Clone returns a deep copy.
func (f *FileRecord) Clone() *FileRecord {
	if f == nil {
		return nil
	}
	c := *f
	c.Tags = append(make([]string, 0, len(f.Tags)), f.Tags...)
	return &c
}

// Normalize replaces a nil tag list with an empty one.
func (f *FileRecord) Normalize() *FileRecord {
	if f != nil && f.Tags == nil {
		f.Tags = []string{}
	}
	return f
}

// ETag returns a strong entity tag derived from the visible fields.
func (f *FileRecord) ETag() string {
	h := blake3.New()
	for _, part := range []string{f.ID, f.Name, f.Path, strconv.FormatInt(f.Size, 10)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, tag := range f.Tags {
		h.Write([]byte(tag))
		h.Write([]byte{1})
	}
	sum := h.Sum(nil)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func (f FileRecord) MarshalJSON() ([]byte, error) {
	type plain FileRecord
	p := plain(f)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return json.Marshal(p)
}

func (f *FileRecord) UnmarshalJSON(data []byte) error {
	type plain FileRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = FileRecord(p)
	f.Normalize()
	return nil
}
