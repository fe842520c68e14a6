package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecord_SameFileIgnoresSizeAndTags(t *testing.T) {
	a := NewFileRecord("id:ABC", "a.txt", "/docs/a.txt", 440)
	b := a.Clone()
	b.Size = 1
	b.Tags = []string{"x"}
	assert.True(t, a.SameFile(b))

	b.Path = "/other/a.txt"
	assert.False(t, a.SameFile(b))

	var nilRec *FileRecord
	assert.False(t, a.SameFile(nilRec))
	assert.True(t, nilRec.SameFile(nil))
}

func TestFileRecord_JSONTagsNeverNull(t *testing.T) {
	rec := &FileRecord{ID: "id:1", Name: "n", Path: "/n", Size: 3}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"id:1","name":"n","path":"/n","size":3,"tags":[]}`, string(data))

	var decoded FileRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"id:2","name":"m","path":"/m","size":1,"tags":null}`), &decoded))
	assert.NotNil(t, decoded.Tags)
	assert.Empty(t, decoded.Tags)
}

func TestFileRecord_VersionNotSerialized(t *testing.T) {
	rec := NewFileRecord("id:1", "n", "/n", 1)
	rec.Version = 7
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "version")
}

func TestFileRecord_CloneIsDeep(t *testing.T) {
	rec := NewFileRecord("id:1", "n", "/n", 1)
	rec.Tags = append(rec.Tags, "a")
	c := rec.Clone()
	c.Tags[0] = "b"
	assert.Equal(t, "a", rec.Tags[0])
}

func TestFileRecord_ETag(t *testing.T) {
	rec := NewFileRecord("id:1", "n", "/n", 1)
	first := rec.ETag()
	assert.Equal(t, first, rec.Clone().ETag())
	assert.Len(t, first, 34)

	rec.Tags = []string{"x"}
	assert.NotEqual(t, first, rec.ETag())
}

func TestValidateFileID(t *testing.T) {
	valid := []string{"/", "/docs/a.txt", "/line\nbreak", "id:ABC", "id:", "ns:12", "ns:12/path/x"}
	for _, id := range valid {
		assert.NoError(t, ValidateFileID(id), id)
	}

	invalid := []string{"", "docs/a.txt", "ns:", "ns:abc", "ns:12x", "ID:ABC", " /a"}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateFileID(id), ErrInvalidInput, id)
	}
}
