package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

func TestCompileFilter(t *testing.T) {
	rec := model.NewFileRecord("id:docs/a.pdf", "a.pdf", "/docs/a.pdf", 440)
	rec.Tags = []string{"invoice", "2024"}

	tests := []struct {
		expr string
		want bool
	}{
		{`file.size > 100`, true},
		{`file.size == 440 && "invoice" in file.tags`, true},
		{`"draft" in file.tags`, false},
		{`file.name.endsWith(".pdf")`, true},
		{`file.path.startsWith("/docs/")`, true},
		{`file.id == "id:docs/a.pdf"`, true},
		{`size(file.tags) == 3`, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := CompileFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())

			got, err := f.Match(rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileFilter_Invalid(t *testing.T) {
	for _, expr := range []string{"file.size >", "unknown.size > 1", `"abc"`} {
		_, err := CompileFilter(expr)
		assert.ErrorIs(t, err, model.ErrInvalidInput, expr)
	}
}

func TestFilter_NonBooleanResult(t *testing.T) {
	f, err := CompileFilter("file.name")
	require.NoError(t, err)

	_, err = f.Match(model.NewFileRecord("id:1", "n", "/n", 1))
	assert.Error(t, err)
}

func TestFilter_NilMatchesAll(t *testing.T) {
	var f *Filter
	ok, err := f.Match(model.NewFileRecord("id:1", "n", "/n", 1))
	require.NoError(t, err)
	assert.True(t, ok)
}
