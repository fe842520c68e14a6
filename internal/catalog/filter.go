package catalog

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// Filter is a compiled boolean CEL expression over the variable file, a map
// with the keys id, name, path, size and tags:
//
//	file.size > 100 && "invoice" in file.tags
type Filter struct {
	expr string
	prg  cel.Program
}

var filterEnv, filterEnvErr = cel.NewEnv(
	cel.Variable("file", cel.MapType(cel.StringType, cel.DynType)),
)

// CompileFilter compiles expr. Syntax and type errors are reported as
// model.ErrInvalidInput.
func CompileFilter(expr string) (*Filter, error) {
	if filterEnvErr != nil {
		return nil, fmt.Errorf("CEL environment: %w", filterEnvErr)
	}
	ast, issues := filterEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: filter: %v", model.ErrInvalidInput, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: filter must be boolean, got %s", model.ErrInvalidInput, ast.OutputType())
	}

	prg, err := filterEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the filter against rec. A nil filter matches everything.
func (f *Filter) Match(rec *model.FileRecord) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, _, err := f.prg.Eval(map[string]interface{}{
		"file": map[string]interface{}{
			"id":   rec.ID,
			"name": rec.Name,
			"path": rec.Path,
			"size": rec.Size,
			"tags": rec.Tags,
		},
	})
	if err != nil {
		return false, err
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL result is not boolean: %T", out.Value())
	}
	return result, nil
}
