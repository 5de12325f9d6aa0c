package engine

import (
	"fmt"

	"github.com/imotai/HybridSE/codegen/jit"
	"github.com/imotai/HybridSE/row"
	"github.com/imotai/HybridSE/storage"
)

// evalAggregate evaluates a builtin window aggregate over every row
// it yields, reading column colIdx with schema. Unlike a %%fun UDF
// (compiled through codegen/jit), builtin window aggregates are
// evaluated directly in Go: spec.md's codegen surface only ever
// declares scalar-typed %%fun signatures (see sqlfront.parseValueType),
// so there is no IR-level entry point a window aggregate like `sum`
// could be lowered through without inventing column-accessor externs
// the spec never names — see DESIGN.md for the full rationale.
func evalAggregate(name string, colIdx int, schema *row.Schema, it storage.RowIterator) (jit.Value, error) {
	switch name {
	case "sum":
		return evalSum(colIdx, schema, it)
	default:
		return jit.Value{}, fmt.Errorf("%w: unsupported window aggregate %q", ErrUnsupportedQuery, name)
	}
}

func evalSum(colIdx int, schema *row.Schema, it storage.RowIterator) (jit.Value, error) {
	view := row.NewView(schema)
	col := schema.Get(colIdx)
	isFloat := col.Type == row.Float32 || col.Type == row.Float64

	var sumInt int64
	var sumFloat float64
	for it.Next() {
		if err := view.Reset(it.Row()); err != nil {
			return jit.Value{}, fmt.Errorf("%w: %v", ErrUDFFailed, err)
		}
		v, err := readJITValue(view, colIdx)
		if err != nil {
			return jit.Value{}, err
		}
		if isFloat {
			sumFloat += v.Float
		} else {
			sumInt += v.Int
		}
	}
	if isFloat {
		return jit.Value{Float: sumFloat, IsFloat: true}, nil
	}
	return jit.Value{Int: sumInt}, nil
}
