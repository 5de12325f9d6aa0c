package engine

import (
	"fmt"

	"github.com/imotai/HybridSE/codegen/jit"
	"github.com/imotai/HybridSE/row"
)

// readJITValue decodes the column at colIdx from view into the dynamic
// jit.Value shape a compiled UDF call expects.
func readJITValue(view *row.View, colIdx int) (jit.Value, error) {
	col := view.Schema().Get(colIdx)
	switch col.Type {
	case row.Bool:
		v, status := view.GetBool(colIdx)
		if status != row.StatusOK {
			return jit.Value{}, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		i := int64(0)
		if v {
			i = 1
		}
		return jit.Value{Int: i}, nil
	case row.Int16:
		v, status := view.GetInt16(colIdx)
		if status != row.StatusOK {
			return jit.Value{}, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		return jit.Value{Int: int64(v)}, nil
	case row.Int32:
		v, status := view.GetInt32(colIdx)
		if status != row.StatusOK {
			return jit.Value{}, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		return jit.Value{Int: int64(v)}, nil
	case row.Int64, row.Timestamp:
		v, status := view.GetInt64(colIdx)
		if status != row.StatusOK {
			return jit.Value{}, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		return jit.Value{Int: v}, nil
	case row.Date:
		v, status := view.GetDate(colIdx)
		if status != row.StatusOK {
			return jit.Value{}, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		return jit.Value{Int: int64(v)}, nil
	case row.Float32:
		v, status := view.GetFloat(colIdx)
		if status != row.StatusOK {
			return jit.Value{}, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		return jit.Value{Float: float64(v), IsFloat: true}, nil
	case row.Float64:
		v, status := view.GetDouble(colIdx)
		if status != row.StatusOK {
			return jit.Value{}, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		return jit.Value{Float: v, IsFloat: true}, nil
	default:
		return jit.Value{}, fmt.Errorf("%w: unsupported column type %v for UDF argument", ErrUnsupportedQuery, col.Type)
	}
}

// buildScalarRow encodes v as the single column of a one-column
// schema, per the column's declared type.
func buildScalarRow(schema *row.Schema, v jit.Value) ([]byte, error) {
	b := row.NewBuilder(schema)
	total := b.CalTotalLength(0)
	if total == 0 {
		return nil, fmt.Errorf("%w: row size overflow building scalar result", ErrUDFFailed)
	}
	if err := b.SetBuffer(make([]byte, total)); err != nil {
		return nil, err
	}

	col := schema.Get(0)
	var appendErr error
	switch col.Type {
	case row.Bool:
		appendErr = b.AppendBool(v.Int != 0)
	case row.Int16:
		appendErr = b.AppendInt16(int16(v.Int))
	case row.Int32:
		appendErr = b.AppendInt32(int32(v.Int))
	case row.Int64:
		appendErr = b.AppendInt64(v.Int)
	case row.Timestamp:
		appendErr = b.AppendTimestamp(v.Int)
	case row.Date:
		appendErr = b.AppendDate(int32(v.Int))
	case row.Float32:
		appendErr = b.AppendFloat32(float32(v.Float))
	case row.Float64:
		appendErr = b.AppendFloat64(v.Float)
	default:
		return nil, fmt.Errorf("%w: unsupported output column type %v", ErrUnsupportedQuery, col.Type)
	}
	if appendErr != nil {
		return nil, appendErr
	}
	return b.Finish()
}

// projectColumn copies the colIdx-th column of view's current row into
// a fresh one-column row of outSchema (a bare passthrough projection,
// with no compiled call involved).
func projectColumn(view *row.View, colIdx int, outSchema *row.Schema) ([]byte, error) {
	col := outSchema.Get(0)
	if col.Type == row.Varchar {
		s, status := view.GetString(colIdx)
		if status != row.StatusOK {
			return nil, fmt.Errorf("%w: column %q status %d", ErrUDFFailed, col.Name, status)
		}
		b := row.NewBuilder(outSchema)
		total := b.CalTotalLength(uint32(len(s)))
		if total == 0 {
			return nil, fmt.Errorf("%w: row size overflow building projected string", ErrUDFFailed)
		}
		if err := b.SetBuffer(make([]byte, total)); err != nil {
			return nil, err
		}
		if err := b.AppendString(s); err != nil {
			return nil, err
		}
		return b.Finish()
	}

	v, err := readJITValue(view, colIdx)
	if err != nil {
		return nil, err
	}
	return buildScalarRow(outSchema, v)
}
