package row

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeSimpleRow(t *testing.T, schema *Schema, id int32, name string) []byte {
	t.Helper()
	b := NewBuilder(schema)
	buf := make([]byte, b.CalTotalLength(uint32(len(name))))
	require.NoError(t, b.SetBuffer(buf))
	require.NoError(t, b.AppendInt32(id))
	require.NoError(t, b.AppendString([]byte(name)))
	out, err := b.Finish()
	require.NoError(t, err)
	return out
}

func TestCompositeRowString(t *testing.T) {
	left, err := NewSchema(Column{Name: "id", Type: Int32}, Column{Name: "name", Type: Varchar})
	require.NoError(t, err)
	right, err := NewSchema(Column{Name: "id", Type: Int32}, Column{Name: "name", Type: Varchar})
	require.NoError(t, err)

	c := NewComposite(left, right)
	require.NoError(t, c.SetSlice(0, encodeSimpleRow(t, left, 1, "alice")))
	require.NoError(t, c.SetSlice(1, encodeSimpleRow(t, right, 2, "bob")))

	got, err := c.GetRowString()
	require.NoError(t, err)
	require.Equal(t, "1, alice|2, bob", got)

	v0, err := c.Slice(0)
	require.NoError(t, err)
	id, status := v0.GetInt32(0)
	require.Equal(t, StatusOK, status)
	require.EqualValues(t, 1, id)
}

// encodeTypedRow appends vals to schema in column order; the type of
// each vals[i] must match schema's i-th column type (bool, int16,
// int32, int64, float32, float64, or string).
func encodeTypedRow(t *testing.T, schema *Schema, vals ...any) []byte {
	t.Helper()
	var stringBytes uint32
	for i, v := range vals {
		if schema.Get(i).Type == Varchar {
			stringBytes += uint32(len(v.(string)))
		}
	}

	b := NewBuilder(schema)
	buf := make([]byte, b.CalTotalLength(stringBytes))
	require.NoError(t, b.SetBuffer(buf))
	for _, v := range vals {
		var err error
		switch val := v.(type) {
		case bool:
			err = b.AppendBool(val)
		case int16:
			err = b.AppendInt16(val)
		case int32:
			err = b.AppendInt32(val)
		case int64:
			err = b.AppendInt64(val)
		case float32:
			err = b.AppendFloat32(val)
		case float64:
			err = b.AppendFloat64(val)
		case string:
			err = b.AppendString([]byte(val))
		default:
			t.Fatalf("encodeTypedRow: unsupported value type %T", v)
		}
		require.NoError(t, err)
	}
	out, err := b.Finish()
	require.NoError(t, err)
	return out
}

// TestCompositeNewRowRoundTrip mirrors the reference codec's
// RowTest.NewRowTest: three independently-schemaed rows are encoded,
// chained into one growing composite two slices at a time, and each
// component's GetRowString reproduces its original CSV regardless of
// how many other slices share the composite.
func TestCompositeNewRowRoundTrip(t *testing.T) {
	schema1, err := NewSchema(
		Column{Name: "col0", Type: Varchar},
		Column{Name: "col1", Type: Int32},
		Column{Name: "col2", Type: Int16},
		Column{Name: "col3", Type: Float32},
		Column{Name: "col4", Type: Float64},
		Column{Name: "col5", Type: Int64},
		Column{Name: "col6", Type: Varchar},
	)
	require.NoError(t, err)
	schema2, err := NewSchema(
		Column{Name: "str0", Type: Varchar},
		Column{Name: "str1", Type: Varchar},
		Column{Name: "col3", Type: Float32},
		Column{Name: "col4", Type: Float64},
		Column{Name: "col2", Type: Int16},
		Column{Name: "col1", Type: Int32},
		Column{Name: "col5", Type: Int64},
	)
	require.NoError(t, err)
	schema3, err := NewSchema(
		Column{Name: "c3", Type: Float32},
		Column{Name: "c4", Type: Float64},
		Column{Name: "col2", Type: Int16},
		Column{Name: "str2", Type: Varchar},
	)
	require.NoError(t, err)

	data1 := "2, 5, 55, 5.500000, 55.500000, 3, " + strings.Repeat("a", 66)
	data2 := "2, EEEEE, 5.500000, 550.500000, 550, 5, 3"
	data3 := "5.500000, 55.500000, 3, EEEEE"

	row1 := encodeTypedRow(t, schema1, "2", int32(5), int16(55), float32(5.5), float64(55.5), int64(3), strings.Repeat("a", 66))
	row2 := encodeTypedRow(t, schema2, "2", "EEEEE", float32(5.5), float64(550.5), int16(550), int32(5), int64(3))
	row3 := encodeTypedRow(t, schema3, float32(5.5), float64(55.5), int16(3), "EEEEE")

	c12 := NewComposite(schema1, schema2)
	require.NoError(t, c12.SetSlice(0, row1))
	require.NoError(t, c12.SetSlice(1, row2))

	v1, err := c12.Slice(0)
	require.NoError(t, err)
	s1, err := v1.GetRowString()
	require.NoError(t, err)
	require.Equal(t, data1, s1)

	v2, err := c12.Slice(1)
	require.NoError(t, err)
	s2, err := v2.GetRowString()
	require.NoError(t, err)
	require.Equal(t, data2, s2)

	c123 := NewComposite(schema1, schema2, schema3)
	require.NoError(t, c123.SetSlice(0, row1))
	require.NoError(t, c123.SetSlice(1, row2))
	require.NoError(t, c123.SetSlice(2, row3))

	v1, err = c123.Slice(0)
	require.NoError(t, err)
	s1, err = v1.GetRowString()
	require.NoError(t, err)
	require.Equal(t, data1, s1)

	v2, err = c123.Slice(1)
	require.NoError(t, err)
	s2, err = v2.GetRowString()
	require.NoError(t, err)
	require.Equal(t, data2, s2)

	v3, err := c123.Slice(2)
	require.NoError(t, err)
	s3, err := v3.GetRowString()
	require.NoError(t, err)
	require.Equal(t, data3, s3)
}

func TestCompositeSliceIndexOutOfRange(t *testing.T) {
	s, err := NewSchema(Column{Name: "id", Type: Int32})
	require.NoError(t, err)
	c := NewComposite(s)

	require.ErrorIs(t, c.SetSlice(1, nil), ErrIndexOutOfRange)
	_, err = c.Slice(1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}
