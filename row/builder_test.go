package row

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildRow(t *testing.T, schema *Schema, strings [][]byte, fn func(b *Builder) error) []byte {
	t.Helper()
	var sum uint32
	for _, s := range strings {
		sum += uint32(len(s))
	}
	b := NewBuilder(schema)
	total := b.CalTotalLength(sum)
	require.Greater(t, total, uint32(0))
	buf := make([]byte, total)
	require.NoError(t, b.SetBuffer(buf))
	require.NoError(t, fn(b))
	out, err := b.Finish()
	require.NoError(t, err)
	return out
}

func TestBuilderRoundTripFixedWidth(t *testing.T) {
	schema, err := NewSchema(
		Column{Name: "a", Type: Bool},
		Column{Name: "b", Type: Int16},
		Column{Name: "c", Type: Int32},
		Column{Name: "d", Type: Int64},
		Column{Name: "e", Type: Float32},
		Column{Name: "f", Type: Float64},
	)
	require.NoError(t, err)

	buf := buildRow(t, schema, nil, func(b *Builder) error {
		if err := b.AppendBool(true); err != nil {
			return err
		}
		if err := b.AppendInt16(-7); err != nil {
			return err
		}
		if err := b.AppendInt32(12345); err != nil {
			return err
		}
		if err := b.AppendInt64(-9876543210); err != nil {
			return err
		}
		if err := b.AppendFloat32(3.5); err != nil {
			return err
		}
		return b.AppendFloat64(2.71828)
	})

	v := NewView(schema)
	require.NoError(t, v.Reset(buf))

	bv, status := v.GetBool(0)
	require.Equal(t, StatusOK, status)
	require.True(t, bv)

	i16, status := v.GetInt16(1)
	require.Equal(t, StatusOK, status)
	require.EqualValues(t, -7, i16)

	i32, status := v.GetInt32(2)
	require.Equal(t, StatusOK, status)
	require.EqualValues(t, 12345, i32)

	i64, status := v.GetInt64(3)
	require.Equal(t, StatusOK, status)
	require.EqualValues(t, -9876543210, i64)

	f32, status := v.GetFloat(4)
	require.Equal(t, StatusOK, status)
	require.InDelta(t, 3.5, f32, 0.0001)

	f64, status := v.GetDouble(5)
	require.Equal(t, StatusOK, status)
	require.InDelta(t, 2.71828, f64, 0.00001)
}

func TestBuilderRoundTripStrings(t *testing.T) {
	schema, err := NewSchema(
		Column{Name: "id", Type: Int32},
		Column{Name: "name", Type: Varchar},
		Column{Name: "note", Type: Varchar},
	)
	require.NoError(t, err)

	strs := [][]byte{[]byte("alice"), []byte("hello world")}
	buf := buildRow(t, schema, strs, func(b *Builder) error {
		if err := b.AppendInt32(1); err != nil {
			return err
		}
		if err := b.AppendString(strs[0]); err != nil {
			return err
		}
		return b.AppendString(strs[1])
	})

	v := NewView(schema)
	require.NoError(t, v.Reset(buf))

	name, status := v.GetString(1)
	require.Equal(t, StatusOK, status)
	require.Equal(t, "alice", string(name))

	note, status := v.GetString(2)
	require.Equal(t, StatusOK, status)
	require.Equal(t, "hello world", string(note))
}

func TestBuilderNullSemantics(t *testing.T) {
	schema, err := NewSchema(
		Column{Name: "a", Type: Int32},
		Column{Name: "b", Type: Varchar},
	)
	require.NoError(t, err)

	buf := buildRow(t, schema, nil, func(b *Builder) error {
		if err := b.AppendNull(); err != nil {
			return err
		}
		return b.AppendNull()
	})

	v := NewView(schema)
	require.NoError(t, v.Reset(buf))

	isNull, err := v.IsNULL(0)
	require.NoError(t, err)
	require.True(t, isNull)

	_, status := v.GetInt32(0)
	require.Equal(t, StatusNull, status)

	_, status = v.GetString(1)
	require.Equal(t, StatusNull, status)
}

func TestBuilderAddrLenBoundaries(t *testing.T) {
	schema, err := NewSchema(Column{Name: "s", Type: Varchar})
	require.NoError(t, err)

	// A small row should pick a 1-byte offset width.
	smallBuf := buildRow(t, schema, [][]byte{[]byte("hi")}, func(b *Builder) error {
		return b.AppendString([]byte("hi"))
	})
	require.LessOrEqual(t, len(smallBuf), 255)

	// A row whose string payload pushes total size past 255 should pick
	// a wider offset so the string payload still round-trips.
	big := make([]byte, 300)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	bigBuf := buildRow(t, schema, [][]byte{big}, func(b *Builder) error {
		return b.AppendString(big)
	})
	v := NewView(schema)
	require.NoError(t, v.Reset(bigBuf))
	got, status := v.GetString(0)
	require.Equal(t, StatusOK, status)
	require.Equal(t, big, got)
}

func TestBuilderTypeMismatch(t *testing.T) {
	schema, err := NewSchema(Column{Name: "a", Type: Int32})
	require.NoError(t, err)
	b := NewBuilder(schema)
	require.NoError(t, b.SetBuffer(make([]byte, b.CalTotalLength(0))))
	err = b.AppendInt16(1)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestBuilderColumnOverflow(t *testing.T) {
	schema, err := NewSchema(Column{Name: "a", Type: Int32})
	require.NoError(t, err)
	b := NewBuilder(schema)
	require.NoError(t, b.SetBuffer(make([]byte, b.CalTotalLength(0))))
	require.NoError(t, b.AppendInt32(1))
	err = b.AppendInt32(2)
	require.ErrorIs(t, err, ErrColumnOverflow)
}
