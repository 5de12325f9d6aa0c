package row

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViewResetRejectsBadHeader(t *testing.T) {
	schema, err := NewSchema(Column{Name: "a", Type: Int32})
	require.NoError(t, err)
	v := NewView(schema)

	require.ErrorIs(t, v.Reset(nil), ErrInvalidRow)
	require.ErrorIs(t, v.Reset([]byte{1, 2, 3}), ErrInvalidRow)

	buf := make([]byte, 11)
	buf[0] = fVersion
	buf[1] = sVersion
	writeTotalSize(buf, 99) // size field disagrees with actual buffer length
	require.ErrorIs(t, v.Reset(buf), ErrInvalidRow)
}

func TestViewGetAsStringAndRowString(t *testing.T) {
	schema, err := NewSchema(
		Column{Name: "id", Type: Int32},
		Column{Name: "active", Type: Bool},
		Column{Name: "name", Type: Varchar},
	)
	require.NoError(t, err)

	b := NewBuilder(schema)
	buf := make([]byte, b.CalTotalLength(uint32(len("bob"))))
	require.NoError(t, b.SetBuffer(buf))
	require.NoError(t, b.AppendInt32(7))
	require.NoError(t, b.AppendBool(false))
	require.NoError(t, b.AppendString([]byte("bob")))
	out, err := b.Finish()
	require.NoError(t, err)

	v := NewView(schema)
	require.NoError(t, v.Reset(out))

	s, err := v.GetAsString(0)
	require.NoError(t, err)
	require.Equal(t, "7", s)

	s, err = v.GetAsString(1)
	require.NoError(t, err)
	require.Equal(t, "false", s)

	row, err := v.GetRowString()
	require.NoError(t, err)
	require.Equal(t, "7, false, bob", row)
}

func TestViewGetIntegerPropagatesStatusForEveryWidth(t *testing.T) {
	schema, err := NewSchema(
		Column{Name: "a", Type: Int16},
		Column{Name: "b", Type: Int32},
		Column{Name: "c", Type: Int64},
	)
	require.NoError(t, err)

	b := NewBuilder(schema)
	buf := make([]byte, b.CalTotalLength(0))
	require.NoError(t, b.SetBuffer(buf))
	require.NoError(t, b.AppendNull())
	require.NoError(t, b.AppendInt32(42))
	require.NoError(t, b.AppendNull())
	out, err := b.Finish()
	require.NoError(t, err)

	v := NewView(schema)
	require.NoError(t, v.Reset(out))

	_, status := v.GetInteger(0)
	require.Equal(t, StatusNull, status, "NULL i16 column must report StatusNull from GetInteger")

	val, status := v.GetInteger(1)
	require.Equal(t, StatusOK, status)
	require.EqualValues(t, 42, val)

	_, status = v.GetInteger(2)
	require.Equal(t, StatusNull, status, "NULL i64 column must report StatusNull from GetInteger")
}

func TestViewGetStringOutOfRangeIsErrorButGetAsStringReturnsNA(t *testing.T) {
	schema, err := NewSchema(Column{Name: "a", Type: Int32})
	require.NoError(t, err)
	b := NewBuilder(schema)
	buf := make([]byte, b.CalTotalLength(0))
	require.NoError(t, b.SetBuffer(buf))
	require.NoError(t, b.AppendInt32(1))
	out, err := b.Finish()
	require.NoError(t, err)

	v := NewView(schema)
	require.NoError(t, v.Reset(out))

	_, status := v.GetString(5)
	require.Equal(t, StatusError, status)

	s, err := v.GetAsString(5)
	require.NoError(t, err)
	require.Equal(t, "NA", s)
}
