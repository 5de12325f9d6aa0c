package row

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaValid(t *testing.T) {
	s, err := NewSchema(
		Column{Name: "id", Type: Int32},
		Column{Name: "name", Type: Varchar},
		Column{Name: "active", Type: Bool},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, "name", s.Get(1).Name)
	assert.Equal(t, 1, s.ColumnIndex("name"))
	assert.Equal(t, -1, s.ColumnIndex("missing"))
}

func TestNewSchemaRejectsEmpty(t *testing.T) {
	_, err := NewSchema()
	require.Error(t, err)
}

func TestNewSchemaRejectsEmptyName(t *testing.T) {
	_, err := NewSchema(Column{Name: "", Type: Int32})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestNewSchemaRejectsDuplicateName(t *testing.T) {
	_, err := NewSchema(
		Column{Name: "id", Type: Int32},
		Column{Name: "id", Type: Int64},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestColumnTypeString(t *testing.T) {
	tests := []struct {
		in   ColumnType
		want string
	}{
		{Bool, "bool"},
		{Int16, "i16"},
		{Int32, "i32"},
		{Int64, "i64"},
		{Float32, "f32"},
		{Float64, "f64"},
		{Timestamp, "timestamp"},
		{Date, "date"},
		{Varchar, "varchar"},
		{ColumnType(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}
