// Package row implements the packed binary row format: a schema-driven
// encoder/decoder for fixed-width columns plus indirectly addressed
// variable-length strings.
package row

import "fmt"

// ColumnType is one of the primitive types a column may hold.
type ColumnType uint8

const (
	Bool ColumnType = iota
	Int16
	Int32
	Int64
	Float32
	Float64
	Timestamp
	Date
	Varchar
)

func (t ColumnType) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	case Timestamp:
		return "timestamp"
	case Date:
		return "date"
	case Varchar:
		return "varchar"
	default:
		return "unknown"
	}
}

// fixedWidth returns the on-disk width in bytes of a non-varchar column
// type, per the native little-endian layout: bool=1, i16=2, i32/f32=4,
// i64/f64/timestamp/date=8.
func fixedWidth(t ColumnType) (int, bool) {
	switch t {
	case Bool:
		return 1, true
	case Int16:
		return 2, true
	case Int32, Float32:
		return 4, true
	case Int64, Float64, Timestamp, Date:
		return 8, true
	default:
		return 0, false
	}
}

// Column is one ordered column definition in a Schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered, immutable sequence of column definitions. Column
// order is significant: it determines fixed-field and string-rank
// offsets within an encoded row.
type Schema struct {
	columns []Column
}

// NewSchema validates and builds a Schema from an ordered column list.
// Duplicate names and unsupported types are rejected up front so that
// every later codec operation can assume a well-formed schema.
func NewSchema(columns ...Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("row: schema must have at least one column")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("row: column name must not be empty")
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("row: duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Type != Varchar {
			if _, ok := fixedWidth(c.Type); !ok {
				return nil, fmt.Errorf("row: column %q has unsupported type %v", c.Name, c.Type)
			}
		}
	}
	cp := make([]Column, len(columns))
	copy(cp, columns)
	return &Schema{columns: cp}, nil
}

// Size returns the number of columns in the schema.
func (s *Schema) Size() int { return len(s.columns) }

// Get returns the idx-th column definition.
func (s *Schema) Get(idx int) Column { return s.columns[idx] }

// Columns returns a copy of the schema's ordered column definitions.
func (s *Schema) Columns() []Column {
	cp := make([]Column, len(s.columns))
	copy(cp, s.columns)
	return cp
}

// ColumnIndex returns the position of name in the schema, or -1 if absent.
func (s *Schema) ColumnIndex(name string) int {
	for i, c := range s.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
