package row

import (
	"strconv"
	"strings"
)

// Status codes returned by View getters, mirroring the reference codec:
// 0 means the returned value is valid, 1 means the column is NULL (the
// returned value is the type's zero value), and a negative value means
// the row buffer or column index was invalid.
const (
	StatusOK    = 0
	StatusNull  = 1
	StatusError = -1
)

// View reads columns out of an already-encoded row buffer without
// copying it. A View is reusable across many row buffers of the same
// Schema via Reset.
type View struct {
	schema  *Schema
	layout  fieldLayout
	buf     []byte
	size    uint32
	addrLen int
}

// NewView builds a View bound to schema. Call Reset to point it at a
// row buffer before reading any column.
func NewView(schema *Schema) *View {
	return &View{schema: schema, layout: computeLayout(schema)}
}

// Schema returns the schema this View decodes against.
func (v *View) Schema() *Schema { return v.schema }

// Reset points the View at a new row buffer, validating the header
// against schema before any column can be read.
func (v *View) Reset(buf []byte) error {
	if len(buf) < headerLength {
		return ErrInvalidRow
	}
	if buf[0] != fVersion || buf[1] != sVersion {
		return ErrInvalidRow
	}
	size := readTotalSize(buf)
	if int(size) != len(buf) {
		return ErrInvalidRow
	}
	if int(size) < v.layout.stringStart {
		return ErrInvalidRow
	}
	v.buf = buf
	v.size = size
	v.addrLen = addrLenFor(size)
	return nil
}

// IsNULL reports whether the idx-th column is NULL in the current row.
func (v *View) IsNULL(idx int) (bool, error) {
	if idx < 0 || idx >= v.schema.Size() {
		return false, ErrIndexOutOfRange
	}
	bytePos := headerLength + (idx >> 3)
	return v.buf[bytePos]&(1<<uint(idx&0x07)) != 0, nil
}

func (v *View) nullStatus(idx int) (int, bool) {
	isNull, err := v.IsNULL(idx)
	if err != nil {
		return StatusError, true
	}
	if isNull {
		return StatusNull, true
	}
	return StatusOK, false
}

// GetBool returns the idx-th column's bool value and a status code (see
// StatusOK/StatusNull/StatusError).
func (v *View) GetBool(idx int) (bool, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Bool {
		return false, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return false, status
	}
	return v.buf[v.layout.offsets[idx]] != 0, StatusOK
}

// GetInt16 returns the idx-th column's i16 value and a status code.
func (v *View) GetInt16(idx int) (int16, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Int16 {
		return 0, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return 0, status
	}
	return int16(readU16(v.buf[v.layout.offsets[idx]:])), StatusOK
}

// GetInt32 returns the idx-th column's i32 value and a status code.
func (v *View) GetInt32(idx int) (int32, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Int32 {
		return 0, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return 0, status
	}
	return int32(readU32(v.buf[v.layout.offsets[idx]:])), StatusOK
}

// GetInt64 returns the idx-th column's i64 value and a status code.
func (v *View) GetInt64(idx int) (int64, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Int64 {
		return 0, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return 0, status
	}
	return int64(readU64(v.buf[v.layout.offsets[idx]:])), StatusOK
}

// GetTimestamp returns the idx-th column's timestamp value and a status code.
func (v *View) GetTimestamp(idx int) (int64, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Timestamp {
		return 0, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return 0, status
	}
	return int64(readU64(v.buf[v.layout.offsets[idx]:])), StatusOK
}

// GetDate returns the idx-th column's date (day count) value and a status code.
func (v *View) GetDate(idx int) (int32, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Date {
		return 0, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return 0, status
	}
	return int32(readU64(v.buf[v.layout.offsets[idx]:])), StatusOK
}

// GetFloat returns the idx-th column's f32 value and a status code.
func (v *View) GetFloat(idx int) (float32, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Float32 {
		return 0, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return 0, status
	}
	return float32frombits(readU32(v.buf[v.layout.offsets[idx]:])), StatusOK
}

// GetDouble returns the idx-th column's f64 value and a status code.
func (v *View) GetDouble(idx int) (float64, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Float64 {
		return 0, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return 0, status
	}
	return float64frombits(readU64(v.buf[v.layout.offsets[idx]:])), StatusOK
}

// stringBounds returns the [start, end) byte range of the idx-th
// varchar column's payload in the heap. The end of the last varchar is
// the row's total_size; every other varchar's end is the next varchar
// offset slot's value, per the rank-based offset table.
func (v *View) stringBounds(idx int) (uint32, uint32) {
	rank := v.layout.offsets[idx]
	pos := v.layout.stringStart + v.addrLen*rank
	start := readOffset(v.buf, pos, v.addrLen)
	var end uint32
	if rank == v.layout.stringCount-1 {
		end = v.size
	} else {
		end = readOffset(v.buf, pos+v.addrLen, v.addrLen)
	}
	return start, end
}

// GetString returns the idx-th column's string value and a status code.
// The returned slice aliases the row buffer; copy it if it must outlive
// the buffer.
func (v *View) GetString(idx int) ([]byte, int) {
	if idx < 0 || idx >= v.schema.Size() || v.schema.Get(idx).Type != Varchar {
		return nil, StatusError
	}
	if status, stop := v.nullStatus(idx); stop {
		return nil, status
	}
	start, end := v.stringBounds(idx)
	if end < start || end > v.size {
		return nil, StatusError
	}
	return v.buf[start:end], StatusOK
}

// GetInteger widens the idx-th column's integer value (i16/i32/i64) to
// int64 and returns a status code. Unlike the type-specific getters
// this accepts any of the three integer widths so callers working with
// a column of unknown-but-integer type don't need a type switch. The
// status is propagated from the underlying getter for every width,
// including i16 and i32 — a generic dispatcher that only forwarded the
// i64 path's status would silently report StatusOK for a NULL i16 or
// i32 column.
func (v *View) GetInteger(idx int) (int64, int) {
	if idx < 0 || idx >= v.schema.Size() {
		return 0, StatusError
	}
	switch v.schema.Get(idx).Type {
	case Int16:
		val, status := v.GetInt16(idx)
		return int64(val), status
	case Int32:
		val, status := v.GetInt32(idx)
		return int64(val), status
	case Int64:
		val, status := v.GetInt64(idx)
		return val, status
	default:
		return 0, StatusError
	}
}

// GetAsString renders the idx-th column's value as a string: "NULL" if
// the column is NULL, the raw bytes for Varchar, a decimal/boolean
// rendering for every fixed-width type, and floats/doubles fixed at 6
// decimal places to match the reference codec's std::to_string(float).
func (v *View) GetAsString(idx int) (string, error) {
	if idx < 0 || idx >= v.schema.Size() {
		return "NA", nil
	}
	if isNull, err := v.IsNULL(idx); err != nil {
		return "", err
	} else if isNull {
		return "NULL", nil
	}
	switch v.schema.Get(idx).Type {
	case Bool:
		val, _ := v.GetBool(idx)
		return strconv.FormatBool(val), nil
	case Int16:
		val, _ := v.GetInt16(idx)
		return strconv.FormatInt(int64(val), 10), nil
	case Int32:
		val, _ := v.GetInt32(idx)
		return strconv.FormatInt(int64(val), 10), nil
	case Int64:
		val, _ := v.GetInt64(idx)
		return strconv.FormatInt(val, 10), nil
	case Timestamp:
		val, _ := v.GetTimestamp(idx)
		return strconv.FormatInt(val, 10), nil
	case Date:
		val, _ := v.GetDate(idx)
		return strconv.FormatInt(int64(val), 10), nil
	case Float32:
		val, _ := v.GetFloat(idx)
		return strconv.FormatFloat(float64(val), 'f', 6, 32), nil
	case Float64:
		val, _ := v.GetDouble(idx)
		return strconv.FormatFloat(val, 'f', 6, 64), nil
	case Varchar:
		val, _ := v.GetString(idx)
		return string(val), nil
	default:
		return "", ErrTypeMismatch
	}
}

// GetRowString renders the whole current row as a ", "-separated list
// of GetAsString results, in schema column order.
func (v *View) GetRowString() (string, error) {
	parts := make([]string, v.schema.Size())
	for i := 0; i < v.schema.Size(); i++ {
		s, err := v.GetAsString(i)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}
