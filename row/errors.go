package row

import "errors"

// Sentinel errors returned by Builder and View operations. Callers
// should match with errors.Is; the codec never panics on malformed
// input, only on programmer misuse of precomputed layouts.
var (
	// ErrBufferTooSmall is returned by SetBuffer when the supplied
	// buffer cannot hold the fixed area and the (minimal) string
	// offset table.
	ErrBufferTooSmall = errors.New("row: buffer too small for schema")
	// ErrColumnOverflow is returned by an Append* call made after all
	// schema columns have already been appended.
	ErrColumnOverflow = errors.New("row: no more columns to append")
	// ErrTypeMismatch is returned when an Append* call's type does not
	// match the next schema column's declared type.
	ErrTypeMismatch = errors.New("row: column type mismatch")
	// ErrStringOverflow is returned by AppendString when the string
	// bytes would not fit within the buffer's declared size.
	ErrStringOverflow = errors.New("row: string write exceeds buffer size")
	// ErrInvalidRow is returned by View operations on a row whose
	// header is malformed or inconsistent with the supplied size.
	ErrInvalidRow = errors.New("row: invalid row buffer")
	// ErrIndexOutOfRange is returned when a column index exceeds the
	// schema's column count.
	ErrIndexOutOfRange = errors.New("row: column index out of range")
)
