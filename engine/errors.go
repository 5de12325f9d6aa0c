package engine

import "errors"

// Sentinel errors bucketed per spec.md §7. Callers match with errors.Is;
// SQLError and codegen failures from sqlfront/codegen propagate as-is
// (they already carry their own bucket identity).
var (
	// ErrUnsupportedQuery is returned by the planner for a parsed Query
	// shape this engine does not implement (e.g. more than one
	// projection, or a join/union via MergeOp).
	ErrUnsupportedQuery = errors.New("engine: unsupported query shape")
	// ErrColumnNotFound is returned when a projection or window clause
	// names a column absent from the source table's schema.
	ErrColumnNotFound = errors.New("engine: column not found")
	// ErrUDFFailed is returned when a compiled UDF call's runtime
	// evaluation fails or returns a non-zero status.
	ErrUDFFailed = errors.New("engine: UDF invocation failed")
)
