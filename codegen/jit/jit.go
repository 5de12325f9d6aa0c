// Package jit implements the generator-facing contract a native
// back-end would satisfy — "emit an IR module, register external
// symbols, materialize as a callable with a known C-ABI signature" —
// without generating machine code. Backend is the contract; the
// shipped InterpBackend resolves externs against a registered
// intrinsic table and evaluates a module's defined functions with a
// small tree-walking evaluator over their already-built *ir.Func
// bodies.
package jit

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// Value is the dynamic value an interpreted function call passes or
// returns: a signed integer, a float, or an opaque handle.
type Value struct {
	Int     int64
	Float   float64
	Handle  any
	IsFloat bool
	IsVoid  bool
}

// Intrinsic is a Go implementation of an external symbol the codegen
// package declared (the iterator protocol, or a registered UDF).
type Intrinsic func(args []Value) (Value, error)

// CompiledFunc is a materialized, callable module-defined function.
type CompiledFunc func(args []Value) (Value, error)

// Backend is the contract a JIT implementation exposes to the
// generator: given a built module and a table of external symbol
// implementations, produce a Module whose defined functions can be
// looked up and called.
type Backend interface {
	Materialize(mod *ir.Module, externs map[string]Intrinsic) (Module, error)
}

// Module is a materialized, callable view of an *ir.Module.
type Module interface {
	// Symbol looks up a defined (non-external) function by name.
	Symbol(name string) (CompiledFunc, bool)
	Close() error
}
