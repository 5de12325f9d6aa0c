// Package codegen lowers procedural statements and expressions into
// LLVM IR using github.com/llir/llvm, emitting into basic blocks with
// scope-aware iterator cleanup on every control-flow exit.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir/types"
)

// ValueType is one of the scalar types the expression/block lowerer
// understands, independent of row.ColumnType (which describes on-wire
// layout, not IR value type).
type ValueType uint8

const (
	TBool ValueType = iota
	TInt16
	TInt32
	TInt64
	TFloat32
	TFloat64
)

func (t ValueType) String() string {
	switch t {
	case TBool:
		return "bool"
	case TInt16:
		return "i16"
	case TInt32:
		return "i32"
	case TInt64:
		return "i64"
	case TFloat32:
		return "f32"
	case TFloat64:
		return "f64"
	default:
		return "unknown"
	}
}

// IRType maps a ValueType to its llir/llvm type representation.
func IRType(t ValueType) types.Type {
	switch t {
	case TBool:
		return types.I1
	case TInt16:
		return types.I16
	case TInt32:
		return types.I32
	case TInt64:
		return types.I64
	case TFloat32:
		return types.Float
	case TFloat64:
		return types.Double
	default:
		panic(fmt.Sprintf("codegen: unknown ValueType %d", t))
	}
}

func isInt(t ValueType) bool {
	return t == TBool || t == TInt16 || t == TInt32 || t == TInt64
}

func isFloat(t ValueType) bool {
	return t == TFloat32 || t == TFloat64
}

// intRank and floatRank give a total order used to find the wider of
// two operand types for promotion.
func intRank(t ValueType) int {
	switch t {
	case TBool:
		return 0
	case TInt16:
		return 1
	case TInt32:
		return 2
	case TInt64:
		return 3
	default:
		return -1
	}
}

func floatRank(t ValueType) int {
	switch t {
	case TFloat32:
		return 0
	case TFloat64:
		return 1
	default:
		return -1
	}
}

// safeCastTable is the source → dest SAFE-cast matrix from the
// procedural type system: every promotion a binary op may perform
// implicitly. Unsafe (narrowing/truncating) casts are only reachable
// through an explicit cast expression, never through operand promotion.
var safeCastTable = map[ValueType]map[ValueType]bool{
	TBool:    {TBool: true, TInt16: true, TInt32: true, TInt64: true, TFloat32: true, TFloat64: true},
	TInt16:   {TBool: true, TInt16: true, TInt32: true, TInt64: true, TFloat32: true, TFloat64: true},
	TInt32:   {TBool: true, TInt16: false, TInt32: true, TInt64: true, TFloat32: true, TFloat64: true},
	TInt64:   {TBool: false, TInt16: false, TInt32: false, TInt64: true, TFloat32: false, TFloat64: false},
	TFloat32: {TBool: false, TInt16: false, TInt32: false, TInt64: false, TFloat32: true, TFloat64: true},
	TFloat64: {TBool: false, TInt16: false, TInt32: false, TInt64: false, TFloat32: false, TFloat64: true},
}

// IsSafeCast reports whether src can be implicitly promoted to dst.
func IsSafeCast(src, dst ValueType) bool {
	row, ok := safeCastTable[src]
	if !ok {
		return false
	}
	return row[dst]
}
