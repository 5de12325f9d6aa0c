package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// EmitSafeCast promotes v (of type src) to dst using the operation the
// safe-cast table allows. It is the only cast path reachable from
// ordinary binary-op operand promotion. A src/dst pair that IsSafeCast
// does not mark safe is rejected with an error; nothing is emitted.
func EmitSafeCast(block *ir.Block, v value.Value, src, dst ValueType) (value.Value, error) {
	if src == dst {
		return v, nil
	}
	if !IsSafeCast(src, dst) {
		return nil, fmt.Errorf("codegen: %s -> %s is not a safe cast", src, dst)
	}
	switch {
	case isInt(src) && isInt(dst):
		return block.NewSExt(v, IRType(dst)), nil
	case isInt(src) && isFloat(dst):
		return block.NewSIToFP(v, IRType(dst)), nil
	case isFloat(src) && isFloat(dst):
		return block.NewFPExt(v, IRType(dst)), nil
	default:
		return nil, fmt.Errorf("codegen: unsupported safe cast %s -> %s", src, dst)
	}
}

// EmitUnsafeCast performs an explicit, possibly narrowing or rounding
// cast. It is only reachable from an explicit cast expression in the
// procedural AST, never from implicit operand promotion.
func EmitUnsafeCast(block *ir.Block, v value.Value, src, dst ValueType) (value.Value, error) {
	if src == dst {
		return v, nil
	}
	switch {
	case isInt(src) && isInt(dst):
		if intRank(dst) > intRank(src) {
			return block.NewSExt(v, IRType(dst)), nil
		}
		return block.NewTrunc(v, IRType(dst)), nil
	case isFloat(src) && isFloat(dst):
		if floatRank(dst) > floatRank(src) {
			return block.NewFPExt(v, IRType(dst)), nil
		}
		return block.NewFPTrunc(v, IRType(dst)), nil
	case isInt(src) && isFloat(dst):
		return block.NewSIToFP(v, IRType(dst)), nil
	case isFloat(src) && isInt(dst):
		return block.NewFPToSI(v, IRType(dst)), nil
	default:
		return nil, fmt.Errorf("codegen: unsupported cast %s -> %s", src, dst)
	}
}

// EmitBoolCast casts any scalar to bool via `x != 0` (integer compare)
// or `x != 0.0` (floating compare), per the procedural type system's
// bool-cast rule.
func EmitBoolCast(block *ir.Block, v value.Value, src ValueType) (value.Value, error) {
	switch {
	case isInt(src):
		zero := constant.NewInt(IRType(src).(*types.IntType), 0)
		return block.NewICmp(enum.IPredNE, v, zero), nil
	case isFloat(src):
		zero := constant.NewFloat(IRType(src).(*types.FloatType), 0)
		return block.NewFCmp(enum.FPredONE, v, zero), nil
	default:
		return nil, fmt.Errorf("codegen: unsupported bool cast source %s", src)
	}
}
