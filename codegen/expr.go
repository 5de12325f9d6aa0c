package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// typed pairs a lowered value with the scalar type it was lowered as.
// isHandle marks an opaque iterator/element handle, which has no
// ValueType.
type typed struct {
	val      value.Value
	scalar   ValueType
	isHandle bool
}

// buildExpr lowers e into block and returns its value together with
// its scalar type (or isHandle for an opaque reference).
func (b *Builder) buildExpr(block *ir.Block, e *Expr) (typed, error) {
	switch e.Kind {
	case ExprLiteral:
		return b.buildLiteral(e)
	case ExprIdent:
		return b.buildIdent(e)
	case ExprUnary:
		return b.buildUnary(block, e)
	case ExprBinary:
		return b.buildBinary(block, e, false)
	case ExprCompare:
		return b.buildBinary(block, e, true)
	case ExprCall:
		return b.buildCall(block, e)
	case ExprCast:
		return b.buildCast(block, e)
	default:
		return typed{}, fmt.Errorf("codegen: unknown expression kind %d", e.Kind)
	}
}

func (b *Builder) buildLiteral(e *Expr) (typed, error) {
	switch e.LitType {
	case TBool:
		return typed{val: constant.NewBool(e.LitBool), scalar: TBool}, nil
	case TInt16, TInt32, TInt64:
		return typed{val: constant.NewInt(IRType(e.LitType).(*types.IntType), e.LitInt), scalar: e.LitType}, nil
	case TFloat32, TFloat64:
		return typed{val: constant.NewFloat(IRType(e.LitType).(*types.FloatType), e.LitFloat), scalar: e.LitType}, nil
	default:
		return typed{}, fmt.Errorf("codegen: unknown literal type %s", e.LitType)
	}
}

func (b *Builder) buildIdent(e *Expr) (typed, error) {
	v, ok := b.scopes.Lookup(e.Name)
	if !ok {
		return typed{}, fmt.Errorf("codegen: undefined variable %q", e.Name)
	}
	scalar, isHandle, found := b.lookupType(e.Name)
	if !found {
		return typed{}, fmt.Errorf("codegen: variable %q has no type binding", e.Name)
	}
	return typed{val: v, scalar: scalar, isHandle: isHandle}, nil
}

func (b *Builder) buildUnary(block *ir.Block, e *Expr) (typed, error) {
	x, err := b.buildExpr(block, e.X)
	if err != nil {
		return typed{}, err
	}
	if x.isHandle {
		return typed{}, fmt.Errorf("codegen: cannot apply unary op to a handle value")
	}
	switch e.UnOp {
	case OpNeg:
		if isInt(x.scalar) {
			zero := constant.NewInt(IRType(x.scalar).(*types.IntType), 0)
			return typed{val: block.NewSub(zero, x.val), scalar: x.scalar}, nil
		}
		zero := constant.NewFloat(IRType(x.scalar).(*types.FloatType), 0)
		return typed{val: block.NewFSub(zero, x.val), scalar: x.scalar}, nil
	case OpNot:
		boolVal, err := b.asBool(block, x)
		if err != nil {
			return typed{}, err
		}
		return typed{val: block.NewXor(boolVal, constant.True), scalar: TBool}, nil
	default:
		return typed{}, fmt.Errorf("codegen: unknown unary op %q", e.UnOp)
	}
}

// asBool coerces x to bool, applying the bool-cast rule if it is not
// already one.
func (b *Builder) asBool(block *ir.Block, x typed) (value.Value, error) {
	if x.scalar == TBool {
		return x.val, nil
	}
	return EmitBoolCast(block, x.val, x.scalar)
}

// promote finds the wider of two operand types per the safe-cast
// table and casts both operands to it, or promotes an integer operand
// to a floating partner's type.
func (b *Builder) promote(block *ir.Block, x, y typed) (value.Value, value.Value, ValueType, error) {
	if x.isHandle || y.isHandle {
		return nil, nil, 0, fmt.Errorf("codegen: cannot use a handle value in an arithmetic or comparison op")
	}
	if x.scalar == y.scalar {
		return x.val, y.val, x.scalar, nil
	}
	switch {
	case isInt(x.scalar) && isInt(y.scalar):
		dst := x.scalar
		if intRank(y.scalar) > intRank(x.scalar) {
			dst = y.scalar
		}
		xv, err := EmitSafeCast(block, x.val, x.scalar, dst)
		if err != nil {
			return nil, nil, 0, err
		}
		yv, err := EmitSafeCast(block, y.val, y.scalar, dst)
		if err != nil {
			return nil, nil, 0, err
		}
		return xv, yv, dst, nil
	case isInt(x.scalar) && isFloat(y.scalar):
		xv, err := EmitSafeCast(block, x.val, x.scalar, y.scalar)
		if err != nil {
			return nil, nil, 0, err
		}
		return xv, y.val, y.scalar, nil
	case isFloat(x.scalar) && isInt(y.scalar):
		yv, err := EmitSafeCast(block, y.val, y.scalar, x.scalar)
		if err != nil {
			return nil, nil, 0, err
		}
		return x.val, yv, x.scalar, nil
	case isFloat(x.scalar) && isFloat(y.scalar):
		dst := x.scalar
		if floatRank(y.scalar) > floatRank(x.scalar) {
			dst = y.scalar
		}
		xv, err := EmitSafeCast(block, x.val, x.scalar, dst)
		if err != nil {
			return nil, nil, 0, err
		}
		yv, err := EmitSafeCast(block, y.val, y.scalar, dst)
		if err != nil {
			return nil, nil, 0, err
		}
		return xv, yv, dst, nil
	default:
		return nil, nil, 0, fmt.Errorf("codegen: cannot promote %s and %s", x.scalar, y.scalar)
	}
}

func (b *Builder) buildBinary(block *ir.Block, e *Expr, isCompare bool) (typed, error) {
	x, err := b.buildExpr(block, e.X)
	if err != nil {
		return typed{}, err
	}
	y, err := b.buildExpr(block, e.Y)
	if err != nil {
		return typed{}, err
	}
	xv, yv, t, err := b.promote(block, x, y)
	if err != nil {
		return typed{}, err
	}
	if isCompare {
		v, err := b.emitCompare(block, e.BinOp, xv, yv, t)
		if err != nil {
			return typed{}, err
		}
		return typed{val: v, scalar: TBool}, nil
	}
	v, err := b.emitArith(block, e.BinOp, xv, yv, t)
	if err != nil {
		return typed{}, err
	}
	return typed{val: v, scalar: t}, nil
}

func (b *Builder) emitArith(block *ir.Block, op BinOp, x, y value.Value, t ValueType) (value.Value, error) {
	if isFloat(t) {
		switch op {
		case OpAdd:
			return block.NewFAdd(x, y), nil
		case OpSub:
			return block.NewFSub(x, y), nil
		case OpMul:
			return block.NewFMul(x, y), nil
		case OpDiv:
			return block.NewFDiv(x, y), nil
		case OpMod:
			return block.NewFRem(x, y), nil
		default:
			return nil, fmt.Errorf("codegen: unsupported float op %q", op)
		}
	}
	switch op {
	case OpAdd:
		return block.NewAdd(x, y), nil
	case OpSub:
		return block.NewSub(x, y), nil
	case OpMul:
		return block.NewMul(x, y), nil
	case OpDiv:
		return block.NewSDiv(x, y), nil
	case OpMod:
		return block.NewSRem(x, y), nil
	default:
		return nil, fmt.Errorf("codegen: unsupported integer op %q", op)
	}
}

func (b *Builder) emitCompare(block *ir.Block, op BinOp, x, y value.Value, t ValueType) (value.Value, error) {
	if isFloat(t) {
		pred, err := floatPred(op)
		if err != nil {
			return nil, err
		}
		return block.NewFCmp(pred, x, y), nil
	}
	pred, err := intPred(op)
	if err != nil {
		return nil, err
	}
	return block.NewICmp(pred, x, y), nil
}

func intPred(op BinOp) (enum.IPred, error) {
	switch op {
	case OpEQ:
		return enum.IPredEQ, nil
	case OpNE:
		return enum.IPredNE, nil
	case OpLT:
		return enum.IPredSLT, nil
	case OpLE:
		return enum.IPredSLE, nil
	case OpGT:
		return enum.IPredSGT, nil
	case OpGE:
		return enum.IPredSGE, nil
	default:
		return 0, fmt.Errorf("codegen: unsupported comparison op %q", op)
	}
}

func floatPred(op BinOp) (enum.FPred, error) {
	switch op {
	case OpEQ:
		return enum.FPredOEQ, nil
	case OpNE:
		return enum.FPredONE, nil
	case OpLT:
		return enum.FPredOLT, nil
	case OpLE:
		return enum.FPredOLE, nil
	case OpGT:
		return enum.FPredOGT, nil
	case OpGE:
		return enum.FPredOGE, nil
	default:
		return 0, fmt.Errorf("codegen: unsupported comparison op %q", op)
	}
}

func (b *Builder) buildCall(block *ir.Block, e *Expr) (typed, error) {
	sig, ok := b.funcs[e.Callee]
	if !ok {
		return typed{}, fmt.Errorf("codegen: call to undeclared function %q", e.Callee)
	}
	if len(e.Args) != len(sig.Params) {
		return typed{}, fmt.Errorf("codegen: %q expects %d args, got %d", e.Callee, len(sig.Params), len(e.Args))
	}
	fn := b.funcDefs[e.Callee]
	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := b.buildExpr(block, a)
		if err != nil {
			return typed{}, err
		}
		if v.isHandle {
			args[i] = v.val
			continue
		}
		cast, err := EmitSafeCast(block, v.val, v.scalar, sig.Params[i])
		if err != nil {
			return typed{}, err
		}
		args[i] = cast
	}
	call := block.NewCall(fn, args...)
	if sig.RetHandle {
		return typed{val: call, isHandle: true}, nil
	}
	return typed{val: call, scalar: sig.Ret}, nil
}

func (b *Builder) buildCast(block *ir.Block, e *Expr) (typed, error) {
	x, err := b.buildExpr(block, e.X)
	if err != nil {
		return typed{}, err
	}
	if x.isHandle {
		return typed{}, fmt.Errorf("codegen: cannot cast a handle value")
	}
	if e.Target == TBool {
		v, err := EmitBoolCast(block, x.val, x.scalar)
		if err != nil {
			return typed{}, err
		}
		return typed{val: v, scalar: TBool}, nil
	}
	v, err := EmitUnsafeCast(block, x.val, x.scalar, e.Target)
	if err != nil {
		return typed{}, err
	}
	return typed{val: v, scalar: e.Target}, nil
}
