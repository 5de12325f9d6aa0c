package jit

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"
)

// InterpBackend is the non-native Backend: it evaluates a module's
// defined functions directly against their instruction lists instead
// of compiling them.
type InterpBackend struct{}

// Materialize resolves mod's external symbols against externs and
// returns a Module that can evaluate every function mod defines.
func (InterpBackend) Materialize(mod *ir.Module, externs map[string]Intrinsic) (Module, error) {
	im := &interpModule{mod: mod, externs: externs, defined: make(map[string]*ir.Func)}
	for _, fn := range mod.Funcs {
		if len(fn.Blocks) > 0 {
			im.defined[fn.Name()] = fn
		} else if _, ok := externs[fn.Name()]; !ok {
			return nil, fmt.Errorf("jit: external symbol %q has no registered intrinsic", fn.Name())
		}
	}
	return im, nil
}

type interpModule struct {
	mod     *ir.Module
	externs map[string]Intrinsic
	defined map[string]*ir.Func
}

func (m *interpModule) Close() error { return nil }

func (m *interpModule) Symbol(name string) (CompiledFunc, bool) {
	fn, ok := m.defined[name]
	if !ok {
		return nil, false
	}
	return func(args []Value) (Value, error) {
		return m.call(fn, args)
	}, true
}

func (m *interpModule) call(fn *ir.Func, args []Value) (Value, error) {
	if len(args) != len(fn.Params) {
		return Value{}, fmt.Errorf("jit: %s expects %d args, got %d", fn.Name(), len(fn.Params), len(args))
	}
	env := make(map[value.Value]Value)
	for i, p := range fn.Params {
		env[p] = args[i]
	}
	block := fn.Blocks[0]
	for {
		for _, inst := range block.Insts {
			v, err := m.evalInst(fn, inst, env)
			if err != nil {
				return Value{}, err
			}
			if iv, ok := inst.(value.Value); ok {
				env[iv] = v
			}
		}
		switch term := block.Term.(type) {
		case *ir.TermRet:
			if term.X == nil {
				return Value{IsVoid: true}, nil
			}
			return m.resolve(term.X, env)
		case *ir.TermBr:
			block = term.Target
		case *ir.TermCondBr:
			cond, err := m.resolve(term.Cond, env)
			if err != nil {
				return Value{}, err
			}
			if cond.Int != 0 {
				block = term.TargetTrue
			} else {
				block = term.TargetFalse
			}
		default:
			return Value{}, fmt.Errorf("jit: unsupported terminator %T", term)
		}
	}
}

func (m *interpModule) resolve(v value.Value, env map[value.Value]Value) (Value, error) {
	switch t := v.(type) {
	case *constant.Int:
		return Value{Int: t.X.Int64()}, nil
	case *constant.Float:
		f, _ := t.X.Float64()
		return Value{Float: f, IsFloat: true}, nil
	default:
		if val, ok := env[v]; ok {
			return val, nil
		}
		return Value{}, fmt.Errorf("jit: unbound SSA value %v", v)
	}
}

func (m *interpModule) evalInst(fn *ir.Func, inst ir.Instruction, env map[value.Value]Value) (Value, error) {
	switch in := inst.(type) {
	case *ir.InstAdd:
		x, y, err := m.binIntOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: x + y}, nil
	case *ir.InstSub:
		x, y, err := m.binIntOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: x - y}, nil
	case *ir.InstMul:
		x, y, err := m.binIntOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: x * y}, nil
	case *ir.InstSDiv:
		x, y, err := m.binIntOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: x / y}, nil
	case *ir.InstSRem:
		x, y, err := m.binIntOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: x % y}, nil
	case *ir.InstFAdd:
		x, y, err := m.binFloatOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Float: x + y, IsFloat: true}, nil
	case *ir.InstFSub:
		x, y, err := m.binFloatOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Float: x - y, IsFloat: true}, nil
	case *ir.InstFMul:
		x, y, err := m.binFloatOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Float: x * y, IsFloat: true}, nil
	case *ir.InstFDiv:
		x, y, err := m.binFloatOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Float: x / y, IsFloat: true}, nil
	case *ir.InstXor:
		x, y, err := m.binIntOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: x ^ y}, nil
	case *ir.InstICmp:
		x, y, err := m.binIntOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: boolToInt(evalIPred(in.Pred, x, y))}, nil
	case *ir.InstFCmp:
		x, y, err := m.binFloatOperands(in.X, in.Y, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: boolToInt(evalFPred(in.Pred, x, y))}, nil
	case *ir.InstSExt:
		return m.resolve(in.From, env)
	case *ir.InstZExt:
		return m.resolve(in.From, env)
	case *ir.InstTrunc:
		return m.resolve(in.From, env)
	case *ir.InstFPExt:
		v, err := m.resolve(in.From, env)
		if err != nil {
			return Value{}, err
		}
		v.IsFloat = true
		return v, nil
	case *ir.InstFPTrunc:
		v, err := m.resolve(in.From, env)
		if err != nil {
			return Value{}, err
		}
		v.IsFloat = true
		return v, nil
	case *ir.InstSIToFP:
		v, err := m.resolve(in.From, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Float: float64(v.Int), IsFloat: true}, nil
	case *ir.InstFPToSI:
		v, err := m.resolve(in.From, env)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: int64(v.Float)}, nil
	case *ir.InstCall:
		return m.evalCall(in, env)
	default:
		return Value{}, fmt.Errorf("jit: unsupported instruction %T", inst)
	}
}

func (m *interpModule) binIntOperands(x, y value.Value, env map[value.Value]Value) (int64, int64, error) {
	xv, err := m.resolve(x, env)
	if err != nil {
		return 0, 0, err
	}
	yv, err := m.resolve(y, env)
	if err != nil {
		return 0, 0, err
	}
	return xv.Int, yv.Int, nil
}

func (m *interpModule) binFloatOperands(x, y value.Value, env map[value.Value]Value) (float64, float64, error) {
	xv, err := m.resolve(x, env)
	if err != nil {
		return 0, 0, err
	}
	yv, err := m.resolve(y, env)
	if err != nil {
		return 0, 0, err
	}
	return xv.Float, yv.Float, nil
}

func (m *interpModule) evalCall(in *ir.InstCall, env map[value.Value]Value) (Value, error) {
	name := calleeName(in.Callee)
	args := make([]Value, len(in.Args))
	for i, a := range in.Args {
		v, err := m.resolve(a, env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	if fn, ok := m.defined[name]; ok {
		return m.call(fn, args)
	}
	if intrinsic, ok := m.externs[name]; ok {
		return intrinsic(args)
	}
	return Value{}, fmt.Errorf("jit: call to unresolved symbol %q", name)
}

func calleeName(callee value.Value) string {
	if fn, ok := callee.(*ir.Func); ok {
		return fn.Name()
	}
	return ""
}

func evalIPred(pred enum.IPred, x, y int64) bool {
	switch pred {
	case enum.IPredEQ:
		return x == y
	case enum.IPredNE:
		return x != y
	case enum.IPredSLT:
		return x < y
	case enum.IPredSLE:
		return x <= y
	case enum.IPredSGT:
		return x > y
	case enum.IPredSGE:
		return x >= y
	default:
		return false
	}
}

func evalFPred(pred enum.FPred, x, y float64) bool {
	switch pred {
	case enum.FPredOEQ:
		return x == y
	case enum.FPredONE:
		return x != y
	case enum.FPredOLT:
		return x < y
	case enum.FPredOLE:
		return x <= y
	case enum.FPredOGT:
		return x > y
	case enum.FPredOGE:
		return x >= y
	default:
		return false
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
