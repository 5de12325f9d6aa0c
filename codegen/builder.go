package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/imotai/HybridSE/codegen/scope"
)

// handleType is the opaque element/iterator-handle representation: an
// i8* pointer. The concrete element a window iterator yields is a row
// whose scalar layout depends on the window's schema — a storage-layer
// concern outside the expression/block IR builder — so for-in loop
// variables are bound as opaque handles here; a function body that
// needs a scalar out of one calls an external row-extraction function
// via an ExprCall, which is how a real compiled UDF would do it too.
var handleType = types.NewPointer(types.I8)

// FuncSig describes an external function's signature for call lowering.
type FuncSig struct {
	Params []ValueType
	Ret    ValueType
	// RetHandle marks a function returning an opaque handle rather than
	// a scalar ValueType (Ret is ignored when true).
	RetHandle bool
}

// Builder lowers procedural statements and expressions into one
// llir/llvm module. One Builder is reused across every function in the
// module so external symbols (iterator protocol, UDF declarations) are
// declared at most once.
type Builder struct {
	Module *ir.Module

	scopes *scope.Stack
	// envTypes/envHandles mirror scopes' frame stack depth 1:1, giving
	// each variable binding a scalar ValueType or "opaque handle" tag
	// that scope.Stack itself does not track.
	envTypes   []map[string]ValueType
	envHandles []map[string]bool

	funcs    map[string]FuncSig
	funcDefs map[string]*ir.Func

	iterCreate  *ir.Func
	iterHasNext *ir.Func
	iterNext    *ir.Func
	iterDelete  *ir.Func
}

// NewBuilder returns a Builder that will declare external symbols into
// module and lower functions against it.
func NewBuilder(module *ir.Module) *Builder {
	return &Builder{
		Module:   module,
		scopes:   scope.NewStack(),
		funcs:    make(map[string]FuncSig),
		funcDefs: make(map[string]*ir.Func),
	}
}

// DeclareExternal registers an external function symbol by name and
// signature so that Call expressions referencing it can be lowered.
// It matches the JIT contract's "register external symbols" step: the
// backend links the real implementation in at materialize time.
func (b *Builder) DeclareExternal(name string, sig FuncSig) *ir.Func {
	var ret types.Type = handleType
	if !sig.RetHandle {
		ret = IRType(sig.Ret)
	}
	params := make([]*ir.Param, len(sig.Params))
	for i, pt := range sig.Params {
		params[i] = ir.NewParam(fmt.Sprintf("p%d", i), IRType(pt))
	}
	// A Func with no appended blocks is emitted as an external
	// declaration, which is exactly the JIT contract's "register
	// external symbols" step — the real body is linked in later.
	fn := b.Module.NewFunc(name, ret, params...)
	b.funcs[name] = sig
	b.funcDefs[name] = fn
	return fn
}

func (b *Builder) enter(name string) {
	b.scopes.Enter(name)
	b.envTypes = append(b.envTypes, make(map[string]ValueType))
	b.envHandles = append(b.envHandles, make(map[string]bool))
}

func (b *Builder) exit() {
	b.scopes.Exit()
	if len(b.envTypes) > 0 {
		b.envTypes = b.envTypes[:len(b.envTypes)-1]
		b.envHandles = b.envHandles[:len(b.envHandles)-1]
	}
}

func (b *Builder) bindScalar(name string, v value.Value, t ValueType) {
	b.scopes.AddVar(name, v)
	top := len(b.envTypes) - 1
	b.envTypes[top][name] = t
	delete(b.envHandles[top], name)
}

func (b *Builder) bindHandle(name string, v value.Value) {
	b.scopes.AddVar(name, v)
	top := len(b.envHandles) - 1
	b.envHandles[top][name] = true
}

func (b *Builder) lookupType(name string) (ValueType, bool, bool) {
	for i := len(b.envTypes) - 1; i >= 0; i-- {
		if t, ok := b.envTypes[i][name]; ok {
			return t, false, true
		}
		if b.envHandles[i][name] {
			return 0, true, true
		}
	}
	return 0, false, false
}

// Param is a named, typed function parameter. A parameter whose
// IsHandle is true is an opaque handle (e.g. a window reference passed
// to a compiled UDF) rather than a scalar; Type is ignored for it.
type Param struct {
	Name     string
	Type     ValueType
	IsHandle bool
}

func paramTypes(params []Param) []ValueType {
	ts := make([]ValueType, len(params))
	for i, p := range params {
		ts[i] = p.Type
	}
	return ts
}

func paramIRType(p Param) types.Type {
	if p.IsHandle {
		return handleType
	}
	return IRType(p.Type)
}

// NewFunction emits an external-linkage function symbol with the given
// parameters and return type, binds every parameter by name in a fresh
// "module/function" scope, and returns the function plus its entry
// block ready for BuildBody.
func (b *Builder) NewFunction(name string, params []Param, ret ValueType) (*ir.Func, *ir.Block) {
	irParams := make([]*ir.Param, len(params))
	for i, p := range params {
		irParams[i] = ir.NewParam(p.Name, paramIRType(p))
	}
	fn := b.Module.NewFunc(name, IRType(ret), irParams...)
	b.funcDefs[name] = fn
	b.funcs[name] = FuncSig{Params: paramTypes(params), Ret: ret}
	entry := fn.NewBlock("entry")

	b.enter("module/function")
	for i, p := range params {
		if p.IsHandle {
			b.bindHandle(p.Name, fn.Params[i])
			continue
		}
		b.bindScalar(p.Name, fn.Params[i], p.Type)
	}
	return fn, entry
}

// BuildBody lowers body as the function's single top-level block, with
// entry as its entry block. The body must terminate via return on
// every path; BuildBody returns an error otherwise. The
// function's scope (bound in NewFunction) is popped here.
func (b *Builder) BuildBody(fn *ir.Func, entry *ir.Block, body []*Stmt) error {
	defer b.exit()
	terminated, err := b.buildStmtList(fn, entry, nil, body)
	if err != nil {
		return err
	}
	if !terminated {
		return fmt.Errorf("codegen: function %s does not terminate via return on every path", fn.Name())
	}
	return nil
}
