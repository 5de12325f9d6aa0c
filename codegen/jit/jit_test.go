package jit_test

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotai/HybridSE/codegen"
	"github.com/imotai/HybridSE/codegen/jit"
)

func TestInterpBackendEvaluatesAddFunction(t *testing.T) {
	mod := ir.NewModule()
	b := codegen.NewBuilder(mod)
	fn, entry := b.NewFunction("add", []codegen.Param{
		{Name: "a", Type: codegen.TInt32},
		{Name: "b", Type: codegen.TInt32},
	}, codegen.TInt32)
	require.NoError(t, b.BuildBody(fn, entry, []*codegen.Stmt{
		codegen.Return(codegen.Binary(codegen.OpAdd, codegen.Ident("a"), codegen.Ident("b"))),
	}))

	backend := jit.InterpBackend{}
	mat, err := backend.Materialize(mod, nil)
	require.NoError(t, err)
	defer mat.Close()

	callable, ok := mat.Symbol("add")
	require.True(t, ok)

	out, err := callable([]jit.Value{{Int: 3}, {Int: 4}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Int)
}

func TestMaterializeFailsOnUnresolvedExternal(t *testing.T) {
	mod := ir.NewModule()
	b := codegen.NewBuilder(mod)
	b.DeclareExternal("needs_impl", codegen.FuncSig{Params: []codegen.ValueType{codegen.TInt32}, Ret: codegen.TInt32})

	backend := jit.InterpBackend{}
	_, err := backend.Materialize(mod, nil)
	require.Error(t, err)
}

func TestMaterializeResolvesRegisteredIntrinsic(t *testing.T) {
	mod := ir.NewModule()
	b := codegen.NewBuilder(mod)
	b.DeclareExternal("double_it", codegen.FuncSig{Params: []codegen.ValueType{codegen.TInt32}, Ret: codegen.TInt32})
	fn, entry := b.NewFunction("wrapper", []codegen.Param{{Name: "x", Type: codegen.TInt32}}, codegen.TInt32)
	require.NoError(t, b.BuildBody(fn, entry, []*codegen.Stmt{
		codegen.Return(codegen.Call("double_it", codegen.Ident("x"))),
	}))

	backend := jit.InterpBackend{}
	mat, err := backend.Materialize(mod, map[string]jit.Intrinsic{
		"double_it": func(args []jit.Value) (jit.Value, error) {
			return jit.Value{Int: args[0].Int * 2}, nil
		},
	})
	require.NoError(t, err)

	callable, ok := mat.Symbol("wrapper")
	require.True(t, ok)
	out, err := callable([]jit.Value{{Int: 5}})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Int)
}
