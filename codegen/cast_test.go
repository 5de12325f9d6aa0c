package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSafeCastTable(t *testing.T) {
	tests := []struct {
		src, dst ValueType
		want     bool
	}{
		{TBool, TInt64, true},
		{TInt32, TInt16, false},
		{TInt32, TInt64, true},
		{TInt64, TInt32, false},
		{TInt64, TInt64, true},
		{TFloat32, TFloat64, true},
		{TFloat64, TFloat32, false},
		{TInt64, TFloat64, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSafeCast(tt.src, tt.dst), "%s -> %s", tt.src, tt.dst)
	}
}

func TestEmitSafeCastRejectsUnsafePair(t *testing.T) {
	fn := ir.NewFunc("f", types.I16)
	block := fn.NewBlock("entry")
	v := constant.NewInt(types.I32, 0)
	_, err := EmitSafeCast(block, v, TInt32, TInt16)
	require.Error(t, err)
}

func TestEmitSafeCastWidensIntThenFloat(t *testing.T) {
	fn := ir.NewFunc("f", types.Double)
	block := fn.NewBlock("entry")
	v := constant.NewInt(types.I16, 5)
	widened, err := EmitSafeCast(block, v, TInt16, TInt32)
	require.NoError(t, err)
	require.NotNil(t, widened)

	asFloat, err := EmitSafeCast(block, widened, TInt32, TFloat64)
	require.NoError(t, err)
	require.NotNil(t, asFloat)
}

func TestEmitUnsafeCastTruncates(t *testing.T) {
	fn := ir.NewFunc("f", types.I16)
	block := fn.NewBlock("entry")
	v := constant.NewInt(types.I32, 5)
	out, err := EmitUnsafeCast(block, v, TInt32, TInt16)
	require.NoError(t, err)
	require.NotNil(t, out)
}

func TestEmitBoolCastIntAndFloat(t *testing.T) {
	fn := ir.NewFunc("f", types.I1)
	block := fn.NewBlock("entry")

	iv := constant.NewInt(types.I32, 7)
	bv, err := EmitBoolCast(block, iv, TInt32)
	require.NoError(t, err)
	require.NotNil(t, bv)

	fv := constant.NewFloat(types.Double, 1.5)
	bv2, err := EmitBoolCast(block, fv, TFloat64)
	require.NoError(t, err)
	require.NotNil(t, bv2)
}
