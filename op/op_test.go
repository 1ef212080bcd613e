package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(Clamp)
	require.Equal(t, "CLAMP", info.Name)
	require.Equal(t, 3, info.OperandCount)
	require.Equal(t, Clamp, info.Code)
	require.True(t, info.Pure)
}

func TestGetInfoAllOpcodes(t *testing.T) {
	tests := []struct {
		code     Code
		name     string
		operands int
		pure     bool
	}{
		{Move, "MOVE", 1, false},
		{Select, "SELECT", 3, true},
		{Negate, "NEG", 1, true},
		{Not, "NOT", 1, true},
		{Add, "ADD", 2, true},
		{Modulo, "MOD", 2, true},
		{GreaterThanOrEqual, "GE", 2, true},
		{Or, "OR", 2, true},
		{GlobalInit, "G_INIT", 2, false},
		{GlobalGet, "G_GET", 1, false},
		{GlobalSet, "G_SET", 2, false},
		{GlobalHas, "G_HAS", 1, false},
		{GlobalDel, "G_DEL", 1, false},
		{IsNaN, "IS_NAN", 1, true},
		{IsInf, "IS_INF", 1, true},
		{Lerp, "LERP", 3, true},
		{Tan, "TAN", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			require.Equal(t, tt.code, info.Code)
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.operands, info.OperandCount)
			require.Equal(t, tt.pure, info.Pure)
		})
	}
}

func TestGetInfoInvalid(t *testing.T) {
	info := GetInfo(Invalid)
	require.False(t, info.Valid())
	require.Equal(t, "", info.Name)
	require.False(t, GetInfo(Code(250)).Valid())
	require.Equal(t, "INVALID", Code(250).String())
}

func TestLookup(t *testing.T) {
	for _, code := range Codes() {
		found, ok := Lookup(code.String())
		require.True(t, ok)
		require.Equal(t, code, found)
	}
	_, ok := Lookup("JUMP")
	require.False(t, ok)
}

func TestIsNaNAndIsInfAreDistinct(t *testing.T) {
	require.NotEqual(t, IsNaN, IsInf)
	require.NotEqual(t, Add, IsNaN)
	require.NotEqual(t, Add, IsInf)
}

func TestOperandCountsFitInstruction(t *testing.T) {
	for _, code := range Codes() {
		require.LessOrEqual(t, GetInfo(code).OperandCount, 8, code.String())
	}
}
