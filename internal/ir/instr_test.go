package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrStrings(t *testing.T) {
	r := &Computed{Num: 1, Typ: I32}
	x := &Computed{Num: 2, Typ: I32}
	mov := &MovInstr{Result: r, Src: x}
	assert.Equal(t, "%1 = mov %2", mov.String())

	ibin := &IBinInstr{Result: r, IOp: IntAdd, X: x, Y: &IntConst{Val: 3, Typ: I32}}
	assert.Equal(t, "%1 = ibin.add %2, #3:i32", ibin.String())

	jcc := &JccInstr{Cond: &BoolConst{Val: true}, TrueTarget: 1, FalseTarget: 2}
	assert.Equal(t, "jcc #t, %b1, %b2", jcc.String())
	assert.Equal(t, []int{1, 2}, JumpTargets(jcc))

	jmp := &JmpInstr{Target: 5}
	assert.Equal(t, []int{5}, JumpTargets(jmp))
	assert.True(t, jmp.Op().IsTerminator())
	assert.False(t, mov.Op().IsTerminator())
}

func TestOpDefsUses(t *testing.T) {
	result := &Computed{Num: 0, Typ: I32}
	call := &CallInstr{Results: []*Computed{result}, Callee: &FuncConst{Num: 2}, Args: []Value{&IntConst{Val: 1, Typ: I32}}}
	assert.Equal(t, []*Computed{result}, call.Defs())
	assert.Len(t, call.Uses(), 2)

	store := &StoreInstr{Addr: &AddrConst{Addr: 0x10}, Val: &IntConst{Val: 9, Typ: I8}}
	assert.Empty(t, store.Defs())
	assert.Len(t, store.Uses(), 2)
}

func TestExtensionOpClassification(t *testing.T) {
	assert.True(t, OpMakeShared.IsExtension())
	assert.True(t, OpStrConcat.IsExtension())
	assert.False(t, OpMov.IsExtension())
	assert.False(t, OpRet.IsExtension())
}

func TestPhiString(t *testing.T) {
	result := &Computed{Num: 3, Typ: I32}
	phi := &PhiInstr{
		Result: result,
		Args: []*Inherited{
			{Value: &IntConst{Val: 1, Typ: I32}, Block: 0},
			{Value: &IntConst{Val: 2, Typ: I32}, Block: 1},
		},
	}
	assert.Equal(t, "%3 = phi #1:i32:%b0, #2:i32:%b1", phi.String())
}
