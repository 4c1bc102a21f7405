package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildAddOne(numOffset int) *Function {
	f := NewFunction(numOffset, []Type{I32})
	arg := f.AddArg(I32)
	entry := f.AddBlock(numOffset)
	result := f.NewComputed(-1, I32)
	entry.Instrs = append(entry.Instrs, &IBinInstr{Result: result, IOp: IntAdd, X: arg, Y: &IntConst{Val: 1, Typ: I32}})
	entry.Instrs = append(entry.Instrs, &RetInstr{Args: []Value{result}})
	f.RebuildEdges()
	return f
}

func TestEqualFunctionsToleratesRenumbering(t *testing.T) {
	a := buildAddOne(0)
	b := buildAddOne(100)
	assert.True(t, EqualFunctions(a, b))
}

func TestEqualFunctionsDetectsDifference(t *testing.T) {
	a := buildAddOne(0)
	b := NewFunction(0, []Type{I32})
	arg := b.AddArg(I32)
	entry := b.AddBlock(0)
	result := b.NewComputed(-1, I32)
	entry.Instrs = append(entry.Instrs, &IBinInstr{Result: result, IOp: IntSub, X: arg, Y: &IntConst{Val: 1, Typ: I32}})
	entry.Instrs = append(entry.Instrs, &RetInstr{Args: []Value{result}})
	b.RebuildEdges()

	assert.False(t, EqualFunctions(a, b), "add vs sub must not compare equal")
}

func TestEqualFunctionsComparesPhiBlockCorrespondence(t *testing.T) {
	a := buildDiamond(t)
	b := buildDiamond(t)
	assert.True(t, EqualFunctions(a, b))
}

func addAddOneFunc(p *Program, requested int) {
	f := p.AddFunc(requested, []Type{I32})
	p.SetFuncName(f, "addone")
	arg := f.AddArg(I32)
	entry := f.AddBlock(requested)
	result := f.NewComputed(-1, I32)
	entry.Instrs = append(entry.Instrs, &IBinInstr{Result: result, IOp: IntAdd, X: arg, Y: &IntConst{Val: 1, Typ: I32}})
	entry.Instrs = append(entry.Instrs, &RetInstr{Args: []Value{result}})
	f.RebuildEdges()
}

func TestEqualProgramsByPosition(t *testing.T) {
	p1 := NewProgram()
	addAddOneFunc(p1, 0)

	p2 := NewProgram()
	addAddOneFunc(p2, 7)

	assert.True(t, EqualPrograms(p1, p2))
}
