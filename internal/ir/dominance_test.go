package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDominatorsDiamond(t *testing.T) {
	f := buildDiamond(t)
	dt := f.Dominators()

	// Entry dominates everything, including itself.
	assert.True(t, dt.Dominates(0, 0))
	assert.True(t, dt.Dominates(0, 1))
	assert.True(t, dt.Dominates(0, 2))
	assert.True(t, dt.Dominates(0, 3))

	// Neither arm dominates the join, nor each other.
	assert.False(t, dt.Dominates(1, 3))
	assert.False(t, dt.Dominates(2, 3))
	assert.False(t, dt.Dominates(1, 2))

	assert.Equal(t, 0, dt.ImmediateDominator(3))
	assert.Equal(t, 0, dt.ImmediateDominator(1))
}

func TestDominatorsLinearChain(t *testing.T) {
	f := NewFunction(0, nil)
	a := f.AddBlock(0)
	b := f.AddBlock(1)
	c := f.AddBlock(2)
	a.Instrs = append(a.Instrs, &JmpInstr{Target: b.Num})
	b.Instrs = append(b.Instrs, &JmpInstr{Target: c.Num})
	c.Instrs = append(c.Instrs, &RetInstr{})
	f.RebuildEdges()

	dt := f.Dominators()
	assert.True(t, dt.Dominates(0, 2))
	assert.True(t, dt.Dominates(1, 2))
	assert.False(t, dt.Dominates(2, 0))
	assert.Equal(t, 1, dt.ImmediateDominator(2))
	assert.Equal(t, 0, dt.ImmediateDominator(1))
}

func TestDominatorsUnreachableBlock(t *testing.T) {
	f := NewFunction(0, nil)
	a := f.AddBlock(0)
	unreachable := f.AddBlock(1)
	a.Instrs = append(a.Instrs, &RetInstr{})
	unreachable.Instrs = append(unreachable.Instrs, &RetInstr{})
	f.RebuildEdges()

	dt := f.Dominators()
	assert.False(t, dt.Dominates(0, 1))
	assert.Equal(t, -1, dt.ImmediateDominator(1))
}
