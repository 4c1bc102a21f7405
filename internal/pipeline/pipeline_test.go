package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssair/internal/ir"
	"ssair/internal/issue"
)

// buildSharedProgram builds a one-function program that allocates a strong
// shared i64, loads it, and deletes it, and designates it "main".
func buildSharedProgram() *ir.Program {
	prog := ir.NewProgram()
	f := prog.AddFunc(0, nil)
	prog.SetFuncName(f, "main")
	b0 := f.AddBlock(-1)
	sp := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Strong}
	shared := f.NewComputed(-1, sp)
	loaded := f.NewComputed(-1, ir.I64)
	b0.Instrs = append(b0.Instrs,
		&ir.MakeSharedInstr{Result: shared, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
		&ir.StoreInstr{Addr: shared, Val: &ir.IntConst{Val: 42, Typ: ir.I64}},
		&ir.LoadInstr{Result: loaded, Addr: shared},
		&ir.DeleteSharedInstr{Src: shared},
		&ir.RetInstr{},
	)
	f.RebuildEdges()
	return prog
}

func TestRunLowersWithoutOptionalPasses(t *testing.T) {
	prog := buildSharedProgram()
	tracker := issue.NewTracker()

	ok := Run(prog, nil, Options{}, tracker)

	require.True(t, ok, "issues: %v", tracker.Issues())
	assert.Empty(t, tracker.Issues())

	main := prog.EntryFunc()
	require.NotNil(t, main)
	_, ok = main.Blocks[0].Instrs[0].(*ir.CallInstr)
	assert.True(t, ok, "make_shared should have been lowered to a call")
}

func TestRunWithPromoteAndCollapse(t *testing.T) {
	prog := buildSharedProgram()
	tracker := issue.NewTracker()

	ok := Run(prog, nil, Options{PromoteSharedToUnique: true, CollapseUniqueToLocal: true}, tracker)

	require.True(t, ok, "issues: %v", tracker.Issues())
	assert.Empty(t, tracker.Issues())

	main := prog.EntryFunc()
	require.NotNil(t, main)
	for _, in := range main.Blocks[0].Instrs {
		_, isCall := in.(*ir.CallInstr)
		assert.False(t, isCall, "a confined shared pointer fully collapsed to a local value should need no runtime call")
	}
}

func TestRunRemovesUnusedFunctions(t *testing.T) {
	prog := buildSharedProgram()
	unused := prog.AddFunc(-1, nil)
	prog.SetFuncName(unused, "never_called")
	ub := unused.AddBlock(-1)
	ub.Instrs = append(ub.Instrs, &ir.RetInstr{})
	unused.RebuildEdges()

	tracker := issue.NewTracker()
	ok := Run(prog, nil, Options{RemoveUnusedFunctions: true}, tracker)

	require.True(t, ok, "issues: %v", tracker.Issues())
	for _, f := range prog.Functions {
		assert.NotEqual(t, "never_called", f.Name)
	}
}

func TestRunEmitsStageCallbacksInOrder(t *testing.T) {
	prog := buildSharedProgram()
	tracker := issue.NewTracker()

	var labels []string
	opts := Options{
		PromoteSharedToUnique:  true,
		CollapseUniqueToLocal:  true,
		RemoveUnusedFunctions:  true,
		OnStage: func(label string, p *ir.Program) {
			require.NotNil(t, p)
			labels = append(labels, label)
		},
	}

	ok := Run(prog, nil, opts, tracker)

	require.True(t, ok, "issues: %v", tracker.Issues())
	assert.Equal(t, []string{"init", "ext_optimized", "lowered", "optimized"}, labels)
}

func TestRunStopsAtFirstFailingStage(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddFunc(0, nil) // no entry block: fails the very first check-ext pass

	tracker := issue.NewTracker()
	ok := Run(prog, nil, Options{}, tracker)

	assert.False(t, ok)
	assert.NotEmpty(t, tracker.Issues())
}
