package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssair/internal/ir"
	"ssair/internal/issue"
)

// buildDiamond constructs a function with a four-block diamond CFG:
//
//	b0 -> b1, b2
//	b1, b2 -> b3 (phi)
//
// b0 takes one i64 arg, compares it against zero, and each branch produces
// a distinct i64 constant that b3 merges through a phi before returning it.
func buildDiamond(t *testing.T) (*ir.Program, *ir.Function) {
	t.Helper()
	prog := ir.NewProgram()
	f := prog.AddFunc(0, []ir.Type{ir.I64})
	arg := f.AddArg(ir.I64)

	b0 := f.AddBlock(-1)
	b1 := f.AddBlock(-1)
	b2 := f.AddBlock(-1)
	b3 := f.AddBlock(-1)

	cond := f.NewComputed(-1, ir.Bool)
	b0.Instrs = append(b0.Instrs,
		&ir.ICmpInstr{Result: cond, COp: ir.CmpEq, X: arg, Y: &ir.IntConst{Val: 0, Typ: ir.I64}},
		&ir.JccInstr{Cond: cond, TrueTarget: b1.Num, FalseTarget: b2.Num},
	)

	left := f.NewComputed(-1, ir.I64)
	b1.Instrs = append(b1.Instrs,
		&ir.MovInstr{Result: left, Src: &ir.IntConst{Val: 1, Typ: ir.I64}},
		&ir.JmpInstr{Target: b3.Num},
	)

	right := f.NewComputed(-1, ir.I64)
	b2.Instrs = append(b2.Instrs,
		&ir.MovInstr{Result: right, Src: &ir.IntConst{Val: 2, Typ: ir.I64}},
		&ir.JmpInstr{Target: b3.Num},
	)

	merged := f.NewComputed(-1, ir.I64)
	b3.Instrs = append(b3.Instrs,
		&ir.PhiInstr{Result: merged, Args: []*ir.Inherited{
			{Value: left, Block: b1.Num},
			{Value: right, Block: b2.Num},
		}},
		&ir.RetInstr{Args: []ir.Value{merged}},
	)

	f.RebuildEdges()
	return prog, f
}

func kindsOf(tracker *issue.Tracker) []issue.Kind {
	var kinds []issue.Kind
	for _, is := range tracker.Issues() {
		kinds = append(kinds, is.Kind)
	}
	return kinds
}

func TestCheckerValidDiamondPasses(t *testing.T) {
	prog, _ := buildDiamond(t)
	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Empty(t, tracker.Issues())
	assert.False(t, tracker.HasErrors())
}

func TestCheckerDetectsMissingEntryBlock(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddFunc(0, nil)

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	require.Contains(t, kindsOf(tracker), issue.KindFuncHasNoEntryBlock)
}

func TestCheckerDetectsEntryBlockWithParents(t *testing.T) {
	prog, f := buildDiamond(t)
	b0 := f.Blocks[0]
	b0.Parents = append(b0.Parents, f.Blocks[1].Num)

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindEntryBlockHasParents)
}

func TestCheckerDetectsNonEntryBlockWithNoParents(t *testing.T) {
	prog, f := buildDiamond(t)
	f.Blocks[1].Parents = nil

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindNonEntryBlockHasNoParents)
}

func TestCheckerDetectsEmptyBlock(t *testing.T) {
	prog, f := buildDiamond(t)
	f.Blocks[1].Instrs = nil

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindBlockIsEmpty)
}

func TestCheckerDetectsControlFlowMissingAtEnd(t *testing.T) {
	prog, f := buildDiamond(t)
	b1 := f.Blocks[1]
	b1.Instrs = b1.Instrs[:len(b1.Instrs)-1]

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindControlFlowMissingAtEnd)
}

func TestCheckerDetectsControlFlowBeforeEnd(t *testing.T) {
	prog, f := buildDiamond(t)
	b1 := f.Blocks[1]
	jmp := b1.Instrs[len(b1.Instrs)-1]
	b1.Instrs = append(b1.Instrs[:len(b1.Instrs)-1], jmp, jmp)

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindControlFlowBeforeEnd)
}

func TestCheckerDetectsPhiWithoutMultipleParents(t *testing.T) {
	prog, f := buildDiamond(t)
	b3 := f.Blocks[3]
	b3.Parents = b3.Parents[:1]

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindPhiInBlockWithoutMultipleParents)
}

func TestCheckerDetectsPhiAfterNonPhiInstruction(t *testing.T) {
	prog, f := buildDiamond(t)
	b3 := f.Blocks[3]
	phi := b3.Instrs[0]
	ret := b3.Instrs[1]
	b3.Instrs = []ir.Instr{ret, phi}

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindPhiAfterNonPhiInstruction)
}

func TestCheckerDetectsNonPhiUsesInheritedValue(t *testing.T) {
	prog, f := buildDiamond(t)
	b3 := f.Blocks[3]
	ret := b3.Instrs[1].(*ir.RetInstr)
	merged := ret.Args[0].(*ir.Computed)
	ret.Args[0] = &ir.Inherited{Value: merged, Block: f.Blocks[1].Num}

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindNonPhiUsesInheritedValue)
}

func TestCheckerDetectsValueHasNoDefinition(t *testing.T) {
	prog, f := buildDiamond(t)
	b3 := f.Blocks[3]
	ret := b3.Instrs[1].(*ir.RetInstr)
	stray := &ir.Computed{Num: 999, Typ: ir.I64}
	ret.Args[0] = stray

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindValueHasNoDefinition)
}

func TestCheckerDetectsDefinitionDoesNotDominateUse(t *testing.T) {
	prog, f := buildDiamond(t)
	// b1 and b2 are siblings: using b1's value from b2 must fail, since
	// neither dominates the other.
	left := f.Blocks[1].Instrs[0].(*ir.MovInstr).Result
	b2 := f.Blocks[2]
	mov := b2.Instrs[0].(*ir.MovInstr)
	mov.Src = left

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindDefinitionDoesNotDominateUse)
}

func TestCheckerAllowsArgumentUseEverywhere(t *testing.T) {
	prog, f := buildDiamond(t)
	arg := f.Args[0]
	b3 := f.Blocks[3]
	ret := b3.Instrs[1].(*ir.RetInstr)
	ret.Args[0] = arg
	f.Results = []ir.Type{ir.I64}

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.NotContains(t, kindsOf(tracker), issue.KindDefinitionDoesNotDominateUse)
}

func TestCheckerDetectsJumpDestinationNotAChild(t *testing.T) {
	prog, f := buildDiamond(t)
	b1 := f.Blocks[1]
	jmp := b1.Instrs[len(b1.Instrs)-1].(*ir.JmpInstr)
	jmp.Target = 12345

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindJumpDestinationNotAChild)
}

func TestCheckerDetectsJumpCondDuplicateDestinations(t *testing.T) {
	prog, f := buildDiamond(t)
	b0 := f.Blocks[0]
	jcc := b0.Instrs[len(b0.Instrs)-1].(*ir.JccInstr)
	jcc.FalseTarget = jcc.TrueTarget

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindJumpCondDuplicateDestinations)
}

func TestCheckerDetectsReturnSignatureMismatch(t *testing.T) {
	prog, f := buildDiamond(t)
	f.Results = []ir.Type{ir.I64, ir.I64}

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindReturnSignatureMismatch)
}

func TestCheckerDetectsOperandTypeMismatch(t *testing.T) {
	prog, f := buildDiamond(t)
	b1 := f.Blocks[1]
	mov := b1.Instrs[0].(*ir.MovInstr)
	mov.Result.Typ = ir.Bool

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindOperandOrResultTypeMismatch)
}

func TestCheckerDetectsCallSignatureMismatch(t *testing.T) {
	prog := ir.NewProgram()
	callee := prog.AddFunc(1, []ir.Type{ir.I64})
	callee.AddArg(ir.I64)
	cb := callee.AddBlock(-1)
	cb.Instrs = append(cb.Instrs, &ir.RetInstr{Args: []ir.Value{callee.Args[0]}})
	callee.RebuildEdges()

	caller := prog.AddFunc(0, []ir.Type{ir.I64})
	b0 := caller.AddBlock(-1)
	result := caller.NewComputed(-1, ir.I64)
	b0.Instrs = append(b0.Instrs,
		&ir.CallInstr{
			Results: []*ir.Computed{result},
			Callee:  &ir.FuncConst{Num: 1},
			Args:    []ir.Value{&ir.BoolConst{Val: true}}, // wrong type, expects i64
		},
		&ir.RetInstr{Args: []ir.Value{result}},
	)
	caller.RebuildEdges()

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindCallSignatureMismatch)
}

func TestCheckerDetectsLoadThroughSharedPointerElementMismatch(t *testing.T) {
	prog := ir.NewProgram()
	f := prog.AddFunc(0, []ir.Type{ir.I64})
	b0 := f.AddBlock(-1)
	sp := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Strong}
	addr := f.NewComputed(-1, sp)
	loaded := f.NewComputed(-1, ir.Bool) // should be i64, not bool
	b0.Instrs = append(b0.Instrs,
		&ir.MakeSharedInstr{Result: addr, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
		&ir.LoadInstr{Result: loaded, Addr: addr},
		&ir.RetInstr{Args: []ir.Value{&ir.IntConst{Val: 0, Typ: ir.I64}}},
	)
	f.RebuildEdges()

	tracker := issue.NewTracker()
	New(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindSharedPointerElementTypeMismatch)
}
