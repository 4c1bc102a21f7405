package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssair/internal/ir"
	"ssair/internal/ir/check"
	"ssair/internal/issue"
)

func runtimeFuncNamesList() []string {
	names := make([]string, 0, len(runtimeFuncNames))
	for n := range runtimeFuncNames {
		names = append(names, n)
	}
	return names
}

func checkClean(t *testing.T, prog *ir.Program) {
	t.Helper()
	tracker := issue.NewTracker()
	check.New(tracker, nil).Check(prog)
	assert.Empty(t, tracker.Issues(), "expected no checker issues after lowering")
}

func TestLowerSynthesizesAllRuntimeFunctions(t *testing.T) {
	prog := ir.NewProgram()
	Lower(prog)

	for _, name := range runtimeFuncNamesList() {
		assert.NotNil(t, findFunc(prog, name), "missing synthesized function %s", name)
	}
	checkClean(t, prog)
}

func TestLowerIsIdempotent(t *testing.T) {
	prog := ir.NewProgram()
	Lower(prog)
	firstCount := len(prog.Functions)

	Lower(prog)
	assert.Equal(t, firstCount, len(prog.Functions), "second Lower call should not duplicate runtime functions")
}

// buildStrongSharedFunc builds a function that allocates a strong shared
// i64, loads it, and deletes it:
//
//	b0:
//	  %0 = make_shared 8
//	  %1 = load %0
//	  delete_shared %0
//	  ret
func buildStrongSharedFunc(prog *ir.Program) (*ir.Function, *ir.Computed) {
	f := prog.AddFunc(-1, nil)
	b0 := f.AddBlock(-1)
	sp := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Strong}
	shared := f.NewComputed(-1, sp)
	loaded := f.NewComputed(-1, ir.I64)
	b0.Instrs = append(b0.Instrs,
		&ir.MakeSharedInstr{Result: shared, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
		&ir.LoadInstr{Result: loaded, Addr: shared},
		&ir.DeleteSharedInstr{Src: shared},
		&ir.RetInstr{},
	)
	f.RebuildEdges()
	return f, loaded
}

func TestLowerSharedPointerMakeLoadDelete(t *testing.T) {
	prog := ir.NewProgram()
	f, loaded := buildStrongSharedFunc(prog)

	Lower(prog)

	require.Len(t, f.Blocks, 1)
	instrs := f.Blocks[0].Instrs
	require.Len(t, instrs, 4)

	makeCall, ok := instrs[0].(*ir.CallInstr)
	require.True(t, ok, "make_shared should lower to a call")
	require.Len(t, makeCall.Results, 2)
	assert.Equal(t, ir.Ptr, makeCall.Results[0].Typ)
	assert.Equal(t, ir.Ptr, makeCall.Results[1].Typ)
	makeCallee, ok := makeCall.Callee.(*ir.FuncConst)
	require.True(t, ok)
	assert.Equal(t, "make_shared", prog.FuncByNum(makeCallee.Num).Name)

	load, ok := instrs[1].(*ir.LoadInstr)
	require.True(t, ok, "load through a shared pointer should lower to a primitive load")
	assert.Same(t, loaded, load.Result)
	assert.Same(t, makeCall.Results[1], load.Addr, "load should read the underlying pointer, not the control block")

	deleteCall, ok := instrs[2].(*ir.CallInstr)
	require.True(t, ok, "delete_shared should lower to a call")
	deleteCallee, ok := deleteCall.Callee.(*ir.FuncConst)
	require.True(t, ok)
	assert.Equal(t, "delete_strong_shared", prog.FuncByNum(deleteCallee.Num).Name)
	require.Len(t, deleteCall.Args, 1)
	assert.Same(t, makeCall.Results[0], deleteCall.Args[0], "delete should operate on the control block")

	_, ok = instrs[3].(*ir.RetInstr)
	assert.True(t, ok)

	checkClean(t, prog)
}

func TestLowerWeakLoadValidatesFirst(t *testing.T) {
	prog := ir.NewProgram()
	f := prog.AddFunc(-1, nil)
	b0 := f.AddBlock(-1)
	sp := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Weak}
	weak := f.NewComputed(-1, sp)
	loaded := f.NewComputed(-1, ir.I64)
	b0.Instrs = append(b0.Instrs,
		&ir.MakeSharedInstr{Result: weak, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
		&ir.LoadInstr{Result: loaded, Addr: weak},
		&ir.RetInstr{},
	)
	f.RebuildEdges()

	Lower(prog)

	instrs := f.Blocks[0].Instrs
	require.Len(t, instrs, 4) // make_shared call, validate call, load, ret
	validateCall, ok := instrs[1].(*ir.CallInstr)
	require.True(t, ok)
	callee := validateCall.Callee.(*ir.FuncConst)
	assert.Equal(t, "validate_weak_shared", prog.FuncByNum(callee.Num).Name)

	checkClean(t, prog)
}

func TestLowerUniquePointerMakeStoreLoadDelete(t *testing.T) {
	prog := ir.NewProgram()
	f := prog.AddFunc(-1, nil)
	b0 := f.AddBlock(-1)
	up := &ir.UniquePointerType{Elem: ir.I64}
	uptr := f.NewComputed(-1, up)
	loaded := f.NewComputed(-1, ir.I64)
	b0.Instrs = append(b0.Instrs,
		&ir.MakeUniqueInstr{Result: uptr, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
		&ir.StoreInstr{Addr: uptr, Val: &ir.IntConst{Val: 42, Typ: ir.I64}},
		&ir.LoadInstr{Result: loaded, Addr: uptr},
		&ir.DeleteUniqueInstr{Src: uptr},
		&ir.RetInstr{},
	)
	f.RebuildEdges()

	Lower(prog)

	instrs := f.Blocks[0].Instrs
	require.Len(t, instrs, 5)
	_, ok := instrs[0].(*ir.MallocInstr)
	assert.True(t, ok, "make_unique should lower to malloc")
	assert.Equal(t, ir.Ptr, uptr.Typ)
	_, ok = instrs[1].(*ir.StoreInstr)
	assert.True(t, ok)
	_, ok = instrs[2].(*ir.LoadInstr)
	assert.True(t, ok)
	_, ok = instrs[3].(*ir.FreeInstr)
	assert.True(t, ok, "delete_unique should lower to free")

	checkClean(t, prog)
}

func TestLowerSharedPhiTwoPass(t *testing.T) {
	// b0 -> b1, b2; b1, b2 -> b3 (phi of a shared pointer, loaded in b3).
	prog := ir.NewProgram()
	f := prog.AddFunc(-1, []ir.Type{ir.I64})
	arg := f.AddArg(ir.I64)
	sp := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Strong}

	b0 := f.AddBlock(-1)
	b1 := f.AddBlock(-1)
	b2 := f.AddBlock(-1)
	b3 := f.AddBlock(-1)

	cond := f.NewComputed(-1, ir.Bool)
	b0.Instrs = append(b0.Instrs,
		&ir.ICmpInstr{Result: cond, COp: ir.CmpEq, X: arg, Y: &ir.IntConst{Val: 0, Typ: ir.I64}},
		&ir.JccInstr{Cond: cond, TrueTarget: b1.Num, FalseTarget: b2.Num},
	)

	left := f.NewComputed(-1, sp)
	b1.Instrs = append(b1.Instrs,
		&ir.MakeSharedInstr{Result: left, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
		&ir.JmpInstr{Target: b3.Num},
	)

	right := f.NewComputed(-1, sp)
	b2.Instrs = append(b2.Instrs,
		&ir.MakeSharedInstr{Result: right, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
		&ir.JmpInstr{Target: b3.Num},
	)

	merged := f.NewComputed(-1, sp)
	loaded := f.NewComputed(-1, ir.I64)
	b3.Instrs = append(b3.Instrs,
		&ir.PhiInstr{Result: merged, Args: []*ir.Inherited{
			{Value: left, Block: b1.Num},
			{Value: right, Block: b2.Num},
		}},
		&ir.LoadInstr{Result: loaded, Addr: merged},
		&ir.RetInstr{Args: []ir.Value{loaded}},
	)
	f.RebuildEdges()

	Lower(prog)

	require.Len(t, b3.Instrs, 4) // cb phi, underlying phi, load, ret
	cbPhi, ok := b3.Instrs[0].(*ir.PhiInstr)
	require.True(t, ok)
	uPhi, ok := b3.Instrs[1].(*ir.PhiInstr)
	require.True(t, ok)
	require.Len(t, cbPhi.Args, 2)
	require.Len(t, uPhi.Args, 2)

	load, ok := b3.Instrs[2].(*ir.LoadInstr)
	require.True(t, ok)
	assert.Same(t, uPhi.Result, load.Addr)

	checkClean(t, prog)
}
