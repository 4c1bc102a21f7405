package check

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ssair/internal/ir"
	"ssair/internal/issue"
)

func buildExtFunc(t *testing.T, instrs func(f *ir.Function, b *ir.Block)) *ir.Program {
	t.Helper()
	prog := ir.NewProgram()
	f := prog.AddFunc(0, nil)
	b := f.AddBlock(-1)
	instrs(f, b)
	f.RebuildEdges()
	return prog
}

func TestExtCheckerValidSharedAndUniqueUsagePasses(t *testing.T) {
	prog := buildExtFunc(t, func(f *ir.Function, b *ir.Block) {
		sp := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Strong}
		shared := f.NewComputed(-1, sp)
		copied := f.NewComputed(-1, sp)
		up := &ir.UniquePointerType{Elem: ir.I64}
		unique := f.NewComputed(-1, up)
		str := f.AddArg(ir.Str)
		b8 := f.NewComputed(-1, ir.I8)
		cat := f.NewComputed(-1, ir.Str)

		b.Instrs = append(b.Instrs,
			&ir.MakeSharedInstr{Result: shared, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
			&ir.CopySharedInstr{Result: copied, Src: shared},
			&ir.DeleteSharedInstr{Src: copied},
			&ir.MakeUniqueInstr{Result: unique, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
			&ir.DeleteUniqueInstr{Src: unique},
			&ir.StrIndexInstr{Result: b8, Str: str, Idx: &ir.IntConst{Val: 0, Typ: ir.I64}},
			&ir.StrConcatInstr{Result: cat, Parts: []ir.Value{str, str}},
			&ir.RetInstr{},
		)
	})

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Empty(t, tracker.Issues())
}

func TestExtCheckerDetectsMakeSharedResultTypeMismatch(t *testing.T) {
	prog := buildExtFunc(t, func(f *ir.Function, b *ir.Block) {
		bad := f.NewComputed(-1, ir.Ptr) // should be a shared pointer
		b.Instrs = append(b.Instrs,
			&ir.MakeSharedInstr{Result: bad, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
			&ir.RetInstr{},
		)
	})

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindSharedPointerResultTypeMismatch)
}

func TestExtCheckerDetectsCopySharedStrengthMismatch(t *testing.T) {
	prog := buildExtFunc(t, func(f *ir.Function, b *ir.Block) {
		strong := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Strong}
		weak := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Weak}
		src := f.NewComputed(-1, strong)
		dst := f.NewComputed(-1, weak)
		b.Instrs = append(b.Instrs,
			&ir.MakeSharedInstr{Result: src, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
			&ir.CopySharedInstr{Result: dst, Src: src},
			&ir.RetInstr{},
		)
	})

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindSharedPointerStrengthMismatch)
}

func TestExtCheckerDetectsCopySharedElementMismatch(t *testing.T) {
	prog := buildExtFunc(t, func(f *ir.Function, b *ir.Block) {
		i64sp := &ir.SharedPointerType{Elem: ir.I64, Strength: ir.Strong}
		boolsp := &ir.SharedPointerType{Elem: ir.Bool, Strength: ir.Strong}
		src := f.NewComputed(-1, i64sp)
		dst := f.NewComputed(-1, boolsp)
		b.Instrs = append(b.Instrs,
			&ir.MakeSharedInstr{Result: src, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
			&ir.CopySharedInstr{Result: dst, Src: src},
			&ir.RetInstr{},
		)
	})

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindSharedPointerElementTypeMismatch)
}

func TestExtCheckerDetectsMakeUniqueResultTypeMismatch(t *testing.T) {
	prog := buildExtFunc(t, func(f *ir.Function, b *ir.Block) {
		bad := f.NewComputed(-1, ir.Ptr) // should be a unique pointer
		b.Instrs = append(b.Instrs,
			&ir.MakeUniqueInstr{Result: bad, Size: &ir.IntConst{Val: 8, Typ: ir.I64}},
			&ir.RetInstr{},
		)
	})

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindUniquePointerResultTypeMismatch)
}

func TestExtCheckerDetectsStrIndexTypeMismatch(t *testing.T) {
	prog := buildExtFunc(t, func(f *ir.Function, b *ir.Block) {
		notStr := f.NewComputed(-1, ir.I64)
		result := f.NewComputed(-1, ir.U8)
		b.Instrs = append(b.Instrs,
			&ir.MovInstr{Result: notStr, Src: &ir.IntConst{Val: 0, Typ: ir.I64}},
			&ir.StrIndexInstr{Result: result, Str: notStr, Idx: &ir.IntConst{Val: 0, Typ: ir.I64}},
			&ir.RetInstr{},
		)
	})

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindStringIndexTypeMismatch)
}

func TestExtCheckerDetectsStrConcatTypeMismatch(t *testing.T) {
	prog := buildExtFunc(t, func(f *ir.Function, b *ir.Block) {
		result := f.NewComputed(-1, ir.Str)
		b.Instrs = append(b.Instrs,
			&ir.StrConcatInstr{Result: result, Parts: []ir.Value{&ir.IntConst{Val: 1, Typ: ir.I64}}},
			&ir.RetInstr{},
		)
	})

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindStringConcatTypeMismatch)
}

func TestExtCheckerStillRunsBaseChecks(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddFunc(0, nil) // no entry block

	tracker := issue.NewTracker()
	NewExt(tracker, nil).Check(prog)
	assert.Contains(t, kindsOf(tracker), issue.KindFuncHasNoEntryBlock)
}
