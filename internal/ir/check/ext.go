package check

import (
	"ssair/internal/ir"
	"ssair/internal/ir/serialize"
	"ssair/internal/issue"
)

// ExtChecker is the extensible derived checker of spec.md §4.4: it runs
// every base invariant via the embedded Checker, then makes one further
// pass dispatching only on the seven extension opcodes, without touching
// Checker's dispatch at all. A consumer that only cares about the core
// instruction set uses Checker directly; one that also emits/consumes
// extension instructions uses ExtChecker.
type ExtChecker struct {
	*Checker
}

// NewExt creates an ExtChecker reporting into tracker, using pos (which may
// be nil) for diagnostic ranges.
func NewExt(tracker *issue.Tracker, pos *serialize.ProgramPositions) *ExtChecker {
	return &ExtChecker{Checker: New(tracker, pos)}
}

// Check runs the base checks and then the extension-instruction checks.
func (c *ExtChecker) Check(prog *ir.Program) {
	c.Checker.Check(prog)
	for fi, f := range prog.Functions {
		for bi, b := range f.Blocks {
			for ii, in := range b.Instrs {
				c.checkExtInstr(fi, bi, ii, in)
			}
		}
	}
}

func (c *ExtChecker) checkExtInstr(fi, bi, ii int, in ir.Instr) {
	rng := c.instrRange(fi, bi, ii)
	report := func(kind issue.Kind, format string, args ...any) {
		c.report(kind, rng, format, args...)
	}

	switch v := in.(type) {
	case *ir.MakeSharedInstr:
		if v.Result != nil && v.Result.Typ != nil {
			if _, isShared := v.Result.Typ.(*ir.SharedPointerType); !isShared {
				report(issue.KindSharedPointerResultTypeMismatch, "make_shared result type %s is not a shared pointer", v.Result.Typ)
			}
		}
		if v.Size != nil && v.Size.Type() != nil && !ir.Identical(v.Size.Type(), ir.I64) {
			report(issue.KindOperandOrResultTypeMismatch, "make_shared size type %s is not i64", v.Size.Type())
		}

	case *ir.CopySharedInstr:
		resultPtr, resultIsShared := sharedPointerTypeOf(v.Result)
		srcPtr, srcIsShared := sharedPointerTypeOf(v.Src)
		if v.Result != nil && v.Result.Typ != nil && !resultIsShared {
			report(issue.KindSharedPointerResultTypeMismatch, "copy_shared result type %s is not a shared pointer", v.Result.Typ)
		}
		if v.Src != nil && v.Src.Type() != nil && !srcIsShared {
			report(issue.KindSharedPointerResultTypeMismatch, "copy_shared source type %s is not a shared pointer", v.Src.Type())
		}
		if resultIsShared && srcIsShared {
			if !ir.Identical(resultPtr.Elem, srcPtr.Elem) {
				report(issue.KindSharedPointerElementTypeMismatch, "copy_shared result element %s does not match source element %s", resultPtr.Elem, srcPtr.Elem)
			}
			if resultPtr.Strength != srcPtr.Strength {
				report(issue.KindSharedPointerStrengthMismatch, "copy_shared result strength %s does not match source strength %s", resultPtr.Strength, srcPtr.Strength)
			}
		}

	case *ir.DeleteSharedInstr:
		if v.Src != nil && v.Src.Type() != nil {
			if _, isShared := v.Src.Type().(*ir.SharedPointerType); !isShared {
				report(issue.KindSharedPointerResultTypeMismatch, "delete_shared operand type %s is not a shared pointer", v.Src.Type())
			}
		}

	case *ir.MakeUniqueInstr:
		if v.Result != nil && v.Result.Typ != nil {
			if _, isUnique := v.Result.Typ.(*ir.UniquePointerType); !isUnique {
				report(issue.KindUniquePointerResultTypeMismatch, "make_unique result type %s is not a unique pointer", v.Result.Typ)
			}
		}
		if v.Size != nil && v.Size.Type() != nil && !ir.Identical(v.Size.Type(), ir.I64) {
			report(issue.KindOperandOrResultTypeMismatch, "make_unique size type %s is not i64", v.Size.Type())
		}

	case *ir.DeleteUniqueInstr:
		if v.Src != nil && v.Src.Type() != nil {
			if _, isUnique := v.Src.Type().(*ir.UniquePointerType); !isUnique {
				report(issue.KindUniquePointerResultTypeMismatch, "delete_unique operand type %s is not a unique pointer", v.Src.Type())
			}
		}

	case *ir.StrIndexInstr:
		if v.Str != nil && v.Str.Type() != nil && !ir.Identical(v.Str.Type(), ir.Str) {
			report(issue.KindStringIndexTypeMismatch, "str_index source type %s is not a string", v.Str.Type())
		}
		if v.Idx != nil && v.Idx.Type() != nil && !ir.Identical(v.Idx.Type(), ir.I64) {
			report(issue.KindStringIndexTypeMismatch, "str_index index type %s is not i64", v.Idx.Type())
		}
		if v.Result != nil && v.Result.Typ != nil && !ir.Identical(v.Result.Typ, ir.I8) {
			report(issue.KindStringIndexTypeMismatch, "str_index result type %s is not i8", v.Result.Typ)
		}

	case *ir.StrConcatInstr:
		if v.Result != nil && v.Result.Typ != nil && !ir.Identical(v.Result.Typ, ir.Str) {
			report(issue.KindStringConcatTypeMismatch, "str_concat result type %s is not a string", v.Result.Typ)
		}
		for i, p := range v.Parts {
			if p != nil && p.Type() != nil && !ir.Identical(p.Type(), ir.Str) {
				report(issue.KindStringConcatTypeMismatch, "str_concat part %d has type %s, not a string", i, p.Type())
			}
		}
	}
}

func sharedPointerTypeOf(v interface{ Type() ir.Type }) (*ir.SharedPointerType, bool) {
	if v == nil {
		return nil, false
	}
	t := v.Type()
	if t == nil {
		return nil, false
	}
	sp, ok := t.(*ir.SharedPointerType)
	return sp, ok
}
