package check

import (
	"ssair/internal/ir"
	"ssair/internal/issue"
)

// checkInstrTypes implements invariants 9, 10, and 11 of spec.md §3.5: the
// per-opcode operand/result type table, call-signature matching against a
// statically known callee, and the shared/unique-pointer load/store
// element-type rule. Extension-instruction-specific checks (make_shared,
// copy_shared, ...) live in ext.go; this only covers the 20 core kinds plus
// the load/store pointer-element rule, since that rule applies regardless
// of which pointer kind the address has. Every per-opcode mismatch reports
// through the single KindOperandOrResultTypeMismatch kind, per spec.md
// §4.4's "one kind per instruction form" read as one shared kind carrying an
// op-specific message, since the checker's Kind enumeration reserves only
// one constant for this concern.
func (c *Checker) checkInstrTypes(fs *funcState, bi, ii int, in ir.Instr) {
	rng := c.instrRange(fs.fi, bi, ii)
	mismatch := func(format string, args ...any) {
		c.report(issue.KindOperandOrResultTypeMismatch, rng, format, args...)
	}

	switch v := in.(type) {
	case *ir.MovInstr:
		if ok(v.Result) && ok2(v.Src) && !ir.Identical(v.Result.Typ, v.Src.Type()) {
			mismatch("mov result type %s does not match source type %s", v.Result.Typ, v.Src.Type())
		}
	case *ir.ConvInstr:
		if ok(v.Result) && !isConvertibleKind(v.Result.Typ) {
			mismatch("conv result type %s is not bool/int/pointer/func", v.Result.Typ)
		}
		if ok2(v.Src) && !isConvertibleKind(v.Src.Type()) {
			mismatch("conv source type %s is not bool/int/pointer/func", v.Src.Type())
		}
	case *ir.BNotInstr:
		if ok(v.Result) && !ir.Identical(v.Result.Typ, ir.Bool) {
			mismatch("bnot result type %s is not bool", v.Result.Typ)
		}
		if ok2(v.Src) && !ir.Identical(v.Src.Type(), ir.Bool) {
			mismatch("bnot operand type %s is not bool", v.Src.Type())
		}
	case *ir.BBinInstr:
		if ok(v.Result) && !ir.Identical(v.Result.Typ, ir.Bool) {
			mismatch("bbin.%s result type %s is not bool", v.BOp, v.Result.Typ)
		}
		checkBothBool(mismatch, "bbin."+v.BOp.String(), v.X, v.Y)
	case *ir.IUnaryInstr:
		checkSameIntType(mismatch, "iunary."+v.IOp.String(), resultType(v.Result), v.X.Type())
	case *ir.ICmpInstr:
		if ok(v.Result) && !ir.Identical(v.Result.Typ, ir.Bool) {
			mismatch("icmp.%s result type %s is not bool", v.COp, v.Result.Typ)
		}
		checkSameIntType(mismatch, "icmp."+v.COp.String(), v.X.Type(), v.Y.Type())
	case *ir.IBinInstr:
		checkSameIntType(mismatch, "ibin."+v.IOp.String(), resultType(v.Result), v.X.Type())
		checkSameIntType(mismatch, "ibin."+v.IOp.String(), resultType(v.Result), v.Y.Type())
	case *ir.IShiftInstr:
		if ok(v.Result) && !isIntKind(v.Result.Typ) {
			mismatch("ishift.%s result type %s is not an integer type", v.SOp, v.Result.Typ)
		}
		if ok2(v.X) && ok(v.Result) && !ir.Identical(v.X.Type(), v.Result.Typ) {
			mismatch("ishift.%s shifted operand type %s does not match result type %s", v.SOp, v.X.Type(), v.Result.Typ)
		}
		if ok2(v.Offset) && !isIntKind(v.Offset.Type()) {
			mismatch("ishift.%s offset type %s is not an integer type", v.SOp, v.Offset.Type())
		}
	case *ir.POffInstr:
		if ok(v.Result) && !ir.Identical(v.Result.Typ, ir.Ptr) {
			mismatch("poff result type %s is not ptr", v.Result.Typ)
		}
		if ok2(v.Ptr) && !ir.Identical(v.Ptr.Type(), ir.Ptr) {
			mismatch("poff base operand type %s is not ptr", v.Ptr.Type())
		}
		if ok2(v.Offset) && !ir.Identical(v.Offset.Type(), ir.I64) {
			mismatch("poff offset type %s is not i64", v.Offset.Type())
		}
	case *ir.NilTestInstr:
		if ok(v.Result) && !ir.Identical(v.Result.Typ, ir.Bool) {
			mismatch("niltest result type %s is not bool", v.Result.Typ)
		}
		if ok2(v.X) && !isPtrOrFuncKind(v.X.Type()) {
			mismatch("niltest operand type %s is not a pointer or function reference", v.X.Type())
		}
	case *ir.MallocInstr:
		if ok(v.Result) && !ir.Identical(v.Result.Typ, ir.Ptr) {
			mismatch("malloc result type %s is not ptr", v.Result.Typ)
		}
		if ok2(v.Size) && !ir.Identical(v.Size.Type(), ir.I64) {
			mismatch("malloc size type %s is not i64", v.Size.Type())
		}
	case *ir.LoadInstr:
		c.checkPointerElement(fs, bi, ii, v.Addr, resultType(v.Result), "load")
	case *ir.StoreInstr:
		c.checkPointerElement(fs, bi, ii, v.Addr, v.Val.Type(), "store")
	case *ir.FreeInstr:
		if ok2(v.Addr) && !ir.Identical(v.Addr.Type(), ir.Ptr) {
			mismatch("free operand type %s is not ptr", v.Addr.Type())
		}
	case *ir.JccInstr:
		if ok2(v.Cond) && !ir.Identical(v.Cond.Type(), ir.Bool) {
			mismatch("jcc condition type %s is not bool", v.Cond.Type())
		}
	case *ir.SyscallInstr:
		if ok(v.Result) && !ir.Identical(v.Result.Typ, ir.I64) {
			mismatch("syscall result type %s is not i64", v.Result.Typ)
		}
		if ok2(v.Num) && !ir.Identical(v.Num.Type(), ir.I64) {
			mismatch("syscall number type %s is not i64", v.Num.Type())
		}
		for i, a := range v.Args {
			if ok2(a) && !ir.Identical(a.Type(), ir.I64) {
				mismatch("syscall argument %d has type %s, not i64", i, a.Type())
			}
		}
	case *ir.CallInstr:
		if ok2(v.Callee) && v.Callee.Type().Kind() != ir.KindFunc {
			c.report(issue.KindCallCalleeTypeMismatch, rng, "call callee has type %s, not func", v.Callee.Type())
		}
		c.checkCall(fs, bi, ii, v)
	}
}

func resultType(v *ir.Computed) ir.Type {
	if v == nil {
		return nil
	}
	return v.Typ
}

func ok(v *ir.Computed) bool { return v != nil && v.Typ != nil }
func ok2(v ir.Value) bool    { return v != nil && v.Type() != nil }

func isIntKind(t ir.Type) bool {
	_, isInt := t.(*ir.IntType)
	return isInt
}

func isConvertibleKind(t ir.Type) bool {
	switch t.Kind() {
	case ir.KindBool, ir.KindInt, ir.KindPointer, ir.KindFunc:
		return true
	default:
		return false
	}
}

func isPtrOrFuncKind(t ir.Type) bool {
	switch t.Kind() {
	case ir.KindPointer, ir.KindFunc, ir.KindSharedPointer, ir.KindUniquePointer:
		return true
	default:
		return false
	}
}

func checkBothBool(mismatch func(string, ...any), opName string, x, y ir.Value) {
	if ok2(x) && !ir.Identical(x.Type(), ir.Bool) {
		mismatch("%s left operand type %s is not bool", opName, x.Type())
	}
	if ok2(y) && !ir.Identical(y.Type(), ir.Bool) {
		mismatch("%s right operand type %s is not bool", opName, y.Type())
	}
}

func checkSameIntType(mismatch func(string, ...any), opName string, want ir.Type, got ir.Type) {
	if want == nil || got == nil {
		return
	}
	if !isIntKind(want) {
		mismatch("%s result type %s is not an integer type", opName, want)
		return
	}
	if !isIntKind(got) {
		mismatch("%s operand type %s is not an integer type", opName, got)
		return
	}
	if !ir.Identical(want, got) {
		mismatch("%s operand type %s does not match result type %s", opName, got, want)
	}
}

// checkPointerElement implements invariant 11: a load/store whose address is
// a shared or unique pointer requires the loaded/stored value's type to
// match the pointer's element type. A raw (untyped) ptr imposes no such
// constraint.
func (c *Checker) checkPointerElement(fs *funcState, bi, ii int, addr ir.Value, valueType ir.Type, opName string) {
	if !ok2(addr) {
		return
	}
	rng := c.instrRange(fs.fi, bi, ii)
	switch at := addr.Type().(type) {
	case *ir.SharedPointerType:
		if valueType != nil && !ir.Identical(valueType, at.Elem) {
			c.report(issue.KindSharedPointerElementTypeMismatch, rng, "%s through shared pointer element %s does not match value type %s", opName, at.Elem, valueType)
		}
	case *ir.UniquePointerType:
		if valueType != nil && !ir.Identical(valueType, at.Elem) {
			c.report(issue.KindUniquePointerElementTypeMismatch, rng, "%s through unique pointer element %s does not match value type %s", opName, at.Elem, valueType)
		}
	default:
		if addr.Type().Kind() != ir.KindPointer {
			c.report(issue.KindOperandOrResultTypeMismatch, rng, "%s address type %s is not a pointer", opName, addr.Type())
		}
	}
}

// checkCall implements invariant 10: when the callee is a statically known
// function reference, arity and types of both arguments and results must
// match the callee's declared signature.
func (c *Checker) checkCall(fs *funcState, bi, ii int, v *ir.CallInstr) {
	fc, isConst := v.Callee.(*ir.FuncConst)
	if !isConst || fc.Num < 0 {
		return
	}
	rng := c.instrRange(fs.fi, bi, ii)
	callee := fs.prog.FuncByNum(fc.Num)
	if callee == nil {
		c.report(issue.KindCallCalleeTypeMismatch, rng, "call references unknown function @%d", fc.Num)
		return
	}
	if len(v.Args) != len(callee.Args) {
		c.report(issue.KindCallSignatureMismatch, rng, "call to @%d passes %d argument(s), expects %d", fc.Num, len(v.Args), len(callee.Args))
	} else {
		for i, a := range v.Args {
			if ok2(a) && callee.Args[i].Typ != nil && !ir.Identical(a.Type(), callee.Args[i].Typ) {
				c.report(issue.KindCallSignatureMismatch, rng, "call to @%d argument %d has type %s, expects %s", fc.Num, i, a.Type(), callee.Args[i].Typ)
			}
		}
	}
	if len(v.Results) != len(callee.Results) {
		c.report(issue.KindCallSignatureMismatch, rng, "call to @%d produces %d result(s), callee returns %d", fc.Num, len(v.Results), len(callee.Results))
		return
	}
	for i, r := range v.Results {
		if ok(r) && callee.Results[i] != nil && !ir.Identical(r.Typ, callee.Results[i]) {
			c.report(issue.KindCallSignatureMismatch, rng, "call to @%d result %d has type %s, expects %s", fc.Num, i, r.Typ, callee.Results[i])
		}
	}
}
