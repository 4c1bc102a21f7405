package lower

import "ssair/internal/ir"

// runtimeFuncs names the eight synthesized shared-pointer runtime-support
// functions of spec.md §4.5.2, as program function numbers.
type runtimeFuncs struct {
	MakeShared           int
	StrongCopyShared     int
	WeakCopyShared       int
	DeleteStrongShared   int
	DeleteWeakShared     int
	DeletePtrToStrong    int
	DeletePtrToWeak      int
	ValidateWeakShared   int
}

// synthesizeRuntime finds or creates the runtime-support functions in prog,
// by name, so a second Lower call over an already-lowered program reuses
// them instead of duplicating (spec.md §4.6's idempotence requirement).
func synthesizeRuntime(prog *ir.Program) runtimeFuncs {
	var rt runtimeFuncs
	rt.MakeShared = findOrBuild(prog, "make_shared", buildMakeShared)
	rt.StrongCopyShared = findOrBuild(prog, "strong_copy_shared", buildStrongCopyShared)
	rt.WeakCopyShared = findOrBuild(prog, "weak_copy_shared", buildWeakCopyShared)
	rt.DeleteStrongShared = findOrBuild(prog, "delete_strong_shared", buildDeleteStrongShared)
	rt.DeleteWeakShared = findOrBuild(prog, "delete_weak_shared", buildDeleteWeakShared)
	rt.DeletePtrToStrong = findOrBuild(prog, "delete_ptr_to_strong_shared", func(p *ir.Program) *ir.Function {
		return buildDeletePtrToShared(p, "delete_ptr_to_strong_shared", rt.DeleteStrongShared)
	})
	rt.DeletePtrToWeak = findOrBuild(prog, "delete_ptr_to_weak_shared", func(p *ir.Program) *ir.Function {
		return buildDeletePtrToShared(p, "delete_ptr_to_weak_shared", rt.DeleteWeakShared)
	})
	rt.ValidateWeakShared = findOrBuild(prog, "validate_weak_shared", buildValidateWeakShared)
	return rt
}

func findOrBuild(prog *ir.Program, name string, build func(*ir.Program) *ir.Function) int {
	if f := findFunc(prog, name); f != nil {
		return f.Num
	}
	return build(prog).Num
}

// buildMakeShared allocates 24+element_size*count bytes and initializes a
// control block: strong=1, weak=0, destructor, returning (cb, underlying).
func buildMakeShared(prog *ir.Program) *ir.Function {
	b := newRuntimeFunc(prog, "make_shared", []ir.Type{ir.Ptr, ir.Ptr})
	elemSize := b.addArg(ir.I64)
	count := b.addArg(ir.I64)
	destructor := b.addArg(ir.Func)

	total := b.val(ir.I64)
	b.emit(&ir.IBinInstr{Result: total, IOp: ir.IntMul, X: elemSize, Y: count})
	totalWithHeader := b.val(ir.I64)
	b.emit(&ir.IBinInstr{Result: totalWithHeader, IOp: ir.IntAdd, X: total, Y: iconst(24, ir.I64)})

	cb := b.val(ir.Ptr)
	b.emit(&ir.MallocInstr{Result: cb, Size: totalWithHeader})
	b.emit(&ir.StoreInstr{Addr: cb, Val: iconst(1, ir.I64)})

	weakAddr := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: weakAddr, Ptr: cb, Offset: iconst(8, ir.I64)})
	b.emit(&ir.StoreInstr{Addr: weakAddr, Val: iconst(0, ir.I64)})

	destrAddr := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: destrAddr, Ptr: cb, Offset: iconst(16, ir.I64)})
	b.emit(&ir.StoreInstr{Addr: destrAddr, Val: destructor})

	underlying := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: underlying, Ptr: cb, Offset: iconst(24, ir.I64)})
	b.emit(&ir.RetInstr{Args: []ir.Value{cb, underlying}})

	return b.finish()
}

// buildStrongCopyShared increments the strong count at cb and returns u+offset.
func buildStrongCopyShared(prog *ir.Program) *ir.Function {
	b := newRuntimeFunc(prog, "strong_copy_shared", []ir.Type{ir.Ptr})
	cb := b.addArg(ir.Ptr)
	u := b.addArg(ir.Ptr)
	offset := b.addArg(ir.I64)

	val := b.val(ir.I64)
	b.emit(&ir.LoadInstr{Result: val, Addr: cb})
	val2 := b.val(ir.I64)
	b.emit(&ir.IBinInstr{Result: val2, IOp: ir.IntAdd, X: val, Y: iconst(1, ir.I64)})
	b.emit(&ir.StoreInstr{Addr: cb, Val: val2})

	result := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: result, Ptr: u, Offset: offset})
	b.emit(&ir.RetInstr{Args: []ir.Value{result}})

	return b.finish()
}

// buildWeakCopyShared increments the weak count at cb+8 and returns u+offset.
func buildWeakCopyShared(prog *ir.Program) *ir.Function {
	b := newRuntimeFunc(prog, "weak_copy_shared", []ir.Type{ir.Ptr})
	cb := b.addArg(ir.Ptr)
	u := b.addArg(ir.Ptr)
	offset := b.addArg(ir.I64)

	weakAddr := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: weakAddr, Ptr: cb, Offset: iconst(8, ir.I64)})
	val := b.val(ir.I64)
	b.emit(&ir.LoadInstr{Result: val, Addr: weakAddr})
	val2 := b.val(ir.I64)
	b.emit(&ir.IBinInstr{Result: val2, IOp: ir.IntAdd, X: val, Y: iconst(1, ir.I64)})
	b.emit(&ir.StoreInstr{Addr: weakAddr, Val: val2})

	result := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: result, Ptr: u, Offset: offset})
	b.emit(&ir.RetInstr{Args: []ir.Value{result}})

	return b.finish()
}

// buildDeleteStrongShared decrements the strong count; on reaching zero it
// invokes the destructor (if any) and frees the block once the weak count is
// also zero.
func buildDeleteStrongShared(prog *ir.Program) *ir.Function {
	b := newRuntimeFunc(prog, "delete_strong_shared", nil)
	cb := b.addArg(ir.Ptr)

	val := b.val(ir.I64)
	b.emit(&ir.LoadInstr{Result: val, Addr: cb})
	val2 := b.val(ir.I64)
	b.emit(&ir.IBinInstr{Result: val2, IOp: ir.IntSub, X: val, Y: iconst(1, ir.I64)})
	b.emit(&ir.StoreInstr{Addr: cb, Val: val2})

	isZero := b.val(ir.Bool)
	b.emit(&ir.ICmpInstr{Result: isZero, COp: ir.CmpEq, X: val2, Y: iconst(0, ir.I64)})

	bZero := b.newBlock()
	bDone := b.newBlock()
	b.emit(&ir.JccInstr{Cond: isZero, TrueTarget: bZero.Num, FalseTarget: bDone.Num})

	bNoDestr := b.newBlock()
	bCallDestr := b.newBlock()
	bCheckWeak := b.newBlock()
	bFree := b.newBlock()

	b.at(bZero)
	destrAddr := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: destrAddr, Ptr: cb, Offset: iconst(16, ir.I64)})
	destr := b.val(ir.Func)
	b.emit(&ir.LoadInstr{Result: destr, Addr: destrAddr})
	isNilDestr := b.val(ir.Bool)
	b.emit(&ir.NilTestInstr{Result: isNilDestr, X: destr})
	b.emit(&ir.JccInstr{Cond: isNilDestr, TrueTarget: bNoDestr.Num, FalseTarget: bCallDestr.Num})

	b.at(bCallDestr)
	payload := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: payload, Ptr: cb, Offset: iconst(24, ir.I64)})
	b.emit(&ir.CallInstr{Callee: destr, Args: []ir.Value{payload}})
	b.emit(&ir.JmpInstr{Target: bCheckWeak.Num})

	b.at(bNoDestr)
	b.emit(&ir.JmpInstr{Target: bCheckWeak.Num})

	b.at(bCheckWeak)
	weakAddr := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: weakAddr, Ptr: cb, Offset: iconst(8, ir.I64)})
	weakVal := b.val(ir.I64)
	b.emit(&ir.LoadInstr{Result: weakVal, Addr: weakAddr})
	weakZero := b.val(ir.Bool)
	b.emit(&ir.ICmpInstr{Result: weakZero, COp: ir.CmpEq, X: weakVal, Y: iconst(0, ir.I64)})
	b.emit(&ir.JccInstr{Cond: weakZero, TrueTarget: bFree.Num, FalseTarget: bDone.Num})

	b.at(bFree)
	b.emit(&ir.FreeInstr{Addr: cb})
	b.emit(&ir.JmpInstr{Target: bDone.Num})

	b.at(bDone)
	b.emit(&ir.RetInstr{})

	return b.finish()
}

// buildDeleteWeakShared decrements the weak count; if it and the strong
// count are both zero, the control block is freed.
func buildDeleteWeakShared(prog *ir.Program) *ir.Function {
	b := newRuntimeFunc(prog, "delete_weak_shared", nil)
	cb := b.addArg(ir.Ptr)

	weakAddr := b.val(ir.Ptr)
	b.emit(&ir.POffInstr{Result: weakAddr, Ptr: cb, Offset: iconst(8, ir.I64)})
	val := b.val(ir.I64)
	b.emit(&ir.LoadInstr{Result: val, Addr: weakAddr})
	val2 := b.val(ir.I64)
	b.emit(&ir.IBinInstr{Result: val2, IOp: ir.IntSub, X: val, Y: iconst(1, ir.I64)})
	b.emit(&ir.StoreInstr{Addr: weakAddr, Val: val2})

	weakZero := b.val(ir.Bool)
	b.emit(&ir.ICmpInstr{Result: weakZero, COp: ir.CmpEq, X: val2, Y: iconst(0, ir.I64)})

	bCheckStrong := b.newBlock()
	bDone := b.newBlock()
	b.emit(&ir.JccInstr{Cond: weakZero, TrueTarget: bCheckStrong.Num, FalseTarget: bDone.Num})

	bFree := b.newBlock()

	b.at(bCheckStrong)
	strongVal := b.val(ir.I64)
	b.emit(&ir.LoadInstr{Result: strongVal, Addr: cb})
	strongZero := b.val(ir.Bool)
	b.emit(&ir.ICmpInstr{Result: strongZero, COp: ir.CmpEq, X: strongVal, Y: iconst(0, ir.I64)})
	b.emit(&ir.JccInstr{Cond: strongZero, TrueTarget: bFree.Num, FalseTarget: bDone.Num})

	b.at(bFree)
	b.emit(&ir.FreeInstr{Addr: cb})
	b.emit(&ir.JmpInstr{Target: bDone.Num})

	b.at(bDone)
	b.emit(&ir.RetInstr{})

	return b.finish()
}

// buildDeletePtrToShared is the destructor stub used when a shared pointer's
// payload is itself a shared pointer: it loads the nested pointer's control
// block from addr and forwards to deleteFuncNum (delete_strong_shared or
// delete_weak_shared).
func buildDeletePtrToShared(prog *ir.Program, name string, deleteFuncNum int) *ir.Function {
	b := newRuntimeFunc(prog, name, nil)
	addr := b.addArg(ir.Ptr)

	cb := b.val(ir.Ptr)
	b.emit(&ir.LoadInstr{Result: cb, Addr: addr})
	b.emit(&ir.CallInstr{Callee: &ir.FuncConst{Num: deleteFuncNum}, Args: []ir.Value{cb}})
	b.emit(&ir.RetInstr{})

	return b.finish()
}

// buildValidateWeakShared traps if cb's strong count is zero, since loading
// or storing through a weak pointer to an already-destroyed payload is
// undefined behavior. Trapping is modeled as an unreachable self-loop block,
// since this IR has no dedicated abort instruction and an interpreter is
// outside its scope.
func buildValidateWeakShared(prog *ir.Program) *ir.Function {
	b := newRuntimeFunc(prog, "validate_weak_shared", nil)
	cb := b.addArg(ir.Ptr)

	strongVal := b.val(ir.I64)
	b.emit(&ir.LoadInstr{Result: strongVal, Addr: cb})
	isZero := b.val(ir.Bool)
	b.emit(&ir.ICmpInstr{Result: isZero, COp: ir.CmpEq, X: strongVal, Y: iconst(0, ir.I64)})

	bTrap := b.newBlock()
	bOk := b.newBlock()
	b.emit(&ir.JccInstr{Cond: isZero, TrueTarget: bTrap.Num, FalseTarget: bOk.Num})

	b.at(bTrap)
	b.emit(&ir.JmpInstr{Target: bTrap.Num})

	b.at(bOk)
	b.emit(&ir.RetInstr{})

	return b.finish()
}
