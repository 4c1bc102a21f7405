package lower

import "ssair/internal/ir"

// decomp is a shared pointer's lowered form: a control-block pointer and an
// underlying (payload) pointer, per spec.md §4.5.1.
type decomp struct {
	cb, u ir.Value
}

// pendingPhi records a shared-pointer phi replaced by a (cb, underlying)
// phi pair whose arguments can only be filled in once every block's
// decomposition is known (spec.md §4.5.3's two-pass phi rule).
type pendingPhi struct {
	orig       *ir.PhiInstr
	cbPhi, uPhi *ir.PhiInstr
}

// sharedLowerer rewrites one function's shared-pointer values and
// instructions into primitive-pointer operations and calls into the
// synthesized runtime-support functions.
type sharedLowerer struct {
	rt          runtimeFuncs
	decomposed  map[int]decomp
	pendingPhis []pendingPhi
}

// lowerSharedFunc applies spec.md §4.5.3 to f in place.
func lowerSharedFunc(rt runtimeFuncs, f *ir.Function) {
	sl := &sharedLowerer{rt: rt, decomposed: map[int]decomp{}}
	sl.splitArgs(f)
	sl.splitResults(f)

	for _, b := range blocksInDominanceOrder(f) {
		sl.lowerBlock(f, b)
	}
	for _, pp := range sl.pendingPhis {
		sl.fillPhi(pp)
	}

	f.RebuildEdges()
}

func (sl *sharedLowerer) splitArgs(f *ir.Function) {
	newArgs := make([]*ir.Computed, 0, len(f.Args))
	for _, a := range f.Args {
		if _, ok := a.Typ.(*ir.SharedPointerType); ok {
			cb := f.NewComputed(-1, ir.Ptr)
			u := f.NewComputed(-1, ir.Ptr)
			sl.decomposed[a.Num] = decomp{cb, u}
			newArgs = append(newArgs, cb, u)
			continue
		}
		newArgs = append(newArgs, a)
	}
	f.Args = newArgs
}

func (sl *sharedLowerer) splitResults(f *ir.Function) {
	newResults := make([]ir.Type, 0, len(f.Results))
	for _, r := range f.Results {
		if _, ok := r.(*ir.SharedPointerType); ok {
			newResults = append(newResults, ir.Ptr, ir.Ptr)
			continue
		}
		newResults = append(newResults, r)
	}
	f.Results = newResults
}

// lookup resolves v's decomposition: a computed value's prior decomposition,
// or a literal nil pointer constant decomposed into two nil pointers.
func (sl *sharedLowerer) lookup(v ir.Value) decomp {
	if c, ok := v.(*ir.Computed); ok {
		if d, ok := sl.decomposed[c.Num]; ok {
			return d
		}
	}
	return decomp{v, v}
}

func (sl *sharedLowerer) lowerBlock(f *ir.Function, b *ir.Block) {
	newInstrs := make([]ir.Instr, 0, len(b.Instrs))
	for _, in := range b.Instrs {
		newInstrs = sl.lowerInstr(f, in, newInstrs)
	}
	b.Instrs = newInstrs
}

func (sl *sharedLowerer) lowerInstr(f *ir.Function, in ir.Instr, out []ir.Instr) []ir.Instr {
	switch v := in.(type) {
	case *ir.MakeSharedInstr:
		sp := v.Result.Typ.(*ir.SharedPointerType)
		cb := f.NewComputed(-1, ir.Ptr)
		u := f.NewComputed(-1, ir.Ptr)
		sl.decomposed[v.Result.Num] = decomp{cb, u}
		return append(out, &ir.CallInstr{
			Results: []*ir.Computed{cb, u},
			Callee:  &ir.FuncConst{Num: sl.rt.MakeShared},
			Args:    []ir.Value{v.Size, &ir.IntConst{Val: 1, Typ: ir.I64}, destructorFor(sp.Elem, sl.rt)},
		})

	case *ir.CopySharedInstr:
		sp := v.Result.Typ.(*ir.SharedPointerType)
		src := sl.lookup(v.Src)
		newU := f.NewComputed(-1, ir.Ptr)
		callee := sl.rt.StrongCopyShared
		if sp.Strength == ir.Weak {
			callee = sl.rt.WeakCopyShared
		}
		sl.decomposed[v.Result.Num] = decomp{src.cb, newU}
		return append(out, &ir.CallInstr{
			Results: []*ir.Computed{newU},
			Callee:  &ir.FuncConst{Num: callee},
			Args:    []ir.Value{src.cb, src.u, &ir.IntConst{Val: 0, Typ: ir.I64}},
		})

	case *ir.DeleteSharedInstr:
		sp, _ := v.Src.Type().(*ir.SharedPointerType)
		src := sl.lookup(v.Src)
		callee := sl.rt.DeleteStrongShared
		if sp != nil && sp.Strength == ir.Weak {
			callee = sl.rt.DeleteWeakShared
		}
		return append(out, &ir.CallInstr{Callee: &ir.FuncConst{Num: callee}, Args: []ir.Value{src.cb}})

	case *ir.MovInstr:
		if _, ok := v.Result.Typ.(*ir.SharedPointerType); ok {
			sl.decomposed[v.Result.Num] = sl.lookup(v.Src)
			return out
		}
		return append(out, v)

	case *ir.PhiInstr:
		if _, ok := v.Result.Typ.(*ir.SharedPointerType); ok {
			cbPhi := &ir.PhiInstr{Result: f.NewComputed(-1, ir.Ptr)}
			uPhi := &ir.PhiInstr{Result: f.NewComputed(-1, ir.Ptr)}
			sl.decomposed[v.Result.Num] = decomp{cbPhi.Result, uPhi.Result}
			sl.pendingPhis = append(sl.pendingPhis, pendingPhi{orig: v, cbPhi: cbPhi, uPhi: uPhi})
			return append(out, cbPhi, uPhi)
		}
		return append(out, v)

	case *ir.LoadInstr:
		if sp, ok := v.Addr.Type().(*ir.SharedPointerType); ok {
			addr := sl.lookup(v.Addr)
			if sp.Strength == ir.Weak {
				out = append(out, &ir.CallInstr{Callee: &ir.FuncConst{Num: sl.rt.ValidateWeakShared}, Args: []ir.Value{addr.cb}})
			}
			return append(out, &ir.LoadInstr{Result: v.Result, Addr: addr.u})
		}
		if _, ok := v.Result.Typ.(*ir.SharedPointerType); ok {
			cb := f.NewComputed(-1, ir.Ptr)
			u := f.NewComputed(-1, ir.Ptr)
			uAddr := f.NewComputed(-1, ir.Ptr)
			sl.decomposed[v.Result.Num] = decomp{cb, u}
			return append(out,
				&ir.LoadInstr{Result: cb, Addr: v.Addr},
				&ir.POffInstr{Result: uAddr, Ptr: v.Addr, Offset: iconst(8, ir.I64)},
				&ir.LoadInstr{Result: u, Addr: uAddr},
			)
		}
		return append(out, v)

	case *ir.StoreInstr:
		if sp, ok := v.Addr.Type().(*ir.SharedPointerType); ok {
			addr := sl.lookup(v.Addr)
			if sp.Strength == ir.Weak {
				out = append(out, &ir.CallInstr{Callee: &ir.FuncConst{Num: sl.rt.ValidateWeakShared}, Args: []ir.Value{addr.cb}})
			}
			return append(out, &ir.StoreInstr{Addr: addr.u, Val: v.Val})
		}
		if _, ok := v.Val.Type().(*ir.SharedPointerType); ok {
			val := sl.lookup(v.Val)
			uAddr := f.NewComputed(-1, ir.Ptr)
			return append(out,
				&ir.StoreInstr{Addr: v.Addr, Val: val.cb},
				&ir.POffInstr{Result: uAddr, Ptr: v.Addr, Offset: iconst(8, ir.I64)},
				&ir.StoreInstr{Addr: uAddr, Val: val.u},
			)
		}
		return append(out, v)

	case *ir.CallInstr:
		var args []ir.Value
		for _, a := range v.Args {
			if _, ok := a.Type().(*ir.SharedPointerType); ok {
				d := sl.lookup(a)
				args = append(args, d.cb, d.u)
				continue
			}
			args = append(args, a)
		}
		var results []*ir.Computed
		for _, r := range v.Results {
			if _, ok := r.Typ.(*ir.SharedPointerType); ok {
				cb := f.NewComputed(-1, ir.Ptr)
				u := f.NewComputed(-1, ir.Ptr)
				sl.decomposed[r.Num] = decomp{cb, u}
				results = append(results, cb, u)
				continue
			}
			results = append(results, r)
		}
		return append(out, &ir.CallInstr{Results: results, Callee: v.Callee, Args: args})

	case *ir.RetInstr:
		var args []ir.Value
		for _, a := range v.Args {
			if _, ok := a.Type().(*ir.SharedPointerType); ok {
				d := sl.lookup(a)
				args = append(args, d.cb, d.u)
				continue
			}
			args = append(args, a)
		}
		return append(out, &ir.RetInstr{Args: args})

	default:
		return append(out, in)
	}
}

func (sl *sharedLowerer) fillPhi(pp pendingPhi) {
	cbArgs := make([]*ir.Inherited, 0, len(pp.orig.Args))
	uArgs := make([]*ir.Inherited, 0, len(pp.orig.Args))
	for _, inh := range pp.orig.Args {
		d := sl.lookup(inh.Value)
		cbArgs = append(cbArgs, &ir.Inherited{Value: d.cb, Block: inh.Block})
		uArgs = append(uArgs, &ir.Inherited{Value: d.u, Block: inh.Block})
	}
	pp.cbPhi.Args = cbArgs
	pp.uPhi.Args = uArgs
}

// destructorFor picks the destructor passed to make_shared for a payload of
// type elem: a nested-shared-pointer stub if the payload is itself a shared
// pointer, or nil otherwise (spec.md §4.5.2's delete_ptr_to_*_shared pair).
func destructorFor(elem ir.Type, rt runtimeFuncs) ir.Value {
	if sp, ok := elem.(*ir.SharedPointerType); ok {
		if sp.Strength == ir.Weak {
			return &ir.FuncConst{Num: rt.DeletePtrToWeak}
		}
		return &ir.FuncConst{Num: rt.DeletePtrToStrong}
	}
	return &ir.FuncConst{Num: -1}
}

// blocksInDominanceOrder returns f's blocks ordered so that each block comes
// after every block that dominates it (a reverse postorder over the CFG),
// matching the processing order spec.md §4.5.3 requires so a value's
// decomposition is always recorded before a dominated use needs it.
func blocksInDominanceOrder(f *ir.Function) []*ir.Block {
	entry := f.EntryBlock()
	if entry == nil {
		return nil
	}
	byNum := make(map[int]*ir.Block, len(f.Blocks))
	for _, b := range f.Blocks {
		byNum[b.Num] = b
	}

	visited := make(map[int]bool, len(f.Blocks))
	var postorder []int
	var visit func(num int)
	visit = func(num int) {
		if visited[num] {
			return
		}
		visited[num] = true
		if b := byNum[num]; b != nil {
			for _, c := range b.Children {
				visit(c)
			}
		}
		postorder = append(postorder, num)
	}
	visit(entry.Num)

	order := make([]*ir.Block, 0, len(postorder))
	for i := len(postorder) - 1; i >= 0; i-- {
		order = append(order, byNum[postorder[i]])
	}
	// Append any block unreachable from the entry so it still gets lowered,
	// even though the checker would separately flag it.
	for _, b := range f.Blocks {
		if !visited[b.Num] {
			order = append(order, b)
		}
	}
	return order
}
