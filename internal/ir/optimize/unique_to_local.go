package optimize

import "ssair/internal/ir"

// pendingLocalPhi mirrors lower.pendingPhi: a phi whose arguments can only
// be filled in once every predecessor block's exit value is known.
type pendingLocalPhi struct {
	phi   *ir.PhiInstr
	preds []int
}

// CollapseUniqueToLocal replaces every unique pointer accessed only by
// whole-value load and store (spec.md §4.5.6) with an ordinary SSA scalar:
// make_unique and delete_unique disappear, a store becomes a mov of the
// stored value, and a load becomes a mov of whatever value currently holds
// it, with a phi inserted at every block that has more than one
// predecessor.
//
// The phi-insertion scheme is grounded on the incomplete-phi/sealed-block
// idiom of a Braun-style SSA builder: a join block gets a placeholder phi
// the moment it is visited, and every phi's argument list is filled only
// after every block has been processed and every predecessor's exit value
// is therefore known (the same two-pass shape internal/ir/lower uses for
// shared-pointer phis) - here adapted from constructing a CFG from an AST
// to reconstructing SSA form over a CFG that already exists.
func CollapseUniqueToLocal(prog *ir.Program) {
	for _, f := range prog.Functions {
		collapseFunc(f)
	}
}

func collapseFunc(f *ir.Function) {
	for _, p := range confinedUniquePointers(f) {
		collapsePointer(f, p)
	}
}

// confinedUniquePointers returns every make_unique result whose only uses
// in f are as the address of a load or a store, or the operand of a
// delete_unique - i.e. never escapes as a call/return argument, is never
// itself stored as a value, never offset, and never merged through a phi.
func confinedUniquePointers(f *ir.Function) []*ir.Computed {
	var candidates []*ir.Computed
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if m, ok := in.(*ir.MakeUniqueInstr); ok {
				candidates = append(candidates, m.Result)
			}
		}
	}

	var confined []*ir.Computed
	for _, p := range candidates {
		if isConfined(f, p) {
			confined = append(confined, p)
		}
	}
	return confined
}

func isConfined(f *ir.Function, p *ir.Computed) bool {
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			switch v := in.(type) {
			case *ir.MakeUniqueInstr:
				continue
			case *ir.LoadInstr:
				if usesValue(v.Addr, p) {
					continue
				}
			case *ir.StoreInstr:
				if usesValue(v.Val, p) {
					return false
				}
				if usesValue(v.Addr, p) {
					continue
				}
			case *ir.DeleteUniqueInstr:
				if usesValue(v.Src, p) {
					continue
				}
			}
			for _, u := range in.Uses() {
				if usesValue(u, p) {
					return false
				}
			}
		}
	}
	return true
}

func usesValue(v ir.Value, p *ir.Computed) bool {
	if inh, ok := v.(*ir.Inherited); ok {
		v = inh.Value
	}
	c, ok := v.(*ir.Computed)
	return ok && c == p
}

func collapsePointer(f *ir.Function, p *ir.Computed) {
	elem := p.Typ.(*ir.UniquePointerType).Elem

	exitValue := map[int]ir.Value{}
	var pending []*pendingLocalPhi

	for _, b := range blocksInDominanceOrder(f) {
		var phi *ir.PhiInstr
		var entry ir.Value
		switch len(b.Parents) {
		case 0:
			entry = nil
		case 1:
			entry = exitValue[b.Parents[0]]
		default:
			phi = &ir.PhiInstr{Result: f.NewComputed(-1, elem)}
			entry = phi.Result
			pending = append(pending, &pendingLocalPhi{phi: phi, preds: append([]int(nil), b.Parents...)})
		}

		current := entry
		newInstrs := make([]ir.Instr, 0, len(b.Instrs)+1)
		if phi != nil {
			newInstrs = append(newInstrs, phi)
		}

		for _, in := range b.Instrs {
			switch v := in.(type) {
			case *ir.MakeUniqueInstr:
				if v.Result == p {
					current = nil
					continue
				}
				newInstrs = append(newInstrs, in)

			case *ir.StoreInstr:
				if usesValue(v.Addr, p) {
					t := f.NewComputed(-1, elem)
					newInstrs = append(newInstrs, &ir.MovInstr{Result: t, Src: v.Val})
					current = t
					continue
				}
				newInstrs = append(newInstrs, in)

			case *ir.LoadInstr:
				if usesValue(v.Addr, p) {
					newInstrs = append(newInstrs, &ir.MovInstr{Result: v.Result, Src: current})
					continue
				}
				newInstrs = append(newInstrs, in)

			case *ir.DeleteUniqueInstr:
				if usesValue(v.Src, p) {
					continue
				}
				newInstrs = append(newInstrs, in)

			default:
				newInstrs = append(newInstrs, in)
			}
		}

		b.Instrs = newInstrs
		exitValue[b.Num] = current
	}

	for _, pp := range pending {
		args := make([]*ir.Inherited, 0, len(pp.preds))
		for _, pred := range pp.preds {
			args = append(args, &ir.Inherited{Value: exitValue[pred], Block: pred})
		}
		pp.phi.Args = args
	}
}

// blocksInDominanceOrder mirrors internal/ir/lower's helper of the same
// name: a reverse postorder over the CFG, so a block is only visited after
// every block that can reach it without a back edge.
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
	for _, b := range f.Blocks {
		if !visited[b.Num] {
			order = append(order, b)
		}
	}
	return order
}
