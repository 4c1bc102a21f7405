// Package optimize implements the two pre-lowering optimizations of
// spec.md §4.5.5-§4.5.6: promoting function-confined shared pointers to
// unique pointers, and collapsing whole-value unique pointers to plain SSA
// scalars.
package optimize

import "ssair/internal/ir"

// unionFind tracks which values (by number) belong to the same ownership
// group: a make_shared result and every value a mov later renames it to.
type unionFind struct{ parent map[int]int }

func newUnionFind() *unionFind { return &unionFind{parent: map[int]int{}} }

func (u *unionFind) find(n int) int {
	p, ok := u.parent[n]
	if !ok {
		u.parent[n] = n
		return n
	}
	if p == n {
		return n
	}
	root := u.find(p)
	u.parent[n] = root
	return root
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// PromoteSharedToUnique rewrites every shared pointer in prog whose lifetime
// is confined to its defining function into a unique pointer (spec.md
// §4.5.5): never passed as a call argument or return value, never stored as
// data through another address, never merged through a phi, never touched
// by copy_shared, and deleted exactly once.
//
// This is a conservative approximation of the ideal per-path reachability
// condition ("every reachable path from every definition ends in exactly
// one delete_shared with no copy_shared on any path"): rather than
// enumerate CFG paths, a group is disqualified the moment copy_shared or an
// escape touches it anywhere in the function, and promoted only if it has
// exactly one delete_shared in the whole function. This is strictly safer
// (it promotes a subset of what full path analysis would) at the cost of
// missing some copy-then-move patterns a finer analysis would also promote.
func PromoteSharedToUnique(prog *ir.Program) {
	for _, f := range prog.Functions {
		promoteFunc(f)
	}
}

func promoteFunc(f *ir.Function) {
	uf := newUnionFind()
	isMakeSharedRoot := map[int]bool{}
	disqualified := map[int]bool{}
	deleteCount := map[int]int{}
	byNum := map[int]*ir.Computed{}

	note := func(c *ir.Computed) {
		if c != nil {
			byNum[c.Num] = c
		}
	}

	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			switch v := in.(type) {
			case *ir.MakeSharedInstr:
				note(v.Result)
				if sp, ok := v.Result.Typ.(*ir.SharedPointerType); ok && sp.Strength == ir.Strong {
					isMakeSharedRoot[v.Result.Num] = true
				}
			case *ir.MovInstr:
				note(v.Result)
				if _, ok := v.Result.Typ.(*ir.SharedPointerType); ok {
					if src, ok := v.Src.(*ir.Computed); ok {
						uf.union(v.Result.Num, src.Num)
					}
				}
			case *ir.CopySharedInstr:
				note(v.Result)
				if src, ok := v.Src.(*ir.Computed); ok {
					disqualified[uf.find(src.Num)] = true
				}
			case *ir.DeleteSharedInstr:
				if src, ok := v.Src.(*ir.Computed); ok {
					deleteCount[uf.find(src.Num)]++
				}
			case *ir.PhiInstr:
				note(v.Result)
				if _, ok := v.Result.Typ.(*ir.SharedPointerType); ok {
					disqualified[uf.find(v.Result.Num)] = true
				}
				for _, inh := range v.Args {
					if c, ok := inh.Value.(*ir.Computed); ok {
						if _, ok := c.Typ.(*ir.SharedPointerType); ok {
							disqualified[uf.find(c.Num)] = true
						}
					}
				}
			case *ir.CallInstr:
				for _, a := range v.Args {
					if c, ok := a.(*ir.Computed); ok {
						if _, ok := c.Typ.(*ir.SharedPointerType); ok {
							disqualified[uf.find(c.Num)] = true
						}
					}
				}
			case *ir.RetInstr:
				for _, a := range v.Args {
					if c, ok := a.(*ir.Computed); ok {
						if _, ok := c.Typ.(*ir.SharedPointerType); ok {
							disqualified[uf.find(c.Num)] = true
						}
					}
				}
			case *ir.StoreInstr:
				if c, ok := v.Val.(*ir.Computed); ok {
					if _, ok := c.Typ.(*ir.SharedPointerType); ok {
						disqualified[uf.find(c.Num)] = true
					}
				}
			}
		}
	}

	eligible := map[int]bool{}
	for num := range isMakeSharedRoot {
		root := uf.find(num)
		if !disqualified[root] && deleteCount[root] == 1 {
			eligible[root] = true
		}
	}
	if len(eligible) == 0 {
		return
	}

	for _, a := range f.Args {
		retypeGroup(a, uf, eligible)
	}

	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if v, ok := in.(*ir.MovInstr); ok {
				retypeGroup(v.Result, uf, eligible)
			}
		}
	}

	for _, b := range f.Blocks {
		newInstrs := make([]ir.Instr, 0, len(b.Instrs))
		for _, in := range b.Instrs {
			switch v := in.(type) {
			case *ir.MakeSharedInstr:
				if eligible[uf.find(v.Result.Num)] {
					sp := v.Result.Typ.(*ir.SharedPointerType)
					v.Result.Typ = &ir.UniquePointerType{Elem: sp.Elem}
					newInstrs = append(newInstrs, &ir.MakeUniqueInstr{Result: v.Result, Size: v.Size})
					continue
				}
			case *ir.DeleteSharedInstr:
				if src, ok := v.Src.(*ir.Computed); ok && eligible[uf.find(src.Num)] {
					newInstrs = append(newInstrs, &ir.DeleteUniqueInstr{Src: v.Src})
					continue
				}
			}
			newInstrs = append(newInstrs, in)
		}
		b.Instrs = newInstrs
	}
}

// retypeGroup retypes c to a unique pointer if it belongs to a promoted
// group, looking through the union-find by its own value number.
func retypeGroup(c *ir.Computed, uf *unionFind, eligible map[int]bool) {
	if sp, ok := c.Typ.(*ir.SharedPointerType); ok && eligible[uf.find(c.Num)] {
		c.Typ = &ir.UniquePointerType{Elem: sp.Elem}
	}
}
