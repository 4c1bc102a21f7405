package lower

import "ssair/internal/ir"

// lowerUniqueFunc applies spec.md §4.5.4 to f in place: a unique pointer is
// already a single primitive pointer at runtime, so lowering it is a type
// relabeling plus two instruction substitutions (make_unique -> malloc,
// delete_unique -> free), not a value decomposition like shared pointers
// need. Because every use of a *ir.Computed reads its Typ field through the
// same pointer its definition set, retyping a value once at its point of
// definition is enough to make every later Type() call (mov src, call arg,
// phi operand, load/store through or of the value) see ir.Ptr without this
// pass having to touch those instructions at all.
func lowerUniqueFunc(f *ir.Function) {
	for _, a := range f.Args {
		if _, ok := a.Typ.(*ir.UniquePointerType); ok {
			a.Typ = ir.Ptr
		}
	}
	for i, r := range f.Results {
		if _, ok := r.(*ir.UniquePointerType); ok {
			f.Results[i] = ir.Ptr
		}
	}

	for _, b := range f.Blocks {
		newInstrs := make([]ir.Instr, 0, len(b.Instrs))
		for _, in := range b.Instrs {
			switch v := in.(type) {
			case *ir.MakeUniqueInstr:
				v.Result.Typ = ir.Ptr
				newInstrs = append(newInstrs, &ir.MallocInstr{Result: v.Result, Size: v.Size})

			case *ir.DeleteUniqueInstr:
				newInstrs = append(newInstrs, &ir.FreeInstr{Addr: v.Src})

			case *ir.MovInstr:
				retypeIfUnique(v.Result)
				newInstrs = append(newInstrs, v)

			case *ir.PhiInstr:
				retypeIfUnique(v.Result)
				newInstrs = append(newInstrs, v)

			case *ir.LoadInstr:
				retypeIfUnique(v.Result)
				newInstrs = append(newInstrs, v)

			case *ir.CallInstr:
				for _, r := range v.Results {
					retypeIfUnique(r)
				}
				newInstrs = append(newInstrs, v)

			default:
				newInstrs = append(newInstrs, v)
			}
		}
		b.Instrs = newInstrs
	}
}

func retypeIfUnique(c *ir.Computed) {
	if _, ok := c.Typ.(*ir.UniquePointerType); ok {
		c.Typ = ir.Ptr
	}
}
