package optimize

import "ssair/internal/ir"

// RemoveUnusedFunctions drops every function unreachable, by static call
// reference, from prog's entry function. If prog has no designated entry
// function, nothing is removed - there is no root to measure reachability
// from, and dropping functions in that case would be unsound.
//
// Program.FuncByNum may still resolve a dropped function's number after
// this runs; that is harmless, since by construction nothing in the kept
// set can hold a CallInstr referencing a number that was unreachable.
func RemoveUnusedFunctions(prog *ir.Program) {
	entry := prog.EntryFunc()
	if entry == nil {
		return
	}

	reachable := map[int]bool{entry.Num: true}
	queue := []int{entry.Num}
	for len(queue) > 0 {
		num := queue[0]
		queue = queue[1:]
		f := prog.FuncByNum(num)
		if f == nil {
			continue
		}
		for _, callee := range calledFuncNums(f) {
			if !reachable[callee] {
				reachable[callee] = true
				queue = append(queue, callee)
			}
		}
	}

	kept := make([]*ir.Function, 0, len(prog.Functions))
	for _, f := range prog.Functions {
		if reachable[f.Num] {
			kept = append(kept, f)
		}
	}
	prog.Functions = kept
}

func calledFuncNums(f *ir.Function) []int {
	var nums []int
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			call, ok := in.(*ir.CallInstr)
			if !ok {
				continue
			}
			if fc, ok := call.Callee.(*ir.FuncConst); ok && fc.Num >= 0 {
				nums = append(nums, fc.Num)
			}
		}
	}
	return nums
}
