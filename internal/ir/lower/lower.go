// Package lower rewrites shared- and unique-pointer IR (spec.md §4.5) into
// primitive pointer arithmetic, loads, stores, and calls into a synthesized
// runtime-support library, so the result can pass the primitive-only
// invariants of internal/ir/check.
package lower

import "ssair/internal/ir"

var runtimeFuncNames = map[string]bool{
	"make_shared":                 true,
	"strong_copy_shared":          true,
	"weak_copy_shared":            true,
	"delete_strong_shared":        true,
	"delete_weak_shared":          true,
	"delete_ptr_to_strong_shared": true,
	"delete_ptr_to_weak_shared":   true,
	"validate_weak_shared":        true,
}

// Lower synthesizes the runtime-support functions (if not already present)
// and rewrites every other function's shared- and unique-pointer operations
// in place. It is safe to call more than once on the same program: a second
// call finds the runtime functions already synthesized, and the per-function
// passes are no-ops once a function no longer contains the extension
// instructions or types they target.
func Lower(prog *ir.Program) {
	rt := synthesizeRuntime(prog)

	targets := make([]*ir.Function, len(prog.Functions))
	copy(targets, prog.Functions)

	for _, f := range targets {
		if runtimeFuncNames[f.Name] {
			continue
		}
		lowerSharedFunc(rt, f)
		lowerUniqueFunc(f)
	}
}
