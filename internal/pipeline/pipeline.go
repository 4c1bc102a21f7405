// Package pipeline composes the build passes of spec.md §4.6: a program
// produced by an external surface-language front end is checked against the
// extension instruction set, optionally optimized, lowered to primitive
// pointer operations, and re-checked at each stage.
package pipeline

import (
	"ssair/internal/ir"
	"ssair/internal/ir/check"
	"ssair/internal/ir/lower"
	"ssair/internal/ir/optimize"
	"ssair/internal/ir/serialize"
	"ssair/internal/issue"
)

// Options selects which optional passes Run applies, per spec.md §4.6's
// "(optional)" annotations on shared-to-unique, unique-to-local-value, and
// remove-unused-functions.
type Options struct {
	PromoteSharedToUnique bool
	CollapseUniqueToLocal bool
	RemoveUnusedFunctions bool

	// OnStage, if set, is called after each checkpoint with a label
	// identifying it ("init", "ext_optimized", "lowered", "optimized") and
	// the program as it stands at that point - the hook cmd/build-tool's
	// --debug-dir artifact dump (spec.md §6.1) uses instead of duplicating
	// this function's stage ordering.
	OnStage func(label string, prog *ir.Program)
}

func (o Options) emit(label string, prog *ir.Program) {
	if o.OnStage != nil {
		o.OnStage(label, prog)
	}
}

// Run executes the build pipeline against prog, reporting every stage's
// issues into tracker. It stops and returns false as soon as a stage
// reports an error, since a later stage's passes assume the earlier
// invariants already hold (spec.md §4.6: "each pass... produces a program
// that passes the check appropriate to its output").
func Run(prog *ir.Program, pos *serialize.ProgramPositions, opts Options, tracker *issue.Tracker) bool {
	check.NewExt(tracker, pos).Check(prog)
	if tracker.HasErrors() {
		return false
	}
	opts.emit("init", prog)

	if opts.PromoteSharedToUnique {
		optimize.PromoteSharedToUnique(prog)
	}
	if opts.CollapseUniqueToLocal {
		optimize.CollapseUniqueToLocal(prog)
	}
	if opts.PromoteSharedToUnique || opts.CollapseUniqueToLocal {
		check.NewExt(tracker, pos).Check(prog)
		if tracker.HasErrors() {
			return false
		}
	}
	opts.emit("ext_optimized", prog)

	lower.Lower(prog)
	check.New(tracker, pos).Check(prog)
	if tracker.HasErrors() {
		return false
	}
	opts.emit("lowered", prog)

	if opts.RemoveUnusedFunctions {
		optimize.RemoveUnusedFunctions(prog)
		check.New(tracker, pos).Check(prog)
		if tracker.HasErrors() {
			return false
		}
	}
	opts.emit("optimized", prog)

	return true
}
