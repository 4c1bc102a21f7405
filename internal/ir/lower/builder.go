package lower

import "ssair/internal/ir"

// funcBuilder is a small straight-line/branchy IR assembler for the
// synthesized runtime-support functions of spec.md §4.5.2. It mirrors the
// teacher's internal/ir.Builder idiom (create value/block, append
// instruction to a "current" block) without the variable-stack/phi-sealing
// machinery that idiom needs for AST-driven construction — these functions
// are hand-specified control flow, not derived from source, so there is no
// variable to rebind across blocks.
type funcBuilder struct {
	f   *ir.Function
	cur *ir.Block
}

// newRuntimeFunc creates and names a new zero-argument-list function (args
// are appended by the caller via addArg) and positions the builder at its
// entry block.
func newRuntimeFunc(prog *ir.Program, name string, results []ir.Type) *funcBuilder {
	f := prog.AddFunc(-1, results)
	prog.SetFuncName(f, name)
	b := &funcBuilder{f: f}
	b.cur = f.AddBlock(-1)
	return b
}

func (b *funcBuilder) addArg(t ir.Type) *ir.Computed { return b.f.AddArg(t) }

func (b *funcBuilder) val(t ir.Type) *ir.Computed { return b.f.NewComputed(-1, t) }

func (b *funcBuilder) emit(in ir.Instr) { b.cur.Instrs = append(b.cur.Instrs, in) }

// newBlock allocates a fresh block without switching the builder's current
// block to it (the caller wires control flow explicitly via jmp/jcc).
func (b *funcBuilder) newBlock() *ir.Block { return b.f.AddBlock(-1) }

func (b *funcBuilder) at(bl *ir.Block) { b.cur = bl }

// finish recomputes CFG edges from the terminators just emitted.
func (b *funcBuilder) finish() *ir.Function {
	b.f.RebuildEdges()
	return b.f
}

func iconst(v uint64, t ir.Type) *ir.IntConst { return &ir.IntConst{Val: v, Typ: t} }

// findFunc returns an already-synthesized function by name, or nil.
func findFunc(prog *ir.Program, name string) *ir.Function {
	for _, f := range prog.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
