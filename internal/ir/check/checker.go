// Package check validates an in-memory ir.Program against the invariants of
// spec.md §3.5, producing diagnostics through an issue.Tracker rather than
// returning errors — exactly one more stage sharing the same reporting
// channel as the scanner and parser (internal/ir/serialize). Grounded on the
// teacher's internal/semantic.Analyzer (a tracker of accumulated diagnostics
// driven by a multi-pass traversal: one pass to build symbol/definition
// tables, a second to check uses against them) adapted from an AST walk to
// an SSA-program walk, and on original_source's dominance-check algorithm
// (§4.4) for the definition-dominates-use rule.
package check

import (
	"ssair/internal/ir"
	"ssair/internal/ir/serialize"
	"ssair/internal/issue"
	"ssair/internal/source"
)

// Checker runs the base (non-extension) invariant checks of spec.md §3.5
// over every function of a program.
type Checker struct {
	tracker *issue.Tracker
	pos     *serialize.ProgramPositions

	// owner records, across the whole Check call, which function a given
	// Computed location belongs to — catching a value referenced from more
	// than one function (invariant 1).
	owner map[*ir.Computed]int
}

// New creates a Checker that reports into tracker. pos may be nil, in which
// case diagnostics carry source.NoRange instead of a precise source span.
func New(tracker *issue.Tracker, pos *serialize.ProgramPositions) *Checker {
	return &Checker{tracker: tracker, pos: pos, owner: make(map[*ir.Computed]int)}
}

// site is where a computed value is defined: the block and instruction
// index it was produced at, or index -1 for a function argument (defined
// "before" block 0, so it dominates every reachable block by construction).
type site struct {
	blockNum int
	index    int
}

// funcState accumulates the per-function bookkeeping the checker needs
// across its two passes (spec.md §4.4's "first pass assigns each defined
// value a reference ... second pass ... walk immediate-dominator chain").
type funcState struct {
	fi      int
	f       *ir.Function
	prog    *ir.Program
	dt      *ir.DominatorTree
	siteOf  map[*ir.Computed]site
	numSeen map[int][]*ir.Computed
}

// Check runs every base check over prog and reports violations via the
// tracker passed to New.
func (c *Checker) Check(prog *ir.Program) {
	for fi, f := range prog.Functions {
		c.checkFunction(prog, fi, f)
	}
}

func (c *Checker) checkFunction(prog *ir.Program, fi int, f *ir.Function) {
	fr := c.funcRange(fi)

	for _, r := range f.Results {
		if r == nil {
			c.report(issue.KindFuncHasNullResultType, fr, "function %%%d has a null result type", f.Num)
			break
		}
	}

	if f.EntryBlock() == nil {
		c.report(issue.KindFuncHasNoEntryBlock, fr, "function %%%d has no entry block", f.Num)
		return
	}

	fs := &funcState{fi: fi, f: f, prog: prog, dt: f.Dominators(), siteOf: make(map[*ir.Computed]site), numSeen: make(map[int][]*ir.Computed)}

	for _, a := range f.Args {
		c.registerDef(fs, a, site{blockNum: f.EntryBlock().Num, index: -1}, fr)
	}
	for bi, b := range f.Blocks {
		for ii, in := range b.Instrs {
			for _, d := range in.Defs() {
				c.registerDef(fs, d, site{blockNum: b.Num, index: ii}, c.instrRange(fi, bi, ii))
			}
		}
	}

	for bi, b := range f.Blocks {
		c.checkBlock(fs, bi, b)
	}
}

// registerDef records where a computed value is defined, flags a value used
// by more than one function, a duplicated value number, and a location
// defined more than once.
func (c *Checker) registerDef(fs *funcState, v *ir.Computed, s site, rng source.Range) {
	if v == nil {
		return
	}
	if owner, ok := c.owner[v]; ok && owner != fs.fi {
		c.report(issue.KindValueUsedInMultipleFuncs, rng, "value %%%d is used in more than one function", v.Num)
	} else {
		c.owner[v] = fs.fi
	}
	if v.Typ == nil {
		c.report(issue.KindValueHasNullType, rng, "value %%%d has a null type", v.Num)
	}
	if _, already := fs.siteOf[v]; already {
		c.report(issue.KindValueHasMultipleDefinitions, rng, "value %%%d is defined more than once", v.Num)
	} else {
		fs.siteOf[v] = s
	}
	for _, other := range fs.numSeen[v.Num] {
		if other != v {
			c.report(issue.KindValueNumberUsedMultipleTimes, rng, "value number %d is used for more than one value", v.Num)
			break
		}
	}
	fs.numSeen[v.Num] = append(fs.numSeen[v.Num], v)
}

func (c *Checker) checkBlock(fs *funcState, bi int, b *ir.Block) {
	f := fs.f
	isEntry := bi == 0

	if isEntry && b.HasParents() {
		c.report(issue.KindEntryBlockHasParents, c.blockRange(fs.fi, bi), "entry block %%b%d has parents", b.Num)
	}
	if !isEntry && !b.HasParents() {
		c.report(issue.KindNonEntryBlockHasNoParents, c.blockRange(fs.fi, bi), "block %%b%d has no parents", b.Num)
	}
	if len(b.Instrs) == 0 {
		c.report(issue.KindBlockIsEmpty, c.blockRange(fs.fi, bi), "block %%b%d is empty", b.Num)
		return
	}

	seenNonPhi := false
	for ii, in := range b.Instrs {
		isLast := ii == len(b.Instrs)-1
		isTerm := in.Op().IsTerminator()
		if isTerm && !isLast {
			c.report(issue.KindControlFlowBeforeEnd, c.instrRange(fs.fi, bi, ii), "control-flow instruction appears before the end of block %%b%d", b.Num)
		}
		if isLast && !isTerm {
			c.report(issue.KindControlFlowMissingAtEnd, c.instrRange(fs.fi, bi, ii), "block %%b%d does not end in a control-flow instruction", b.Num)
		}

		if in.Op() == ir.OpPhi {
			if seenNonPhi {
				c.report(issue.KindPhiAfterNonPhiInstruction, c.instrRange(fs.fi, bi, ii), "phi follows a non-phi instruction in block %%b%d", b.Num)
			}
			c.checkPhiPlacement(fs, bi, b, ii, in.(*ir.PhiInstr))
		} else {
			seenNonPhi = true
			for _, u := range in.Uses() {
				if _, ok := u.(*ir.Inherited); ok {
					c.report(issue.KindNonPhiUsesInheritedValue, c.instrRange(fs.fi, bi, ii), "non-phi instruction uses an inherited value in block %%b%d", b.Num)
				}
			}
		}

		for di, d := range in.Defs() {
			if d == nil {
				c.report(issue.KindInstrDefinesNullValue, c.instrDefRange(fs.fi, bi, ii, di), "instruction defines a null value")
			}
		}
		for ui, u := range in.Uses() {
			if u == nil {
				c.report(issue.KindInstrUsesNullValue, c.instrUseRange(fs.fi, bi, ii, ui), "instruction uses a null value")
				continue
			}
			c.checkUseDefined(fs, bi, ii, ui, u)
		}

		c.checkControlFlowTargets(fs, bi, b, in, ii)
		c.checkInstrTypes(fs, bi, ii, in)
	}
}

// checkPhiPlacement validates invariant 6: a block with a phi must have ≥2
// parents, and the phi's inherited values must name exactly the block's
// parent set.
func (c *Checker) checkPhiPlacement(fs *funcState, bi int, b *ir.Block, ii int, phi *ir.PhiInstr) {
	if len(b.Parents) < 2 {
		c.report(issue.KindPhiInBlockWithoutMultipleParents, c.instrRange(fs.fi, bi, ii), "phi in block %%b%d, which does not have multiple parents", b.Num)
	}
	seen := make(map[int]bool, len(phi.Args))
	for _, a := range phi.Args {
		seen[a.Block] = true
		if a.Value != nil && phi.Result != nil && phi.Result.Typ != nil && a.Value.Type() != nil && !ir.Identical(a.Value.Type(), phi.Result.Typ) {
			c.report(issue.KindOperandOrResultTypeMismatch, c.instrRange(fs.fi, bi, ii), "phi argument from block %%b%d has type %s, expected %s", a.Block, a.Value.Type(), phi.Result.Typ)
		}
	}
	for _, p := range b.Parents {
		if !seen[p] {
			c.report(issue.KindOperandOrResultTypeMismatch, c.instrRange(fs.fi, bi, ii), "phi is missing an inherited value for parent block %%b%d", p)
		}
	}
	for parent := range seen {
		found := false
		for _, p := range b.Parents {
			if p == parent {
				found = true
				break
			}
		}
		if !found {
			c.report(issue.KindOperandOrResultTypeMismatch, c.instrRange(fs.fi, bi, ii), "phi inherits from block %%b%d, which is not a parent of %%b%d", parent, b.Num)
		}
	}
}

// checkUseDefined implements invariant 8 (definition dominates use) plus
// "value has no definition": a Computed used but never registered as a
// definition within this function.
func (c *Checker) checkUseDefined(fs *funcState, bi, ii, ui int, v ir.Value) {
	var target *ir.Computed
	useBlock := fs.f.Blocks[bi].Num
	useIndex := ii

	switch val := v.(type) {
	case *ir.Computed:
		target = val
	case *ir.Inherited:
		inner, ok := val.Value.(*ir.Computed)
		if !ok {
			return
		}
		target = inner
		originBlock := fs.f.BlockByNum(val.Block)
		if originBlock == nil {
			return
		}
		useBlock = originBlock.Num
		useIndex = len(originBlock.Instrs)
	default:
		return
	}

	s, ok := fs.siteOf[target]
	if !ok {
		c.report(issue.KindValueHasNoDefinition, c.instrUseRange(fs.fi, bi, ii, ui), "value %%%d has no definition", target.Num)
		return
	}

	if s.blockNum == useBlock {
		if s.index < useIndex {
			return
		}
		// A phi use inside its own block (use index == len(Instrs)) is always
		// past every real instruction index, so same-block phi uses never
		// reach here with s.index >= useIndex unless the def textually
		// follows the use — a genuine non-dominance.
		c.report(issue.KindDefinitionDoesNotDominateUse, c.instrUseRange(fs.fi, bi, ii, ui), "definition of %%%d does not dominate its use", target.Num)
		return
	}
	if !fs.dt.Dominates(s.blockNum, useBlock) {
		c.report(issue.KindDefinitionDoesNotDominateUse, c.instrUseRange(fs.fi, bi, ii, ui), "definition of %%%d does not dominate its use", target.Num)
	}
}

// checkControlFlowTargets implements invariant 5: jmp/jcc destinations must
// exactly match the block's recorded child set, and ret must have none.
func (c *Checker) checkControlFlowTargets(fs *funcState, bi int, b *ir.Block, in ir.Instr, ii int) {
	switch v := in.(type) {
	case *ir.JmpInstr:
		if !containsInt(b.Children, v.Target) {
			c.report(issue.KindJumpDestinationNotAChild, c.instrRange(fs.fi, bi, ii), "jmp target %%b%d is not a recorded child of %%b%d", v.Target, b.Num)
		}
	case *ir.JccInstr:
		if v.TrueTarget == v.FalseTarget {
			c.report(issue.KindJumpCondDuplicateDestinations, c.instrRange(fs.fi, bi, ii), "jcc has the same true and false target %%b%d", v.TrueTarget)
		}
		if !containsInt(b.Children, v.TrueTarget) {
			c.report(issue.KindJumpDestinationNotAChild, c.instrRange(fs.fi, bi, ii), "jcc true target %%b%d is not a recorded child of %%b%d", v.TrueTarget, b.Num)
		}
		if !containsInt(b.Children, v.FalseTarget) {
			c.report(issue.KindJumpDestinationNotAChild, c.instrRange(fs.fi, bi, ii), "jcc false target %%b%d is not a recorded child of %%b%d", v.FalseTarget, b.Num)
		}
	case *ir.RetInstr:
		if len(b.Children) > 0 {
			c.report(issue.KindJumpDestinationNotAChild, c.instrRange(fs.fi, bi, ii), "ret in %%b%d has unexpected successor edges", b.Num)
		}
		if len(v.Args) != len(fs.f.Results) {
			c.report(issue.KindReturnSignatureMismatch, c.instrRange(fs.fi, bi, ii), "ret has %d value(s), function %%%d returns %d", len(v.Args), fs.f.Num, len(fs.f.Results))
			return
		}
		for i, a := range v.Args {
			if a == nil || a.Type() == nil || fs.f.Results[i] == nil {
				continue
			}
			if !ir.Identical(a.Type(), fs.f.Results[i]) {
				c.report(issue.KindReturnSignatureMismatch, c.instrRange(fs.fi, bi, ii), "ret value %d has type %s, function %%%d expects %s", i, a.Type(), fs.f.Num, fs.f.Results[i])
			}
		}
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (c *Checker) report(kind issue.Kind, rng source.Range, format string, args ...any) {
	if c.tracker == nil {
		return
	}
	c.tracker.Add(kind, issue.Error, issue.OriginChecker, []source.Range{rng}, format, args...)
}

// --- position-bundle lookups, all nil- and bounds-safe ---

func (c *Checker) funcRange(fi int) source.Range {
	fp, ok := c.funcPositions(fi)
	if !ok {
		return source.NoRange
	}
	return fp.Num.Union(fp.Body)
}

func (c *Checker) blockRange(fi, bi int) source.Range {
	bp, ok := c.blockPositions(fi, bi)
	if !ok {
		return source.NoRange
	}
	return bp.Num.Union(bp.Body)
}

func (c *Checker) instrRange(fi, bi, ii int) source.Range {
	ip, ok := c.instrPositions(fi, bi, ii)
	if !ok {
		return source.NoRange
	}
	return ip.Whole
}

func (c *Checker) instrDefRange(fi, bi, ii, di int) source.Range {
	ip, ok := c.instrPositions(fi, bi, ii)
	if !ok {
		return source.NoRange
	}
	return ip.Def(di)
}

func (c *Checker) instrUseRange(fi, bi, ii, ui int) source.Range {
	ip, ok := c.instrPositions(fi, bi, ii)
	if !ok {
		return source.NoRange
	}
	return ip.Operand(ui)
}

func (c *Checker) funcPositions(fi int) (serialize.FuncPositions, bool) {
	if c.pos == nil || fi < 0 || fi >= len(c.pos.Funcs) {
		return serialize.FuncPositions{}, false
	}
	return c.pos.Funcs[fi], true
}

func (c *Checker) blockPositions(fi, bi int) (serialize.BlockPositions, bool) {
	fp, ok := c.funcPositions(fi)
	if !ok || bi < 0 || bi >= len(fp.Blocks) {
		return serialize.BlockPositions{}, false
	}
	return fp.Blocks[bi], true
}

func (c *Checker) instrPositions(fi, bi, ii int) (serialize.InstrPositions, bool) {
	bp, ok := c.blockPositions(fi, bi)
	if !ok || ii < 0 || ii >= len(bp.Instrs) {
		return serialize.InstrPositions{}, false
	}
	return bp.Instrs[ii], true
}
