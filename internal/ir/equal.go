package ir

// Equality between two functions tolerates renumbering: two computed values
// compare equal iff they occupy corresponding positions in their respective
// functions (spec.md §3.2 — "renumbered" rather than "identical" equality,
// used by the print/parse round-trip property and by optimizers that want
// to check a transformation was a no-op). Positions are assigned in a
// single deterministic traversal: arguments first, then each block's
// instructions' results in order. Block numbers are likewise compared by
// position (index within Function.Blocks), not by their literal Num.

type valueKey struct {
	side int // 0 = a, 1 = b
	num  int
}

// canonicalizer assigns each side's computed values and blocks a shared
// canonical index space, so refs from either side can be compared directly.
type canonicalizer struct {
	valueIndex map[valueKey]int
	blockIndex map[valueKey]int
	nextValue  [2]int
	nextBlock  [2]int
}

func newCanonicalizer() *canonicalizer {
	return &canonicalizer{
		valueIndex: make(map[valueKey]int),
		blockIndex: make(map[valueKey]int),
	}
}

func (c *canonicalizer) defValue(side int, v *Computed) {
	if v == nil {
		return
	}
	c.valueIndex[valueKey{side, v.Num}] = c.nextValue[side]
	c.nextValue[side]++
}

func (c *canonicalizer) defBlock(side int, num int) {
	c.blockIndex[valueKey{side, num}] = c.nextBlock[side]
	c.nextBlock[side]++
}

func (c *canonicalizer) valueOf(side int, v *Computed) (int, bool) {
	if v == nil {
		return 0, false
	}
	idx, ok := c.valueIndex[valueKey{side, v.Num}]
	return idx, ok
}

func (c *canonicalizer) blockOf(side int, num int) (int, bool) {
	idx, ok := c.blockIndex[valueKey{side, num}]
	return idx, ok
}

// EqualFunctions reports whether a and b are structurally identical up to
// consistent renumbering of computed values and block numbers.
func EqualFunctions(a, b *Function) bool {
	if len(a.Args) != len(b.Args) || len(a.Results) != len(b.Results) || len(a.Blocks) != len(b.Blocks) {
		return false
	}
	for i := range a.Results {
		if !Identical(a.Results[i], b.Results[i]) {
			return false
		}
	}

	c := newCanonicalizer()
	for i := range a.Args {
		if !Identical(a.Args[i].Typ, b.Args[i].Typ) {
			return false
		}
		c.defValue(0, a.Args[i])
		c.defValue(1, b.Args[i])
	}
	for i := range a.Blocks {
		c.defBlock(0, a.Blocks[i].Num)
		c.defBlock(1, b.Blocks[i].Num)
	}
	for i := range a.Blocks {
		for _, in := range a.Blocks[i].Instrs {
			for _, d := range in.Defs() {
				c.defValue(0, d)
			}
		}
		for _, in := range b.Blocks[i].Instrs {
			for _, d := range in.Defs() {
				c.defValue(1, d)
			}
		}
	}

	for i := range a.Blocks {
		if !equalBlocks(c, a.Blocks[i], b.Blocks[i]) {
			return false
		}
	}
	return true
}

func equalBlocks(c *canonicalizer, a, b *Block) bool {
	if len(a.Instrs) != len(b.Instrs) {
		return false
	}
	for i := range a.Instrs {
		if !equalInstrs(c, a.Instrs[i], b.Instrs[i]) {
			return false
		}
	}
	return true
}

func equalInstrs(c *canonicalizer, a, b Instr) bool {
	if a.Op() != b.Op() {
		return false
	}
	ad, bd := a.Defs(), b.Defs()
	if len(ad) != len(bd) {
		return false
	}
	for i := range ad {
		av, aok := c.valueOf(0, ad[i])
		bv, bok := c.valueOf(1, bd[i])
		if aok != bok || av != bv {
			return false
		}
		if !Identical(ad[i].Typ, bd[i].Typ) {
			return false
		}
	}

	switch av := a.(type) {
	case *JmpInstr:
		bv := b.(*JmpInstr)
		abi, aok := c.blockOf(0, av.Target)
		bbi, bok := c.blockOf(1, bv.Target)
		return aok == bok && abi == bbi
	case *JccInstr:
		bv := b.(*JccInstr)
		if !equalValue(c, av.Cond, bv.Cond) {
			return false
		}
		at, aok := c.blockOf(0, av.TrueTarget)
		bt, bok := c.blockOf(1, bv.TrueTarget)
		if aok != bok || at != bt {
			return false
		}
		af, aok2 := c.blockOf(0, av.FalseTarget)
		bf, bok2 := c.blockOf(1, bv.FalseTarget)
		return aok2 == bok2 && af == bf
	case *PhiInstr:
		bv := b.(*PhiInstr)
		if len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !equalValue(c, av.Args[i].Value, bv.Args[i].Value) {
				return false
			}
			abi, aok := c.blockOf(0, av.Args[i].Block)
			bbi, bok := c.blockOf(1, bv.Args[i].Block)
			if aok != bok || abi != bbi {
				return false
			}
		}
		return true
	default:
		au, bu := a.Uses(), b.Uses()
		if len(au) != len(bu) {
			return false
		}
		for i := range au {
			if !equalValue(c, au[i], bu[i]) {
				return false
			}
		}
		return sameOperator(a, b)
	}
}

// sameOperator compares the non-operand fields (chosen operator variant)
// carried by instruction kinds that have one.
func sameOperator(a, b Instr) bool {
	switch av := a.(type) {
	case *BBinInstr:
		return av.BOp == b.(*BBinInstr).BOp
	case *IUnaryInstr:
		return av.IOp == b.(*IUnaryInstr).IOp
	case *ICmpInstr:
		return av.COp == b.(*ICmpInstr).COp
	case *IBinInstr:
		return av.IOp == b.(*IBinInstr).IOp
	case *IShiftInstr:
		return av.SOp == b.(*IShiftInstr).SOp
	default:
		return true
	}
}

func equalValue(c *canonicalizer, a, b Value) bool {
	if !Identical(a.Type(), b.Type()) {
		return false
	}
	switch av := a.(type) {
	case *Computed:
		bv, ok := b.(*Computed)
		if !ok {
			return false
		}
		ai, aok := c.valueOf(0, av)
		bi, bok := c.valueOf(1, bv)
		return aok == bok && ai == bi
	case *BoolConst:
		bv, ok := b.(*BoolConst)
		return ok && av.Val == bv.Val
	case *IntConst:
		bv, ok := b.(*IntConst)
		return ok && av.Val == bv.Val
	case *AddrConst:
		bv, ok := b.(*AddrConst)
		return ok && av.Addr == bv.Addr
	case *FuncConst:
		bv, ok := b.(*FuncConst)
		return ok && av.Num == bv.Num
	case *StringConst:
		bv, ok := b.(*StringConst)
		return ok && av.Val == bv.Val
	default:
		return false
	}
}

// EqualPrograms reports whether a and b have the same functions (by
// position) under EqualFunctions, ignoring literal function numbers.
func EqualPrograms(a, b *Program) bool {
	if len(a.Functions) != len(b.Functions) {
		return false
	}
	for i := range a.Functions {
		if a.Functions[i].Name != b.Functions[i].Name {
			return false
		}
		if !EqualFunctions(a.Functions[i], b.Functions[i]) {
			return false
		}
	}
	return true
}
