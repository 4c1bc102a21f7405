package serialize

import (
	"strconv"

	"ssair/internal/ir"
	"ssair/internal/issue"
	"ssair/internal/source"
)

// Parser is a recursive-descent, one-token-lookahead parser for the grammar
// of spec.md §4.3.2. It never aborts: on an unexpected token it reports a
// diagnostic and resynchronizes to the next newline or closing brace, then
// continues (spec.md §4.3.3).
type Parser struct {
	sc      *Scanner
	tok     Token
	file    *source.File
	tracker *issue.Tracker
	prog    *ir.Program

	funcNumOffset int

	pendingRefs []pendingBlockRef
	definedNums map[int]bool
}

type pendingBlockRef struct {
	num int
	rng source.Range
}

type funcArg struct {
	num int
	ty  ir.Type
}

// Parse reads one file's worth of IR text, appending functions into prog
// (shifted by funcNumOffset per spec.md §4.3.3's splicing contract), and
// returns the position bundle for every function it added.
func Parse(f *source.File, tracker *issue.Tracker, prog *ir.Program, funcNumOffset int) *ProgramPositions {
	p := &Parser{
		sc:            NewScanner(f, tracker),
		file:          f,
		tracker:       tracker,
		prog:          prog,
		funcNumOffset: funcNumOffset,
	}
	p.advance()

	out := &ProgramPositions{}
	for p.tok.Kind != EOF {
		if p.tok.Kind == Newline {
			p.advance()
			continue
		}
		if p.tok.Kind == At {
			fp := p.parseFunc()
			out.Funcs = append(out.Funcs, fp)
			continue
		}
		p.errorf(issue.KindUnexpectedToken, p.tok.Rng, "expected '@' to start a function, got %q", p.tok.Text)
		p.syncToNewlineOrBrace()
	}
	return out
}

func (p *Parser) advance() { p.tok = p.sc.Next() }

func (p *Parser) errorf(kind issue.Kind, r source.Range, format string, args ...any) {
	if p.tracker == nil {
		return
	}
	p.tracker.Add(kind, issue.Error, issue.OriginParser, []source.Range{r}, format, args...)
}

// syncToNewlineOrBrace discards tokens until a newline (consumed) or a
// closing brace (left for the caller to consume) to resynchronize after a
// parse error.
func (p *Parser) syncToNewlineOrBrace() {
	for p.tok.Kind != EOF && p.tok.Kind != Newline && p.tok.Kind != RBrace {
		p.advance()
	}
	if p.tok.Kind == Newline {
		p.advance()
	}
}

func (p *Parser) expect(kind Kind, what string) (Token, bool) {
	if p.tok.Kind != kind {
		p.errorf(issue.KindUnexpectedToken, p.tok.Rng, "expected %s, got %q", what, p.tok.Text)
		return p.tok, false
	}
	tok := p.tok
	p.advance()
	return tok, true
}

func (p *Parser) skipNewlines() {
	for p.tok.Kind == Newline {
		p.advance()
	}
}

// --- Func ---

func (p *Parser) parseFunc() FuncPositions {
	fp := FuncPositions{}
	atTok, _ := p.expect(At, "'@'")
	fp.Num = atTok.Rng

	requestedNum := -1
	if p.tok.Kind == Int {
		n, err := strconv.Atoi(p.tok.Text)
		if err == nil {
			requestedNum = n + p.funcNumOffset
		}
		fp.Num = fp.Num.Union(p.tok.Rng)
		p.advance()
	} else {
		p.errorf(issue.KindUnexpectedToken, p.tok.Rng, "expected function number")
	}

	name := ""
	if p.tok.Kind == Ident {
		name = p.tok.Text
		fp.Name = p.tok.Rng
		p.advance()
	}

	var args []funcArg
	if _, ok := p.expect(LParen, "'('"); ok {
		argsStart := p.tok.Rng
		for p.tok.Kind != RParen && p.tok.Kind != EOF && p.tok.Kind != Newline {
			if p.tok.Kind == Percent {
				argStart := p.tok.Rng
				p.advance()
				num := -1
				if p.tok.Kind == Int {
					if n, err := strconv.Atoi(p.tok.Text); err == nil {
						num = n
					}
					p.advance()
				}
				var ty ir.Type = ir.I64
				if p.tok.Kind == Colon {
					p.advance()
					ty = p.parseType()
				}
				args = append(args, funcArg{num: num, ty: ty})
				fp.Args = append(fp.Args, argStart.Union(p.tok.Rng))
			}
			if p.tok.Kind == Comma {
				p.advance()
				continue
			}
			break
		}
		fp.ArgsAll = argsStart.Union(p.tok.Rng)
		p.expect(RParen, "')'")
	}

	p.expect(FatArrow, "'=>'")

	var results []ir.Type
	if _, ok := p.expect(LParen, "'('"); ok {
		resultsStart := p.tok.Rng
		for p.tok.Kind != RParen && p.tok.Kind != EOF && p.tok.Kind != Newline {
			tyStart := p.tok.Rng
			ty := p.parseType()
			results = append(results, ty)
			fp.Results = append(fp.Results, tyStart.Union(p.tok.Rng))
			if p.tok.Kind == Comma {
				p.advance()
				continue
			}
			break
		}
		fp.ResultsAll = resultsStart.Union(p.tok.Rng)
		p.expect(RParen, "')'")
	}

	f := p.prog.AddFunc(requestedNum, results)
	if requestedNum >= 0 && f.Num != requestedNum {
		p.errorf(issue.KindDuplicateFuncNumber, fp.Num, "duplicate function number %d", requestedNum)
	}
	if name != "" {
		p.prog.SetFuncName(f, name)
	}
	for _, a := range args {
		f.AddArgNum(a.num, a.ty)
	}

	p.definedNums = map[int]bool{}
	p.pendingRefs = nil

	bodyStart := p.tok.Rng
	fp.Body = p.parseBody(f, &fp)
	fp.Body = bodyStart.Union(fp.Body)

	for _, ref := range p.pendingRefs {
		if !p.definedNums[ref.num] {
			p.errorf(issue.KindUnresolvedBlockReference, ref.rng, "reference to undefined block %%b%d", ref.num)
		}
	}

	f.RebuildEdges()
	return fp
}

func (p *Parser) parseBody(f *ir.Function, fp *FuncPositions) source.Range {
	start, ok := p.expect(LBrace, "'{'")
	if !ok {
		return start.Rng
	}
	p.skipNewlines()
	for p.tok.Kind == LBrace {
		bp := p.parseBlock(f)
		fp.Blocks = append(fp.Blocks, bp)
		p.skipNewlines()
	}
	end, _ := p.expect(RBrace, "'}'")
	return start.Rng.Union(end.Rng)
}

func (p *Parser) parseBlock(f *ir.Function) BlockPositions {
	bp := BlockPositions{}
	lbrace, _ := p.expect(LBrace, "'{'")
	bp.Num = lbrace.Rng

	requestedNum := -1
	if p.tok.Kind == Int {
		n, err := strconv.Atoi(p.tok.Text)
		if err == nil {
			requestedNum = n
		}
		bp.Num = bp.Num.Union(p.tok.Rng)
		p.advance()
	}
	rbrace, _ := p.expect(RBrace, "'}'")
	bp.Num = bp.Num.Union(rbrace.Rng)

	if p.tok.Kind == Ident {
		bp.Name = p.tok.Rng
		p.advance()
	}

	b := f.AddBlock(requestedNum)
	if requestedNum >= 0 {
		if p.definedNums[requestedNum] {
			p.errorf(issue.KindDuplicateBlockNumber, bp.Num, "duplicate block number %d", requestedNum)
		}
	}
	p.definedNums[b.Num] = true

	p.skipNewlines()
	bodyStart := p.tok.Rng
	for p.tok.Kind != EOF && p.tok.Kind != LBrace && p.tok.Kind != RBrace {
		ip := p.parseInstr(f, b)
		bp.Instrs = append(bp.Instrs, ip)
		p.skipNewlines()
	}
	bp.Body = bodyStart.Union(p.tok.Rng)
	return bp
}

// --- Instr ---

func (p *Parser) parseInstr(f *ir.Function, b *ir.Block) InstrPositions {
	ip := InstrPositions{}
	start := p.tok.Rng

	var defs []*ir.Computed
	// Lookahead: an instruction with results starts with '%'.
	if p.tok.Kind == Percent {
		for {
			d, dr := p.parseComputedDef(f)
			defs = append(defs, d)
			ip.Defs = append(ip.Defs, dr)
			if p.tok.Kind == Comma {
				p.advance()
				continue
			}
			break
		}
		ip.DefsAll = start.Union(p.tok.Rng)
		p.expect(Equals, "'='")
	}

	if p.tok.Kind != Ident {
		p.errorf(issue.KindUnknownInstructionName, p.tok.Rng, "expected instruction name, got %q", p.tok.Text)
		p.syncToNewlineOrBrace()
		ip.Whole = start.Union(p.tok.Rng)
		return ip
	}
	opName := p.tok.Text
	ip.Opcode = p.tok.Rng
	p.advance()

	in := p.parseOperands(opName, defs, &ip)
	if in != nil {
		b.Instrs = append(b.Instrs, in)
	}

	if p.tok.Kind == Newline {
		p.advance()
	} else if p.tok.Kind != EOF && p.tok.Kind != RBrace {
		p.errorf(issue.KindUnexpectedToken, p.tok.Rng, "expected end of instruction, got %q", p.tok.Text)
		p.syncToNewlineOrBrace()
	}
	ip.Whole = start.Union(p.tok.Rng)
	return ip
}

func (p *Parser) parseComputedDef(f *ir.Function) (*ir.Computed, source.Range) {
	start, _ := p.expect(Percent, "'%'")
	num := -1
	if p.tok.Kind == Int {
		n, err := strconv.Atoi(p.tok.Text)
		if err == nil {
			num = n
		}
		start.Rng = start.Rng.Union(p.tok.Rng)
		p.advance()
	}
	var ty ir.Type = ir.I64
	if p.tok.Kind == Colon {
		p.advance()
		ty = p.parseType()
	}
	c := f.NewComputed(num, ty)
	return c, start.Rng.Union(p.tok.Rng)
}

func (p *Parser) addBlockRef(num int, rng source.Range) int {
	p.pendingRefs = append(p.pendingRefs, pendingBlockRef{num: num, rng: rng})
	return num
}

func (p *Parser) parseBlockRef() (int, source.Range) {
	start, _ := p.expect(LBrace, "'{'")
	num := -1
	if p.tok.Kind == Int {
		n, err := strconv.Atoi(p.tok.Text)
		if err == nil {
			num = n
		}
		p.advance()
	}
	end, _ := p.expect(RBrace, "'}'")
	rng := start.Rng.Union(end.Rng)
	p.addBlockRef(num, rng)
	return num, rng
}

// parseOperands parses the operand list for opName per spec.md §3.3 and
// constructs the concrete instruction. Returns nil if the instruction name
// is unrecognized (a diagnostic has already been reported).
func (p *Parser) parseOperands(opName string, defs []*ir.Computed, ip *InstrPositions) ir.Instr {
	one := func() *ir.Computed {
		if len(defs) > 0 {
			return defs[0]
		}
		return nil
	}

	switch opName {
	case "mov":
		src, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.MovInstr{Result: one(), Src: src}
	case "conv":
		src, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.ConvInstr{Result: one(), Src: src}
	case "bnot":
		src, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.BNotInstr{Result: one(), Src: src}
	case "phi":
		var args []*ir.Inherited
		for {
			v, vr := p.parseValue()
			num, br := p.parseBlockRef()
			args = append(args, &ir.Inherited{Value: v, Block: num})
			full := vr.Union(br)
			ip.Uses = append(ip.Uses, full)
			if p.tok.Kind == Comma {
				p.advance()
				continue
			}
			break
		}
		ip.UsesAll = unionAll(ip.Uses)
		return &ir.PhiInstr{Result: one(), Args: args}
	case "bbin.and", "bbin.or":
		x, xr := p.parseValue()
		p.expect(Comma, "','")
		y, yr := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{xr, yr}, xr.Union(yr)
		bop := ir.BoolAnd
		if opName == "bbin.or" {
			bop = ir.BoolOr
		}
		return &ir.BBinInstr{Result: one(), BOp: bop, X: x, Y: y}
	case "iunary.neg", "iunary.not":
		x, xr := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{xr}, xr
		iop := ir.IntNeg
		if opName == "iunary.not" {
			iop = ir.IntNot
		}
		return &ir.IUnaryInstr{Result: one(), IOp: iop, X: x}
	case "icmp.eq", "icmp.neq", "icmp.lss", "icmp.leq", "icmp.gtr", "icmp.geq":
		x, xr := p.parseValue()
		p.expect(Comma, "','")
		y, yr := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{xr, yr}, xr.Union(yr)
		return &ir.ICmpInstr{Result: one(), COp: cmpOpNamed(opName), X: x, Y: y}
	case "ibin.add", "ibin.sub", "ibin.mul", "ibin.div", "ibin.rem", "ibin.and", "ibin.or", "ibin.xor", "ibin.andn":
		x, xr := p.parseValue()
		p.expect(Comma, "','")
		y, yr := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{xr, yr}, xr.Union(yr)
		return &ir.IBinInstr{Result: one(), IOp: binOpNamed(opName), X: x, Y: y}
	case "ishift.shl", "ishift.shr":
		x, xr := p.parseValue()
		p.expect(Comma, "','")
		off, offr := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{xr, offr}, xr.Union(offr)
		sop := ir.ShiftLeft
		if opName == "ishift.shr" {
			sop = ir.ShiftRight
		}
		return &ir.IShiftInstr{Result: one(), SOp: sop, X: x, Offset: off}
	case "poff":
		ptr, ptrR := p.parseValue()
		p.expect(Comma, "','")
		off, offR := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{ptrR, offR}, ptrR.Union(offR)
		return &ir.POffInstr{Result: one(), Ptr: ptr, Offset: off}
	case "niltest":
		x, xr := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{xr}, xr
		return &ir.NilTestInstr{Result: one(), X: x}
	case "malloc":
		size, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.MallocInstr{Result: one(), Size: size}
	case "load":
		addr, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.LoadInstr{Result: one(), Addr: addr}
	case "store":
		addr, addrR := p.parseValue()
		p.expect(Comma, "','")
		val, valR := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{addrR, valR}, addrR.Union(valR)
		return &ir.StoreInstr{Addr: addr, Val: val}
	case "free":
		addr, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.FreeInstr{Addr: addr}
	case "jmp":
		target, r := p.parseBlockRef()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.JmpInstr{Target: target}
	case "jcc":
		cond, condR := p.parseValue()
		p.expect(Comma, "','")
		t, tr := p.parseBlockRef()
		p.expect(Comma, "','")
		f, fr := p.parseBlockRef()
		ip.Uses = []source.Range{condR, tr, fr}
		ip.UsesAll = condR.Union(fr)
		return &ir.JccInstr{Cond: cond, TrueTarget: t, FalseTarget: f}
	case "syscall":
		num, numR := p.parseValue()
		uses := []source.Range{numR}
		var args []ir.Value
		for p.tok.Kind == Comma {
			p.advance()
			v, r := p.parseValue()
			args = append(args, v)
			uses = append(uses, r)
		}
		ip.Uses, ip.UsesAll = uses, unionAll(uses)
		return &ir.SyscallInstr{Result: one(), Num: num, Args: args}
	case "call":
		callee, calleeR := p.parseValue()
		uses := []source.Range{calleeR}
		var args []ir.Value
		for p.tok.Kind == Comma {
			p.advance()
			v, r := p.parseValue()
			args = append(args, v)
			uses = append(uses, r)
		}
		ip.Uses, ip.UsesAll = uses, unionAll(uses)
		return &ir.CallInstr{Results: defs, Callee: callee, Args: args}
	case "ret":
		var args []ir.Value
		var uses []source.Range
		for p.canStartValue() {
			v, r := p.parseValue()
			args = append(args, v)
			uses = append(uses, r)
			if p.tok.Kind == Comma {
				p.advance()
				continue
			}
			break
		}
		ip.Uses, ip.UsesAll = uses, unionAll(uses)
		return &ir.RetInstr{Args: args}
	case "make_shared":
		size, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.MakeSharedInstr{Result: one(), Size: size}
	case "copy_shared":
		src, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.CopySharedInstr{Result: one(), Src: src}
	case "delete_shared":
		src, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.DeleteSharedInstr{Src: src}
	case "make_unique":
		size, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.MakeUniqueInstr{Result: one(), Size: size}
	case "delete_unique":
		src, r := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{r}, r
		return &ir.DeleteUniqueInstr{Src: src}
	case "str_index":
		str, strR := p.parseValue()
		p.expect(Comma, "','")
		idx, idxR := p.parseValue()
		ip.Uses, ip.UsesAll = []source.Range{strR, idxR}, strR.Union(idxR)
		return &ir.StrIndexInstr{Result: one(), Str: str, Idx: idx}
	case "str_concat":
		var parts []ir.Value
		var uses []source.Range
		for {
			v, r := p.parseValue()
			parts = append(parts, v)
			uses = append(uses, r)
			if p.tok.Kind == Comma {
				p.advance()
				continue
			}
			break
		}
		ip.Uses, ip.UsesAll = uses, unionAll(uses)
		return &ir.StrConcatInstr{Result: one(), Parts: parts}
	default:
		p.errorf(issue.KindUnknownInstructionName, ip.Opcode, "unknown instruction %q", opName)
		p.syncToNewlineOrBrace()
		return nil
	}
}

func (p *Parser) canStartValue() bool {
	switch p.tok.Kind {
	case Percent, Hash, HexAddr, At, Str, Ident:
		return true
	default:
		return false
	}
}

func cmpOpNamed(opName string) ir.IntCmpOp {
	switch opName {
	case "icmp.eq":
		return ir.CmpEq
	case "icmp.neq":
		return ir.CmpNeq
	case "icmp.lss":
		return ir.CmpLss
	case "icmp.leq":
		return ir.CmpLeq
	case "icmp.gtr":
		return ir.CmpGtr
	default:
		return ir.CmpGeq
	}
}

func binOpNamed(opName string) ir.IntBinOp {
	switch opName {
	case "ibin.add":
		return ir.IntAdd
	case "ibin.sub":
		return ir.IntSub
	case "ibin.mul":
		return ir.IntMul
	case "ibin.div":
		return ir.IntDiv
	case "ibin.rem":
		return ir.IntRem
	case "ibin.and":
		return ir.IntAnd
	case "ibin.or":
		return ir.IntOr
	case "ibin.xor":
		return ir.IntXor
	default:
		return ir.IntAndNot
	}
}

func unionAll(rs []source.Range) source.Range {
	out := source.NoRange
	for _, r := range rs {
		out = out.Union(r)
	}
	return out
}

// --- Value / Constant / Type ---

func (p *Parser) parseValue() (ir.Value, source.Range) {
	start := p.tok.Rng
	switch p.tok.Kind {
	case Percent:
		p.advance()
		num := -1
		if p.tok.Kind == Int {
			n, err := strconv.Atoi(p.tok.Text)
			if err == nil {
				num = n
			}
			start = start.Union(p.tok.Rng)
			p.advance()
		}
		var ty ir.Type = ir.I64
		if p.tok.Kind == Colon {
			p.advance()
			ty = p.parseType()
			start = start.Union(p.tok.Rng)
		}
		return &ir.Computed{Num: num, Typ: ty}, start
	case Hash:
		p.advance()
		if p.tok.Kind == Ident && (p.tok.Text == "t" || p.tok.Text == "f") {
			val := p.tok.Text == "t"
			r := start.Union(p.tok.Rng)
			p.advance()
			return &ir.BoolConst{Val: val}, r
		}
		if p.tok.Kind == Int {
			n, _ := strconv.ParseInt(p.tok.Text, 10, 64)
			r := start.Union(p.tok.Rng)
			p.advance()
			var ty ir.Type = ir.I64
			if p.tok.Kind == Colon {
				p.advance()
				ty = p.parseType()
				r = r.Union(p.tok.Rng)
			}
			return &ir.IntConst{Val: uint64(n), Typ: ty}, r
		}
		p.errorf(issue.KindUnexpectedToken, p.tok.Rng, "expected boolean or integer constant")
		return &ir.IntConst{Val: 0, Typ: ir.I64}, start
	case HexAddr:
		text := p.tok.Text
		r := start
		p.advance()
		n, _ := strconv.ParseUint(text[2:], 16, 64)
		return &ir.AddrConst{Addr: n}, r
	case At:
		p.advance()
		num := -1
		if p.tok.Kind == Int {
			n, err := strconv.Atoi(p.tok.Text)
			if err == nil {
				num = n
				if num >= 0 {
					num += p.funcNumOffset
				}
			}
			start = start.Union(p.tok.Rng)
			p.advance()
		}
		return &ir.FuncConst{Num: num}, start
	case Ident:
		if p.tok.Text == "nil" {
			r := p.tok.Rng
			p.advance()
			return &ir.FuncConst{Num: -1}, r
		}
		p.errorf(issue.KindUnexpectedToken, p.tok.Rng, "unexpected identifier %q in value position", p.tok.Text)
		p.advance()
		return &ir.IntConst{Val: 0, Typ: ir.I64}, start
	case Str:
		val := p.tok.Text
		r := p.tok.Rng
		p.advance()
		return &ir.StringConst{Val: val}, r
	default:
		p.errorf(issue.KindUnexpectedToken, p.tok.Rng, "expected a value, got %q", p.tok.Text)
		return &ir.IntConst{Val: 0, Typ: ir.I64}, start
	}
}

func (p *Parser) parseType() ir.Type {
	if p.tok.Kind != Ident {
		p.errorf(issue.KindUnknownTypeName, p.tok.Rng, "expected a type name, got %q", p.tok.Text)
		return ir.I64
	}
	name := p.tok.Text
	p.advance()

	switch name {
	case "b":
		return ir.Bool
	case "ptr":
		return ir.Ptr
	case "func":
		return ir.Func
	case "lstr":
		return ir.Str
	case "ltypeid":
		return ir.TypeID
	case "lshared_ptr":
		p.expect(Less, "'<'")
		elem := p.parseType()
		p.expect(Comma, "','")
		strength := ir.Strong
		if p.tok.Kind == Ident && p.tok.Text == "w" {
			strength = ir.Weak
		}
		p.advance()
		p.expect(Greater, "'>'")
		return p.prog.Types.Intern(&ir.SharedPointerType{Elem: elem, Strength: strength})
	case "lunique_ptr":
		p.expect(Less, "'<'")
		elem := p.parseType()
		p.expect(Greater, "'>'")
		return p.prog.Types.Intern(&ir.UniquePointerType{Elem: elem})
	case "larray":
		p.expect(Less, "'<'")
		elem := p.parseType()
		var count *int64
		if p.tok.Kind == Comma {
			p.advance()
			if p.tok.Kind == Int {
				n, _ := strconv.ParseInt(p.tok.Text, 10, 64)
				count = &n
				p.advance()
			}
		}
		p.expect(Greater, "'>'")
		return p.prog.Types.Intern(&ir.ArrayType{Elem: elem, Count: count})
	case "lstruct":
		var fields []ir.StructField
		if p.tok.Kind == Less {
			p.advance()
			for p.tok.Kind != Greater && p.tok.Kind != EOF {
				fname := p.tok.Text
				p.expect(Ident, "field name")
				p.expect(Colon, "':'")
				fty := p.parseType()
				fields = append(fields, ir.StructField{Name: fname, Type: fty})
				if p.tok.Kind == Comma {
					p.advance()
					continue
				}
				break
			}
			p.expect(Greater, "'>'")
		}
		return p.prog.Types.Intern(&ir.StructType{Fields: fields})
	case "linterface":
		var methods []ir.MethodSignature
		if p.tok.Kind == Less {
			p.advance()
			for p.tok.Kind != Greater && p.tok.Kind != EOF {
				mname := p.tok.Text
				p.expect(Ident, "method name")
				p.expect(LParen, "'('")
				var params []ir.Type
				for p.tok.Kind != RParen && p.tok.Kind != EOF {
					params = append(params, p.parseType())
					if p.tok.Kind == Comma {
						p.advance()
						continue
					}
					break
				}
				p.expect(RParen, "')'")
				p.expect(FatArrow, "'=>'")
				p.expect(LParen, "'('")
				var results []ir.Type
				for p.tok.Kind != RParen && p.tok.Kind != EOF {
					results = append(results, p.parseType())
					if p.tok.Kind == Comma {
						p.advance()
						continue
					}
					break
				}
				p.expect(RParen, "')'")
				methods = append(methods, ir.MethodSignature{Name: mname, Params: params, Results: results})
				if p.tok.Kind == Comma {
					p.advance()
					continue
				}
				break
			}
			p.expect(Greater, "'>'")
		}
		return p.prog.Types.Intern(&ir.InterfaceType{Methods: methods})
	default:
		if ty, ok := ir.IntTypeNamed(name); ok {
			return ty
		}
		p.errorf(issue.KindUnknownTypeName, p.tok.Rng, "unknown type name %q", name)
		return ir.I64
	}
}
