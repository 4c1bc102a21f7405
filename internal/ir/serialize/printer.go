package serialize

import (
	"fmt"
	"strings"

	"ssair/internal/ir"
	"ssair/internal/source"
)

// Printer renders a program to its canonical text form, building the same
// position-bundle shape the parser does (spec.md §4.1, §4.3.4): every
// range it reports covers bytes of the string Print returns, with byte
// offset i reported as source.Pos i+1 (see rangeSince), so the ranges match
// the positions of that text added as the first file of a fresh
// source.FileSet.
type Printer struct {
	buf strings.Builder
}

// Print renders prog and returns the text plus its position bundle.
// Positions in the bundle are the returned string's byte offsets plus one.
func Print(prog *ir.Program) (string, *ProgramPositions) {
	p := &Printer{}
	out := &ProgramPositions{}
	for i, f := range prog.Functions {
		if i > 0 {
			p.buf.WriteString("\n")
		}
		out.Funcs = append(out.Funcs, p.printFunc(f))
	}
	return p.buf.String(), out
}

func (p *Printer) off() int { return p.buf.Len() }

// rangeSince converts a [start, off()) byte span into a source.Range. Byte
// offsets are shifted by one: source.Pos 0 is reserved as NoPos, matching
// FileSet's first file starting at position 1, so a printed program's
// ranges compose correctly with a FileSet position once the text is fed
// back through Parse.
func (p *Printer) rangeSince(start int) source.Range {
	return source.Range{Start: source.Pos(start + 1), End: source.Pos(p.off())}
}

func (p *Printer) printFunc(f *ir.Function) FuncPositions {
	fp := FuncPositions{}
	start := p.off()
	p.buf.WriteString("@")
	p.buf.WriteString(fmt.Sprintf("%d", f.Num))
	fp.Num = p.rangeSince(start)

	if f.Name != "" {
		p.buf.WriteString(" ")
		nameStart := p.off()
		p.buf.WriteString(f.Name)
		fp.Name = p.rangeSince(nameStart)
	}

	argsStart := p.off()
	p.buf.WriteString("(")
	for i, a := range f.Args {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		argStart := p.off()
		p.buf.WriteString(a.String())
		p.buf.WriteString(":")
		p.buf.WriteString(a.Typ.String())
		fp.Args = append(fp.Args, p.rangeSince(argStart))
	}
	p.buf.WriteString(")")
	fp.ArgsAll = p.rangeSince(argsStart)

	p.buf.WriteString(" => ")

	resultsStart := p.off()
	p.buf.WriteString("(")
	for i, r := range f.Results {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		rStart := p.off()
		p.buf.WriteString(r.String())
		fp.Results = append(fp.Results, p.rangeSince(rStart))
	}
	p.buf.WriteString(")")
	fp.ResultsAll = p.rangeSince(resultsStart)

	p.buf.WriteString(" {\n")
	bodyStart := p.off()
	for _, b := range f.Blocks {
		fp.Blocks = append(fp.Blocks, p.printBlock(b))
	}
	p.buf.WriteString("}\n")
	fp.Body = p.rangeSince(bodyStart)

	return fp
}

func (p *Printer) printBlock(b *ir.Block) BlockPositions {
	bp := BlockPositions{}
	numStart := p.off()
	p.buf.WriteString(fmt.Sprintf("{%d}", b.Num))
	bp.Num = p.rangeSince(numStart)

	if b.Name != "" {
		p.buf.WriteString(" ")
		nameStart := p.off()
		p.buf.WriteString(b.Name)
		bp.Name = p.rangeSince(nameStart)
	}
	p.buf.WriteString("\n")

	bodyStart := p.off()
	for _, in := range b.Instrs {
		bp.Instrs = append(bp.Instrs, p.printInstr(in))
	}
	bp.Body = p.rangeSince(bodyStart)
	return bp
}

func (p *Printer) printInstr(in ir.Instr) InstrPositions {
	ip := InstrPositions{}
	start := p.off()
	p.buf.WriteString("  ")

	defs := in.Defs()
	if len(defs) > 0 {
		defsStart := p.off()
		for i, d := range defs {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			dStart := p.off()
			p.buf.WriteString(d.String())
			p.buf.WriteString(":")
			p.buf.WriteString(d.Typ.String())
			ip.Defs = append(ip.Defs, p.rangeSince(dStart))
		}
		ip.DefsAll = p.rangeSince(defsStart)
		p.buf.WriteString(" = ")
	}

	opStart := p.off()
	p.buf.WriteString(opName(in))
	ip.Opcode = p.rangeSince(opStart)

	usesStart := p.off()
	p.printOperands(in, &ip)
	if p.off() > usesStart {
		ip.UsesAll = p.rangeSince(usesStart)
	}

	p.buf.WriteString("\n")
	ip.Whole = p.rangeSince(start)
	return ip
}

func opName(in ir.Instr) string {
	switch v := in.(type) {
	case *ir.BBinInstr:
		return "bbin." + v.BOp.String()
	case *ir.IUnaryInstr:
		return "iunary." + v.IOp.String()
	case *ir.ICmpInstr:
		return "icmp." + v.COp.String()
	case *ir.IBinInstr:
		return "ibin." + v.IOp.String()
	case *ir.IShiftInstr:
		return "ishift." + v.SOp.String()
	default:
		return in.Op().String()
	}
}

func (p *Printer) printValue(v ir.Value) {
	switch val := v.(type) {
	case *ir.Computed:
		p.buf.WriteString(val.String())
	case *ir.Inherited:
		p.buf.WriteString(val.Value.String())
		p.buf.WriteString(fmt.Sprintf("{%d}", val.Block))
	default:
		p.buf.WriteString(v.String())
	}
}

func (p *Printer) printOperand(v ir.Value, ip *InstrPositions) {
	start := p.off()
	p.printValue(v)
	ip.Uses = append(ip.Uses, p.rangeSince(start))
}

func (p *Printer) printOperands(in ir.Instr, ip *InstrPositions) {
	writeSep := func(i int) {
		if i > 0 {
			p.buf.WriteString(", ")
		} else {
			p.buf.WriteString(" ")
		}
	}

	switch v := in.(type) {
	case *ir.JmpInstr:
		p.buf.WriteString(" ")
		start := p.off()
		p.buf.WriteString(fmt.Sprintf("{%d}", v.Target))
		ip.Uses = append(ip.Uses, p.rangeSince(start))
	case *ir.JccInstr:
		writeSep(0)
		p.printOperand(v.Cond, ip)
		for _, target := range []int{v.TrueTarget, v.FalseTarget} {
			p.buf.WriteString(", ")
			start := p.off()
			p.buf.WriteString(fmt.Sprintf("{%d}", target))
			ip.Uses = append(ip.Uses, p.rangeSince(start))
		}
	case *ir.PhiInstr:
		for i, a := range v.Args {
			writeSep(i)
			p.printOperand(a, ip)
		}
	default:
		uses := in.Uses()
		for i, u := range uses {
			writeSep(i)
			p.printOperand(u, ip)
		}
	}
}
