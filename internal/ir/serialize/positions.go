package serialize

import "ssair/internal/source"

// InstrPositions is the position bundle for one instruction (spec.md §4.1):
// the opcode's range, each defined/used value's range individually, and the
// range spanning the whole defined/used list, so a diagnostic can underline
// either a single operand or "the whole operand list".
type InstrPositions struct {
	Opcode  source.Range
	Defs    []source.Range
	DefsAll source.Range
	Uses    []source.Range
	UsesAll source.Range
	Whole   source.Range
}

// Operand returns the range of the idx'th used value, or source.NoRange if
// out of bounds — the generic form of the "destination-true operand of a
// jcc" style helper named in spec.md §4.1.
func (p InstrPositions) Operand(idx int) source.Range {
	if idx < 0 || idx >= len(p.Uses) {
		return source.NoRange
	}
	return p.Uses[idx]
}

// Def returns the range of the idx'th defined value, or source.NoRange.
func (p InstrPositions) Def(idx int) source.Range {
	if idx < 0 || idx >= len(p.Defs) {
		return source.NoRange
	}
	return p.Defs[idx]
}

// BlockPositions is the position bundle for one block.
type BlockPositions struct {
	Num    source.Range
	Name   source.Range
	Body   source.Range
	Instrs []InstrPositions
}

// FuncPositions is the position bundle for one function.
type FuncPositions struct {
	Num         source.Range
	Name        source.Range
	ArgsAll     source.Range
	Args        []source.Range
	ResultsAll  source.Range
	Results     []source.Range
	Body        source.Range
	Blocks      []BlockPositions
}

// ProgramPositions is the position bundle for a whole parsed/printed program,
// indexed by the position of each function within Program.Functions.
type ProgramPositions struct {
	Funcs []FuncPositions
}
