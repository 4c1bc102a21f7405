package ir

import (
	"fmt"
	"strings"

	"ssair/internal/source"
)

// Op identifies an instruction's operation (spec.md §3.3). Per-op behavior
// is reached by switching on Op(), never by a type hierarchy of behavior.
type Op int

const (
	OpMov Op = iota
	OpPhi
	OpConv
	OpBNot
	OpBBin
	OpIUnary
	OpICmp
	OpIBin
	OpIShift
	OpPOff
	OpNilTest
	OpMalloc
	OpLoad
	OpStore
	OpFree
	OpJmp
	OpJcc
	OpSyscall
	OpCall
	OpRet

	// Extension instructions (spec.md §3.3, §4.5).
	OpMakeShared
	OpCopyShared
	OpDeleteShared
	OpMakeUnique
	OpDeleteUnique
	OpStrIndex
	OpStrConcat
)

func (o Op) String() string {
	switch o {
	case OpMov:
		return "mov"
	case OpPhi:
		return "phi"
	case OpConv:
		return "conv"
	case OpBNot:
		return "bnot"
	case OpBBin:
		return "bbin"
	case OpIUnary:
		return "iunary"
	case OpICmp:
		return "icmp"
	case OpIBin:
		return "ibin"
	case OpIShift:
		return "ishift"
	case OpPOff:
		return "poff"
	case OpNilTest:
		return "niltest"
	case OpMalloc:
		return "malloc"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpFree:
		return "free"
	case OpJmp:
		return "jmp"
	case OpJcc:
		return "jcc"
	case OpSyscall:
		return "syscall"
	case OpCall:
		return "call"
	case OpRet:
		return "ret"
	case OpMakeShared:
		return "make_shared"
	case OpCopyShared:
		return "copy_shared"
	case OpDeleteShared:
		return "delete_shared"
	case OpMakeUnique:
		return "make_unique"
	case OpDeleteUnique:
		return "delete_unique"
	case OpStrIndex:
		return "str_index"
	case OpStrConcat:
		return "str_concat"
	default:
		return "?"
	}
}

// IsExtension reports whether op belongs to the extension instruction set
// rather than the core instruction set (spec.md §4.5's extension checker
// dispatches only on these).
func (o Op) IsExtension() bool {
	return o >= OpMakeShared
}

// IsTerminator reports whether op ends a block's control flow (spec.md §3.4).
func (o Op) IsTerminator() bool {
	switch o {
	case OpJmp, OpJcc, OpRet:
		return true
	default:
		return false
	}
}

// Instr is one IR instruction: a fixed operand layout plus the operations
// every pass needs regardless of concrete kind (spec.md §3.3).
type Instr interface {
	Op() Op
	// Defs returns the values this instruction defines, in result order.
	Defs() []*Computed
	// Uses returns the values this instruction reads, in operand order. For
	// phi this is the inherited-value list; its origin blocks are read off
	// each Inherited rather than listed separately.
	Uses() []Value
	// Range is the source range this instruction was parsed from, or
	// source.NoRange for synthesized instructions.
	Range() source.Range
	String() string
}

// base carries the one field every concrete instruction needs regardless of
// op: its source range, for diagnostics.
type base struct {
	Rng source.Range
}

func (b base) Range() source.Range { return b.Rng }

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func joinComputed(vs []*Computed) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// MovInstr copies Src into Result unchanged.
type MovInstr struct {
	base
	Result *Computed
	Src    Value
}

func (i *MovInstr) Op() Op             { return OpMov }
func (i *MovInstr) Defs() []*Computed  { return []*Computed{i.Result} }
func (i *MovInstr) Uses() []Value      { return []Value{i.Src} }
func (i *MovInstr) String() string {
	return fmt.Sprintf("%s = mov %s", i.Result, i.Src)
}

// PhiInstr selects among Args by which predecessor control arrived from.
type PhiInstr struct {
	base
	Result *Computed
	Args   []*Inherited
}

func (i *PhiInstr) Op() Op            { return OpPhi }
func (i *PhiInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *PhiInstr) Uses() []Value {
	vs := make([]Value, len(i.Args))
	for k, a := range i.Args {
		vs[k] = a
	}
	return vs
}
func (i *PhiInstr) String() string {
	return fmt.Sprintf("%s = phi %s", i.Result, joinValues(i.Uses()))
}

// ConvInstr reinterprets/converts Src to Result's type.
type ConvInstr struct {
	base
	Result *Computed
	Src    Value
}

func (i *ConvInstr) Op() Op            { return OpConv }
func (i *ConvInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *ConvInstr) Uses() []Value     { return []Value{i.Src} }
func (i *ConvInstr) String() string {
	return fmt.Sprintf("%s = conv %s", i.Result, i.Src)
}

// BNotInstr is boolean negation.
type BNotInstr struct {
	base
	Result *Computed
	Src    Value
}

func (i *BNotInstr) Op() Op            { return OpBNot }
func (i *BNotInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *BNotInstr) Uses() []Value     { return []Value{i.Src} }
func (i *BNotInstr) String() string {
	return fmt.Sprintf("%s = bnot %s", i.Result, i.Src)
}

// BoolBinOp is a binary boolean operator.
type BoolBinOp int

const (
	BoolAnd BoolBinOp = iota
	BoolOr
)

func (o BoolBinOp) String() string {
	if o == BoolAnd {
		return "and"
	}
	return "or"
}

// BBinInstr is a binary boolean operation.
type BBinInstr struct {
	base
	Result *Computed
	BOp    BoolBinOp
	X, Y   Value
}

func (i *BBinInstr) Op() Op            { return OpBBin }
func (i *BBinInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *BBinInstr) Uses() []Value     { return []Value{i.X, i.Y} }
func (i *BBinInstr) String() string {
	return fmt.Sprintf("%s = bbin.%s %s, %s", i.Result, i.BOp, i.X, i.Y)
}

// IntUnaryOp is a unary integer operator.
type IntUnaryOp int

const (
	IntNeg IntUnaryOp = iota
	IntNot
)

func (o IntUnaryOp) String() string {
	if o == IntNeg {
		return "neg"
	}
	return "not"
}

// IUnaryInstr is a unary integer operation.
type IUnaryInstr struct {
	base
	Result *Computed
	IOp    IntUnaryOp
	X      Value
}

func (i *IUnaryInstr) Op() Op            { return OpIUnary }
func (i *IUnaryInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *IUnaryInstr) Uses() []Value     { return []Value{i.X} }
func (i *IUnaryInstr) String() string {
	return fmt.Sprintf("%s = iunary.%s %s", i.Result, i.IOp, i.X)
}

// IntCmpOp is an integer comparison operator.
type IntCmpOp int

const (
	CmpEq IntCmpOp = iota
	CmpNeq
	CmpLss
	CmpLeq
	CmpGtr
	CmpGeq
)

func (o IntCmpOp) String() string {
	switch o {
	case CmpEq:
		return "eq"
	case CmpNeq:
		return "neq"
	case CmpLss:
		return "lss"
	case CmpLeq:
		return "leq"
	case CmpGtr:
		return "gtr"
	case CmpGeq:
		return "geq"
	default:
		return "?"
	}
}

// ICmpInstr is an integer comparison producing a bool.
type ICmpInstr struct {
	base
	Result *Computed
	COp    IntCmpOp
	X, Y   Value
}

func (i *ICmpInstr) Op() Op            { return OpICmp }
func (i *ICmpInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *ICmpInstr) Uses() []Value     { return []Value{i.X, i.Y} }
func (i *ICmpInstr) String() string {
	return fmt.Sprintf("%s = icmp.%s %s, %s", i.Result, i.COp, i.X, i.Y)
}

// IntBinOp is a binary integer arithmetic/bitwise operator.
type IntBinOp int

const (
	IntAdd IntBinOp = iota
	IntSub
	IntMul
	IntDiv
	IntRem
	IntAnd
	IntOr
	IntXor
	IntAndNot
)

func (o IntBinOp) String() string {
	switch o {
	case IntAdd:
		return "add"
	case IntSub:
		return "sub"
	case IntMul:
		return "mul"
	case IntDiv:
		return "div"
	case IntRem:
		return "rem"
	case IntAnd:
		return "and"
	case IntOr:
		return "or"
	case IntXor:
		return "xor"
	case IntAndNot:
		return "andn"
	default:
		return "?"
	}
}

// IBinInstr is a binary integer operation.
type IBinInstr struct {
	base
	Result *Computed
	IOp    IntBinOp
	X, Y   Value
}

func (i *IBinInstr) Op() Op            { return OpIBin }
func (i *IBinInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *IBinInstr) Uses() []Value     { return []Value{i.X, i.Y} }
func (i *IBinInstr) String() string {
	return fmt.Sprintf("%s = ibin.%s %s, %s", i.Result, i.IOp, i.X, i.Y)
}

// ShiftOp is a bit-shift direction.
type ShiftOp int

const (
	ShiftLeft ShiftOp = iota
	ShiftRight
)

func (o ShiftOp) String() string {
	if o == ShiftLeft {
		return "shl"
	}
	return "shr"
}

// IShiftInstr shifts X by Offset bits. Offset must be a non-negative
// constant (spec.md §4.4).
type IShiftInstr struct {
	base
	Result    *Computed
	SOp       ShiftOp
	X, Offset Value
}

func (i *IShiftInstr) Op() Op            { return OpIShift }
func (i *IShiftInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *IShiftInstr) Uses() []Value     { return []Value{i.X, i.Offset} }
func (i *IShiftInstr) String() string {
	return fmt.Sprintf("%s = ishift.%s %s, %s", i.Result, i.SOp, i.X, i.Offset)
}

// POffInstr computes Ptr + Offset (in bytes), a raw pointer-arithmetic step.
type POffInstr struct {
	base
	Result     *Computed
	Ptr, Offset Value
}

func (i *POffInstr) Op() Op            { return OpPOff }
func (i *POffInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *POffInstr) Uses() []Value     { return []Value{i.Ptr, i.Offset} }
func (i *POffInstr) String() string {
	return fmt.Sprintf("%s = poff %s, %s", i.Result, i.Ptr, i.Offset)
}

// NilTestInstr tests whether X (a pointer or func value) is nil.
type NilTestInstr struct {
	base
	Result *Computed
	X      Value
}

func (i *NilTestInstr) Op() Op            { return OpNilTest }
func (i *NilTestInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *NilTestInstr) Uses() []Value     { return []Value{i.X} }
func (i *NilTestInstr) String() string {
	return fmt.Sprintf("%s = niltest %s", i.Result, i.X)
}

// MallocInstr allocates Size bytes, producing a pointer.
type MallocInstr struct {
	base
	Result *Computed
	Size   Value
}

func (i *MallocInstr) Op() Op            { return OpMalloc }
func (i *MallocInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *MallocInstr) Uses() []Value     { return []Value{i.Size} }
func (i *MallocInstr) String() string {
	return fmt.Sprintf("%s = malloc %s", i.Result, i.Size)
}

// LoadInstr reads Result's type worth of bytes from Addr.
type LoadInstr struct {
	base
	Result *Computed
	Addr   Value
}

func (i *LoadInstr) Op() Op            { return OpLoad }
func (i *LoadInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *LoadInstr) Uses() []Value     { return []Value{i.Addr} }
func (i *LoadInstr) String() string {
	return fmt.Sprintf("%s = load %s", i.Result, i.Addr)
}

// StoreInstr writes Val's bytes to Addr. Defines nothing.
type StoreInstr struct {
	base
	Addr, Val Value
}

func (i *StoreInstr) Op() Op            { return OpStore }
func (i *StoreInstr) Defs() []*Computed { return nil }
func (i *StoreInstr) Uses() []Value     { return []Value{i.Addr, i.Val} }
func (i *StoreInstr) String() string {
	return fmt.Sprintf("store %s, %s", i.Addr, i.Val)
}

// FreeInstr releases the allocation at Addr. Defines nothing.
type FreeInstr struct {
	base
	Addr Value
}

func (i *FreeInstr) Op() Op            { return OpFree }
func (i *FreeInstr) Defs() []*Computed { return nil }
func (i *FreeInstr) Uses() []Value     { return []Value{i.Addr} }
func (i *FreeInstr) String() string {
	return fmt.Sprintf("free %s", i.Addr)
}

// JmpInstr unconditionally transfers control to Target. Terminator.
type JmpInstr struct {
	base
	Target int
}

func (i *JmpInstr) Op() Op            { return OpJmp }
func (i *JmpInstr) Defs() []*Computed { return nil }
func (i *JmpInstr) Uses() []Value     { return nil }
func (i *JmpInstr) String() string {
	return fmt.Sprintf("jmp %%b%d", i.Target)
}

// JccInstr transfers control to TrueTarget if Cond holds, else FalseTarget.
// Terminator.
type JccInstr struct {
	base
	Cond                   Value
	TrueTarget, FalseTarget int
}

func (i *JccInstr) Op() Op            { return OpJcc }
func (i *JccInstr) Defs() []*Computed { return nil }
func (i *JccInstr) Uses() []Value     { return []Value{i.Cond} }
func (i *JccInstr) String() string {
	return fmt.Sprintf("jcc %s, %%b%d, %%b%d", i.Cond, i.TrueTarget, i.FalseTarget)
}

// SyscallInstr invokes system call Num with Args, producing Result.
type SyscallInstr struct {
	base
	Result *Computed
	Num    Value
	Args   []Value
}

func (i *SyscallInstr) Op() Op            { return OpSyscall }
func (i *SyscallInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *SyscallInstr) Uses() []Value     { return append([]Value{i.Num}, i.Args...) }
func (i *SyscallInstr) String() string {
	return fmt.Sprintf("%s = syscall %s(%s)", i.Result, i.Num, joinValues(i.Args))
}

// CallInstr calls Callee with Args, producing zero or more Results.
type CallInstr struct {
	base
	Results []*Computed
	Callee  Value
	Args    []Value
}

func (i *CallInstr) Op() Op            { return OpCall }
func (i *CallInstr) Defs() []*Computed { return i.Results }
func (i *CallInstr) Uses() []Value     { return append([]Value{i.Callee}, i.Args...) }
func (i *CallInstr) String() string {
	if len(i.Results) == 0 {
		return fmt.Sprintf("call %s(%s)", i.Callee, joinValues(i.Args))
	}
	return fmt.Sprintf("%s = call %s(%s)", joinComputed(i.Results), i.Callee, joinValues(i.Args))
}

// RetInstr returns Args to the caller. Terminator.
type RetInstr struct {
	base
	Args []Value
}

func (i *RetInstr) Op() Op            { return OpRet }
func (i *RetInstr) Defs() []*Computed { return nil }
func (i *RetInstr) Uses() []Value     { return i.Args }
func (i *RetInstr) String() string {
	return fmt.Sprintf("ret %s", joinValues(i.Args))
}

// MakeSharedInstr allocates a fresh control block plus Size bytes of
// payload and produces a strong shared pointer to it (spec.md §4.5.2).
type MakeSharedInstr struct {
	base
	Result *Computed
	Size   Value
}

func (i *MakeSharedInstr) Op() Op            { return OpMakeShared }
func (i *MakeSharedInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *MakeSharedInstr) Uses() []Value     { return []Value{i.Size} }
func (i *MakeSharedInstr) String() string {
	return fmt.Sprintf("%s = make_shared %s", i.Result, i.Size)
}

// CopySharedInstr copies Src, a shared pointer, bumping the appropriate
// (strong or weak) refcount according to Result's strength.
type CopySharedInstr struct {
	base
	Result *Computed
	Src    Value
}

func (i *CopySharedInstr) Op() Op            { return OpCopyShared }
func (i *CopySharedInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *CopySharedInstr) Uses() []Value     { return []Value{i.Src} }
func (i *CopySharedInstr) String() string {
	return fmt.Sprintf("%s = copy_shared %s", i.Result, i.Src)
}

// DeleteSharedInstr drops one reference to Src, a shared pointer, freeing
// the payload and/or control block once the corresponding count reaches
// zero. Defines nothing.
type DeleteSharedInstr struct {
	base
	Src Value
}

func (i *DeleteSharedInstr) Op() Op            { return OpDeleteShared }
func (i *DeleteSharedInstr) Defs() []*Computed { return nil }
func (i *DeleteSharedInstr) Uses() []Value     { return []Value{i.Src} }
func (i *DeleteSharedInstr) String() string {
	return fmt.Sprintf("delete_shared %s", i.Src)
}

// MakeUniqueInstr allocates Size bytes and produces a unique pointer to it.
type MakeUniqueInstr struct {
	base
	Result *Computed
	Size   Value
}

func (i *MakeUniqueInstr) Op() Op            { return OpMakeUnique }
func (i *MakeUniqueInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *MakeUniqueInstr) Uses() []Value     { return []Value{i.Size} }
func (i *MakeUniqueInstr) String() string {
	return fmt.Sprintf("%s = make_unique %s", i.Result, i.Size)
}

// DeleteUniqueInstr frees the payload owned by Src, a unique pointer.
// Defines nothing.
type DeleteUniqueInstr struct {
	base
	Src Value
}

func (i *DeleteUniqueInstr) Op() Op            { return OpDeleteUnique }
func (i *DeleteUniqueInstr) Defs() []*Computed { return nil }
func (i *DeleteUniqueInstr) Uses() []Value     { return []Value{i.Src} }
func (i *DeleteUniqueInstr) String() string {
	return fmt.Sprintf("delete_unique %s", i.Src)
}

// StrIndexInstr reads the byte at Idx within Str, producing an i8.
type StrIndexInstr struct {
	base
	Result   *Computed
	Str, Idx Value
}

func (i *StrIndexInstr) Op() Op            { return OpStrIndex }
func (i *StrIndexInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *StrIndexInstr) Uses() []Value     { return []Value{i.Str, i.Idx} }
func (i *StrIndexInstr) String() string {
	return fmt.Sprintf("%s = str_index %s, %s", i.Result, i.Str, i.Idx)
}

// StrConcatInstr concatenates Parts into a fresh string.
type StrConcatInstr struct {
	base
	Result *Computed
	Parts  []Value
}

func (i *StrConcatInstr) Op() Op            { return OpStrConcat }
func (i *StrConcatInstr) Defs() []*Computed { return []*Computed{i.Result} }
func (i *StrConcatInstr) Uses() []Value     { return i.Parts }
func (i *StrConcatInstr) String() string {
	return fmt.Sprintf("%s = str_concat %s", i.Result, joinValues(i.Parts))
}

// JumpTargets returns the block numbers an instruction's control flow may
// transfer to, in the order they're encoded (jcc: true then false). Returns
// nil for non-terminators.
func JumpTargets(in Instr) []int {
	switch v := in.(type) {
	case *JmpInstr:
		return []int{v.Target}
	case *JccInstr:
		return []int{v.TrueTarget, v.FalseTarget}
	default:
		return nil
	}
}
