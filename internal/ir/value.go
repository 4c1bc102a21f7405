package ir

import "fmt"

// Value is anything an instruction can read: a constant, a computed value
// defined by some instruction, or (inside a phi only) an inherited value
// paired with the predecessor block it flows from (spec.md §3.2).
type Value interface {
	Type() Type
	String() string
	isValue()
}

// BoolConst is a literal boolean.
type BoolConst struct{ Val bool }

func (c *BoolConst) Type() Type { return Bool }
func (c *BoolConst) String() string {
	if c.Val {
		return "#t"
	}
	return "#f"
}
func (*BoolConst) isValue() {}

// IntConst is a literal integer of a fixed width/signedness. Val is stored
// as the bit pattern (so u64 can hold values signed int64 cannot). Prints
// as "#N:T" per spec.md §4.3.2/§6.2.
type IntConst struct {
	Val uint64
	Typ Type // always an *IntType
}

func (c *IntConst) Type() Type { return c.Typ }
func (c *IntConst) String() string {
	it := c.Typ.(*IntType)
	if it.Signed {
		return fmt.Sprintf("#%d:%s", int64(c.Val), it.String())
	}
	return fmt.Sprintf("#%d:%s", c.Val, it.String())
}
func (*IntConst) isValue() {}

// AddrConst is a literal pointer value, printed as 0x-prefixed hex; the
// zero address is the nil pointer (spec.md §3.2, §6.2).
type AddrConst struct{ Addr uint64 }

func (c *AddrConst) Type() Type     { return Ptr }
func (c *AddrConst) String() string { return fmt.Sprintf("0x%x", c.Addr) }
func (*AddrConst) isValue()         {}

// FuncConst is a literal reference to a function by number, or the nil
// function reference when Num is negative.
type FuncConst struct{ Num int }

func (c *FuncConst) Type() Type { return Func }
func (c *FuncConst) String() string {
	return fmt.Sprintf("@%d", c.Num)
}
func (*FuncConst) isValue() {}

// StringConst is a literal string, an extension constant.
type StringConst struct{ Val string }

func (c *StringConst) Type() Type     { return Str }
func (c *StringConst) String() string { return fmt.Sprintf("%q", c.Val) }
func (*StringConst) isValue()         {}

// Computed is a value defined by exactly one instruction somewhere in a
// function. Its identity is its pointer: the location itself, not the
// number, is what every use refers to once a program is built in memory.
// Num is the textual/debugging handle — see spec.md §3.2, §4.3.1.
type Computed struct {
	Num int
	Typ Type
}

func (v *Computed) Type() Type     { return v.Typ }
func (v *Computed) String() string { return fmt.Sprintf("%%%d", v.Num) }
func (*Computed) isValue()         {}

// Inherited is a (value, origin block) pair: one argument of a phi
// instruction, naming the value that instruction produces when control
// arrives from the named predecessor (spec.md §3.2, §3.3 phi).
type Inherited struct {
	Value Value
	Block int // block number of the origin predecessor
}

func (v *Inherited) Type() Type     { return v.Value.Type() }
func (v *Inherited) String() string { return fmt.Sprintf("%s:%%b%d", v.Value.String(), v.Block) }
func (*Inherited) isValue()         {}
