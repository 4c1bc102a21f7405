package ir

// Program is a whole unit: a set of functions sharing one type table and
// one designated entry function (spec.md §3.5, §4.3.3 — "main", if present,
// is the entry point).
type Program struct {
	Functions []*Function
	Types     *TypeTable

	EntryFuncNum int // -1 if no entry function has been designated
	entryName    string

	nextFuncNum int
	funcByNum   map[int]*Function
}

// NewProgram creates an empty program with a fresh type table.
func NewProgram() *Program {
	return &Program{
		Types:        NewTypeTable(),
		EntryFuncNum: -1,
		funcByNum:    make(map[int]*Function),
	}
}

// AddFunc appends a new function, issuing it requested's number if
// non-negative and free, else the next free function number.
func (p *Program) AddFunc(requested int, results []Type) *Function {
	num := requested
	if num < 0 || p.funcByNum[num] != nil {
		num = p.nextFuncNum
	}
	if num >= p.nextFuncNum {
		p.nextFuncNum = num + 1
	}
	f := NewFunction(num, results)
	p.Functions = append(p.Functions, f)
	p.funcByNum[num] = f
	if f.Name == "main" {
		p.EntryFuncNum = num
	}
	return f
}

// SetFuncName records a function's name and, if it is "main", designates
// it the program's entry point (spec.md §4.3.3).
func (p *Program) SetFuncName(f *Function, name string) {
	f.Name = name
	if name == "main" {
		p.EntryFuncNum = f.Num
	}
}

// FuncByNum finds a function by number, or nil if there is none.
func (p *Program) FuncByNum(num int) *Function { return p.funcByNum[num] }

// EntryFunc returns the designated entry function, or nil if none was
// named "main".
func (p *Program) EntryFunc() *Function {
	if p.EntryFuncNum < 0 {
		return nil
	}
	return p.funcByNum[p.EntryFuncNum]
}

func (p *Program) String() string {
	s := ""
	for _, f := range p.Functions {
		s += f.String() + "\n"
	}
	return s
}
