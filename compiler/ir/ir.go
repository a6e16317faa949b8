package ir

import (
	"fmt"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/tlog/tlwire"

	"github.com/ernestognw/Teampp/compiler/mem"
)

type (
	Op int

	Kind int8

	// Operand is one slot of a quadruple.
	Operand struct {
		Kind Kind
		V    int64
	}

	Quad struct {
		Op   Op
		Arg1 Operand
		Arg2 Operand
		Res  Operand
	}

	// Program is the compiled artifact handed to the vm.
	Program struct {
		Name string

		Quads []Quad

		Layout mem.Layout
		Consts map[mem.Addr]any
	}
)

const (
	Nop Op = iota

	Sum
	Sub
	Mult
	Div
	Eq
	Neq
	Gte
	Lte
	Gt
	Lt
	And
	Or

	Not
	Neg

	Assign
	Read
	Write

	Goto
	GotoF

	Era
	Param
	Gosub
	Return
	EndFunc

	Ver
	AddDim

	numOps
)

const (
	Empty Kind = iota
	Addr
	Indirect // address of a temp holding the target address
	Label    // instruction index
	Lit      // immediate integer
)

var opNames = [...]string{
	Nop:     "NOP",
	Sum:     "SUM",
	Sub:     "SUB",
	Mult:    "MULT",
	Div:     "DIV",
	Eq:      "EQ",
	Neq:     "NEQ",
	Gte:     "GTE",
	Lte:     "LTE",
	Gt:      "GT",
	Lt:      "LT",
	And:     "AND",
	Or:      "OR",
	Not:     "NOT",
	Neg:     "NEG",
	Assign:  "EQUAL",
	Read:    "READ",
	Write:   "WRITE",
	Goto:    "GOTO",
	GotoF:   "GOTOF",
	Era:     "ERA",
	Param:   "PARAM",
	Gosub:   "GOSUB",
	Return:  "RETURN",
	EndFunc: "ENDFUNC",
	Ver:     "VER",
	AddDim:  "ADDDIM",
}

var None = Operand{}

func A(a mem.Addr) Operand  { return Operand{Kind: Addr, V: int64(a)} }
func Ptr(a mem.Addr) Operand { return Operand{Kind: Indirect, V: int64(a)} }
func L(i int) Operand        { return Operand{Kind: Label, V: int64(i)} }
func N(n int64) Operand      { return Operand{Kind: Lit, V: n} }

func (o Operand) IsEmpty() bool { return o.Kind == Empty }

// Address is the address the operand names (the pointer cell for Indirect).
func (o Operand) Address() mem.Addr { return mem.Addr(o.V) }

func (o Operand) Int() int { return int(o.V) }

func (o Operand) String() string {
	switch o.Kind {
	case Empty:
		return "-"
	case Addr:
		return strconv.FormatInt(o.V, 10)
	case Indirect:
		return "(" + strconv.FormatInt(o.V, 10) + ")"
	case Label:
		return "@" + strconv.FormatInt(o.V, 10)
	case Lit:
		return "#" + strconv.FormatInt(o.V, 10)
	}

	return fmt.Sprintf("operand(%d:%d)", o.Kind, o.V)
}

func (o Operand) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if o.Kind == Empty {
		return e.AppendNil(b)
	}

	return e.AppendFormat(b, "%v", o)
}

func (op Op) String() string {
	if op < 0 || op >= numOps {
		return "op(" + strconv.Itoa(int(op)) + ")"
	}

	return opNames[op]
}

func (q Quad) String() string {
	return fmt.Sprintf("%-8v %6v %6v %6v", q.Op, q.Arg1, q.Arg2, q.Res)
}

func (q Quad) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)

	b = e.AppendKey(b, "op")
	b = e.AppendString(b, q.Op.String())

	b = e.AppendKey(b, "a1")
	b = q.Arg1.TlogAppend(b)

	b = e.AppendKey(b, "a2")
	b = q.Arg2.TlogAppend(b)

	b = e.AppendKey(b, "res")
	b = q.Res.TlogAppend(b)

	return b
}

// Entry is the instruction where execution begins.
func (p *Program) Entry() int {
	if len(p.Quads) != 0 && p.Quads[0].Op == Goto && p.Quads[0].Res.Kind == Label {
		return p.Quads[0].Res.Int()
	}

	return 0
}

// Append appends a numbered listing of the program.
func (p *Program) Append(b []byte) []byte {
	b = hfmt.Appendf(b, "// program %s: %d quadruples, %d constants\n", p.Name, len(p.Quads), len(p.Consts))

	for i, q := range p.Quads {
		b = hfmt.Appendf(b, "%4d  %v\n", i, q)
	}

	return b
}
