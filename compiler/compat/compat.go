package compat

import (
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	binKey struct {
		L, R tp.Type
		Op   ir.Op
	}

	unKey struct {
		T  tp.Type
		Op ir.Op
	}
)

var (
	binary = map[binKey]tp.Type{}
	unary  = map[unKey]tp.Type{}
)

var (
	arith = []ir.Op{ir.Sum, ir.Sub, ir.Mult, ir.Div}
	order = []ir.Op{ir.Gt, ir.Lt, ir.Gte, ir.Lte}
	equal = []ir.Op{ir.Eq, ir.Neq}
	logic = []ir.Op{ir.And, ir.Or}
)

func init() {
	sym := func(l, r tp.Type, res tp.Type, ops ...ir.Op) {
		for _, op := range ops {
			binary[binKey{l, r, op}] = res
			binary[binKey{r, l, op}] = res
		}
	}

	sym(tp.Int, tp.Int, tp.Int, arith...)
	sym(tp.Int, tp.Float, tp.Float, arith...)
	sym(tp.Int, tp.Char, tp.Int, arith...)
	sym(tp.Float, tp.Float, tp.Float, arith...)
	sym(tp.Float, tp.Char, tp.Float, arith...)
	sym(tp.Char, tp.Char, tp.Int, arith...)

	sym(tp.String, tp.String, tp.String, ir.Sum)

	for _, l := range []tp.Type{tp.Int, tp.Float, tp.Char} {
		for _, r := range []tp.Type{tp.Int, tp.Float, tp.Char} {
			sym(l, r, tp.Bool, order...)
			sym(l, r, tp.Bool, equal...)
		}
	}

	sym(tp.Bool, tp.Bool, tp.Bool, equal...)
	sym(tp.Bool, tp.Bool, tp.Bool, logic...)
	sym(tp.String, tp.String, tp.Bool, equal...)

	// Assignment is directional: the left operand is the destination.
	assign := func(dst tp.Type, srcs ...tp.Type) {
		for _, src := range srcs {
			binary[binKey{dst, src, ir.Assign}] = dst
		}
	}

	assign(tp.Int, tp.Int, tp.Char)
	assign(tp.Float, tp.Float, tp.Int, tp.Char)
	assign(tp.Char, tp.Char)
	assign(tp.Bool, tp.Bool)
	assign(tp.String, tp.String)

	for _, t := range tp.Primitives {
		// Arguments are bound to parameters of exactly the same type.
		binary[binKey{t, t, ir.Param}] = t

		unary[unKey{t, ir.Read}] = t
		unary[unKey{t, ir.Write}] = t
		unary[unKey{t, ir.Return}] = t
	}

	// Array index pseudo operators work on integers only.
	binary[binKey{tp.Int, tp.Int, ir.Ver}] = tp.Int

	unary[unKey{tp.Bool, ir.Not}] = tp.Bool
	unary[unKey{tp.Bool, ir.GotoF}] = tp.Bool
	unary[unKey{tp.Int, ir.Neg}] = tp.Int
	unary[unKey{tp.Float, ir.Neg}] = tp.Float
}

// Binary returns the type of l op r, or tp.Invalid if the combination is not allowed.
func Binary(l, r tp.Type, op ir.Op) tp.Type {
	t, ok := binary[binKey{l, r, op}]
	if !ok {
		return tp.Invalid
	}

	return t
}

// Unary returns the type of op t, or tp.Invalid if the combination is not allowed.
func Unary(t tp.Type, op ir.Op) tp.Type {
	res, ok := unary[unKey{t, op}]
	if !ok {
		return tp.Invalid
	}

	return res
}
