package parse

import (
	"strconv"

	"github.com/ernestognw/Teampp/compiler/front"
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/tp"
)

var (
	logicOps   = map[string]ir.Op{"&&": ir.And, "||": ir.Or}
	compareOps = map[string]ir.Op{"==": ir.Eq, "!=": ir.Neq, "<": ir.Lt, "<=": ir.Lte, ">": ir.Gt, ">=": ir.Gte}
	termOps    = map[string]ir.Op{"+": ir.Sum, "-": ir.Sub}
	factorOps  = map[string]ir.Op{"*": ir.Mult, "/": ir.Div}
	unaryOps   = map[string]ir.Op{"!": ir.Not, "-": ir.Neg}
)

func (s *State) expr() error {
	return s.level(front.LevelLogic, logicOps, s.compare)
}

func (s *State) compare() (err error) {
	err = s.term()
	if err != nil {
		return err
	}

	op, ok := s.operator(compareOps)
	if !ok {
		return nil
	}

	err = s.f.PushOperator(op)
	if err != nil {
		return err
	}

	err = s.term()
	if err != nil {
		return err
	}

	return s.f.Collapse(front.LevelCompare)
}

func (s *State) term() error {
	return s.level(front.LevelTerm, termOps, s.factor)
}

func (s *State) factor() error {
	return s.level(front.LevelFactor, factorOps, s.unary)
}

// level parses left associative operators of one precedence level.
// The operator is generated as soon as its right operand is complete.
func (s *State) level(lvl int, ops map[string]ir.Op, operand func() error) (err error) {
	err = operand()
	if err != nil {
		return err
	}

	for {
		op, ok := s.operator(ops)
		if !ok {
			return nil
		}

		err = s.f.PushOperator(op)
		if err != nil {
			return err
		}

		err = operand()
		if err != nil {
			return err
		}

		err = s.f.Collapse(lvl)
		if err != nil {
			return err
		}
	}
}

func (s *State) unary() (err error) {
	op, ok := s.operator(unaryOps)
	if !ok {
		return s.primary()
	}

	err = s.f.PushOperator(op)
	if err != nil {
		return err
	}

	err = s.unary()
	if err != nil {
		return err
	}

	return s.f.Collapse(front.LevelUnary)
}

func (s *State) primary() (err error) {
	t := s.peek()

	switch t.kind {
	case intLit:
		s.next()

		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return s.errorf("bad int %v", t.text)
		}

		return s.f.PushConst(tp.Int, v)
	case floatLit:
		s.next()

		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return s.errorf("bad float %v", t.text)
		}

		return s.f.PushConst(tp.Float, v)
	case charLit:
		s.next()

		r := []rune(t.text)
		if len(r) != 1 {
			return s.errorf("bad char literal %q", t.text)
		}

		return s.f.PushConst(tp.Char, r[0])
	case stringLit:
		s.next()

		return s.f.PushConst(tp.String, t.text)
	case punct:
		if !t.is("(") {
			break
		}

		s.next()
		s.f.OpenGroup()

		err = s.expr()
		if err != nil {
			return err
		}

		err = s.expect(")")
		if err != nil {
			return err
		}

		return s.f.CloseGroup()
	case ident:
		switch {
		case t.is("true"), t.is("false"):
			s.next()

			return s.f.PushConst(tp.Bool, t.text == "true")
		case s.peekN(1).is("("):
			s.next()

			return s.call(t.text, false)
		default:
			return s.ref()
		}
	}

	return s.errorf("expression expected, got %v", t)
}

// ref is a variable reference: a.b.c[i][j]
func (s *State) ref() (err error) {
	name, err := s.ident()
	if err != nil {
		return err
	}

	err = s.f.Var(name)
	if err != nil {
		return err
	}

	for s.skip(".") {
		name, err = s.ident()
		if err != nil {
			return err
		}

		err = s.f.Member(name)
		if err != nil {
			return err
		}
	}

	for s.skip("[") {
		err = s.f.IndexStart()
		if err != nil {
			return err
		}

		err = s.expr()
		if err != nil {
			return err
		}

		err = s.expect("]")
		if err != nil {
			return err
		}

		err = s.f.IndexEnd()
		if err != nil {
			return err
		}
	}

	return s.f.VarEnd()
}

// call parses arguments after the callee name.
func (s *State) call(name string, discard bool) (err error) {
	err = s.f.CallStart(name)
	if err != nil {
		return err
	}

	err = s.expect("(")
	if err != nil {
		return err
	}

	for i := 0; !s.skip(")"); i++ {
		if i != 0 {
			err = s.expect(",")
			if err != nil {
				return err
			}
		}

		err = s.expr()
		if err != nil {
			return err
		}

		err = s.f.Argument()
		if err != nil {
			return err
		}
	}

	return s.f.CallEnd(discard)
}

func (s *State) operator(ops map[string]ir.Op) (ir.Op, bool) {
	t := s.peek()
	if t.kind != punct {
		return 0, false
	}

	op, ok := ops[t.text]
	if ok {
		s.next()
	}

	return op, ok
}
