package parse

import (
	"context"
	"fmt"
	"strconv"

	"tlog.app/go/tlog"

	"github.com/ernestognw/Teampp/compiler/front"
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	// State drives semantic actions of front while reading tokens left to right.
	State struct {
		f *front.Front

		toks []token
		i    int
	}
)

// Parse reads the whole program text firing semantic actions on f.
func Parse(ctx context.Context, f *front.Front, text []byte) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse")
	defer tr.Finish("err", &err)

	toks, err := tokenize(text)
	if err != nil {
		return err
	}

	tr.Printw("tokenized", "tokens", len(toks))

	s := &State{
		f:    f,
		toks: toks,
	}

	return s.program()
}

func (s *State) program() (err error) {
	err = s.expect("program")
	if err != nil {
		return err
	}

	name, err := s.ident()
	if err != nil {
		return err
	}

	err = s.expect(";")
	if err != nil {
		return err
	}

	s.f.Start(name)

	for {
		t := s.peek()

		switch {
		case t.is("class"):
			err = s.class()
		case t.is("func"):
			err = s.function()
		case t.is("main"):
			s.next()

			err = s.f.Main()
			if err != nil {
				return err
			}

			err = s.body()
			if err != nil {
				return err
			}

			if t := s.peek(); t.kind != eof {
				return s.errorf("unexpected %v after main", t)
			}

			return nil
		case t.kind == ident:
			err = s.vars()
		default:
			return s.errorf("unexpected %v", t)
		}

		if err != nil {
			return err
		}
	}
}

func (s *State) class() (err error) {
	s.next()

	name, err := s.ident()
	if err != nil {
		return err
	}

	_, err = s.f.DeclareClass(name)
	if err != nil {
		return err
	}

	err = s.expect("{")
	if err != nil {
		return err
	}

	for !s.peek().is("}") {
		err = s.vars()
		if err != nil {
			return err
		}
	}

	s.next()
	s.skip(";")

	return s.f.LeaveScope()
}

func (s *State) function() (err error) {
	s.next()

	typ, err := s.typeName()
	if err != nil {
		return err
	}

	name, err := s.ident()
	if err != nil {
		return err
	}

	_, err = s.f.DeclareFunction(name, typ)
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

		ptyp, err := s.typeName()
		if err != nil {
			return err
		}

		pname, err := s.ident()
		if err != nil {
			return err
		}

		_, err = s.f.DeclareParam(pname, ptyp)
		if err != nil {
			return err
		}
	}

	err = s.body()
	if err != nil {
		return err
	}

	return s.f.EndFunction()
}

// body is a block with leading variable declarations.
func (s *State) body() (err error) {
	err = s.expect("{")
	if err != nil {
		return err
	}

	for s.isDecl() {
		err = s.vars()
		if err != nil {
			return err
		}
	}

	return s.stmts()
}

func (s *State) block() (err error) {
	err = s.expect("{")
	if err != nil {
		return err
	}

	return s.stmts()
}

func (s *State) stmts() (err error) {
	for !s.skip("}") {
		if s.peek().kind == eof {
			return s.errorf("unexpected end of file")
		}

		err = s.stmt()
		if err != nil {
			return err
		}
	}

	return nil
}

// isDecl reports whether a declaration starts here: a type keyword or two identifiers in a row.
func (s *State) isDecl() bool {
	t := s.peek()
	if t.kind != ident {
		return false
	}

	if typ := tp.Lookup(t.text); typ != tp.Invalid && typ != tp.Void {
		return true
	}

	if isKeyword(t.text) {
		return false
	}

	n := s.peekN(1)

	return n.kind == ident && !isKeyword(n.text)
}

// vars is a declaration: type id[dims], id2;
func (s *State) vars() (err error) {
	typ, err := s.typeName()
	if err != nil {
		return err
	}

	for i := 0; ; i++ {
		if i != 0 && !s.skip(",") {
			break
		}

		name, err := s.ident()
		if err != nil {
			return err
		}

		s.f.PushPending(name)

		for s.skip("[") {
			t := s.next()
			if t.kind != intLit {
				return s.errorf("array size expected, got %v", t)
			}

			n, err := strconv.Atoi(t.text)
			if err != nil {
				return s.errorf("bad array size %v", t.text)
			}

			err = s.f.AddPendingDim(n)
			if err != nil {
				return err
			}

			err = s.expect("]")
			if err != nil {
				return err
			}
		}
	}

	err = s.expect(";")
	if err != nil {
		return err
	}

	return s.f.DeclarePending(typ)
}

func (s *State) stmt() (err error) {
	t := s.peek()

	switch {
	case t.is("if"):
		return s.ifStmt()
	case t.is("while"):
		return s.whileStmt()
	case t.is("read"):
		return s.list(s.ref, s.f.Read)
	case t.is("write"):
		return s.list(s.expr, s.f.Write)
	case t.is("return"):
		s.next()

		if s.skip(";") {
			return s.f.Return(false)
		}

		err = s.expr()
		if err != nil {
			return err
		}

		err = s.f.Return(true)
		if err != nil {
			return err
		}

		return s.expect(";")
	case t.kind == ident && s.peekN(1).is("("):
		s.next()

		err = s.call(t.text, true)
		if err != nil {
			return err
		}

		return s.expect(";")
	case t.kind == ident:
		err = s.ref()
		if err != nil {
			return err
		}

		err = s.expect("=")
		if err != nil {
			return err
		}

		err = s.f.PushOperator(ir.Assign)
		if err != nil {
			return err
		}

		err = s.expr()
		if err != nil {
			return err
		}

		err = s.f.Collapse(front.LevelAssign)
		if err != nil {
			return err
		}

		return s.expect(";")
	}

	return s.errorf("statement expected, got %v", t)
}

// list parses read(...) and write(...) statements.
func (s *State) list(item func() error, action func() error) (err error) {
	s.next()

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

		err = item()
		if err != nil {
			return err
		}

		err = action()
		if err != nil {
			return err
		}
	}

	return s.expect(";")
}

func (s *State) ifStmt() (err error) {
	s.next()

	err = s.cond()
	if err != nil {
		return err
	}

	err = s.f.IfCond()
	if err != nil {
		return err
	}

	err = s.block()
	if err != nil {
		return err
	}

	if s.skip("else") {
		err = s.f.Else()
		if err != nil {
			return err
		}

		if s.peek().is("if") {
			err = s.ifStmt()
		} else {
			err = s.block()
		}

		if err != nil {
			return err
		}
	}

	return s.f.EndIf()
}

func (s *State) whileStmt() (err error) {
	s.next()

	s.f.WhileStart()

	err = s.cond()
	if err != nil {
		return err
	}

	err = s.f.WhileCond()
	if err != nil {
		return err
	}

	err = s.block()
	if err != nil {
		return err
	}

	return s.f.WhileEnd()
}

func (s *State) cond() (err error) {
	err = s.expect("(")
	if err != nil {
		return err
	}

	err = s.expr()
	if err != nil {
		return err
	}

	return s.expect(")")
}

func (s *State) peek() token {
	return s.toks[s.i]
}

func (s *State) peekN(n int) token {
	if s.i+n >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}

	return s.toks[s.i+n]
}

func (s *State) next() token {
	t := s.toks[s.i]

	if t.kind != eof {
		s.i++
	}

	s.f.Line = t.line

	return t
}

func (s *State) skip(text string) bool {
	if !s.peek().is(text) {
		return false
	}

	s.next()

	return true
}

func (s *State) expect(text string) error {
	if t := s.next(); !t.is(text) {
		return s.errorf("%q expected, got %v", text, t)
	}

	return nil
}

func (s *State) ident() (string, error) {
	t := s.next()

	if t.kind != ident || isKeyword(t.text) {
		return "", s.errorf("identifier expected, got %v", t)
	}

	return t.text, nil
}

// typeName is a type keyword or a class name.
func (s *State) typeName() (string, error) {
	t := s.next()

	if t.kind != ident || isKeyword(t.text) && tp.Lookup(t.text) == tp.Invalid {
		return "", s.errorf("type expected, got %v", t)
	}

	return t.text, nil
}

func (s *State) errorf(format string, args ...any) error {
	return SyntaxError{Line: s.toks[s.i].line, Msg: fmt.Sprintf(format, args...)}
}

func (t token) is(text string) bool {
	return (t.kind == punct || t.kind == ident) && t.text == text
}

var keywords = map[string]bool{
	"program": true, "class": true, "func": true, "main": true,
	"if": true, "else": true, "while": true, "read": true, "write": true, "return": true,
	"true": true, "false": true,
	"int": true, "float": true, "char": true, "bool": true, "boolean": true, "string": true, "void": true,
}

func isKeyword(w string) bool {
	return keywords[w]
}
