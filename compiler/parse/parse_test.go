package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernestognw/Teampp/compiler/front"
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
)

func parse(t *testing.T, src string) (*ir.Program, error) {
	t.Helper()

	ctx := context.Background()
	f := front.New(ctx)

	err := Parse(ctx, f, []byte(src))
	if err != nil {
		return nil, err
	}

	return f.End()
}

func ops(p *ir.Program) []ir.Op {
	l := make([]ir.Op, len(p.Quads))

	for i, q := range p.Quads {
		l[i] = q.Op
	}

	return l
}

func TestTokenize(t *testing.T) {
	toks, err := tokenize([]byte("a1 = b <= 3.5 && c != 'x'; // comment\nwrite(\"s\\n\", 10);"))
	require.NoError(t, err)

	type tk struct {
		k    kind
		text string
		line int
	}

	var got []tk

	for _, x := range toks {
		got = append(got, tk{x.kind, x.text, x.line})
	}

	assert.Equal(t, []tk{
		{ident, "a1", 1},
		{punct, "=", 1},
		{ident, "b", 1},
		{punct, "<=", 1},
		{floatLit, "3.5", 1},
		{punct, "&&", 1},
		{ident, "c", 1},
		{punct, "!=", 1},
		{charLit, "x", 1},
		{punct, ";", 1},
		{ident, "write", 2},
		{punct, "(", 2},
		{stringLit, "s\n", 2},
		{punct, ",", 2},
		{intLit, "10", 2},
		{punct, ")", 2},
		{punct, ";", 2},
		{eof, "", 2},
	}, got)
}

func TestSyntaxErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		line int
	}{
		{"missing_semicolon", "program p;\nint x\nmain { }", 3},
		{"unterminated", "program p;\nmain {\nwrite(\"abc);\n}", 3},
		{"bad_char", "program p;\nmain {\n x = 1 @ 2;\n}", 3},
		{"keyword_name", "program p;\nint while;\nmain { }", 2},
		{"no_main", "program p;\nint x;\n", 3},
		{"after_main", "program p;\nmain { }\nint x;", 3},
		{"bad_expr", "program p;\nint x;\nmain {\nx = * 2;\n}", 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse(t, tc.src)

			var se SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.line, se.Line, "%v", err)
		})
	}
}

func TestSemanticErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		err  error
		line int
	}{
		{"undeclared", "program p;\nmain {\n\n  y = 1;\n}", front.ErrUndeclaredIdentifier, 4},
		{"duplicate", "program p;\nint x;\nfloat x;\nmain { }", front.ErrDuplicateDeclaration, 3},
		{"operands", "program p;\nint x;\nmain {\n x = 1 + \"a\";\n}", front.ErrOperatorTypeMismatch, 4},
		{"condition", "program p;\nmain {\n if (1) { }\n}", front.ErrOperatorTypeMismatch, 3},
		{"args", "program p;\nfunc int f(int a) { return a; }\nmain {\n write(f(1, 2));\n}", front.ErrArgumentCountMismatch, 4},
		{"arg_type", "program p;\nfunc int f(int a) { return a; }\nmain {\n write(f(1.5));\n}", front.ErrArgumentTypeMismatch, 4},
		{"return_outside", "program p;\nmain {\n return 1;\n}", front.ErrReturnOutsideFunction, 3},
		{"return_type", "program p;\nfunc int f() {\n return \"s\";\n}\nmain { }", front.ErrReturnTypeMismatch, 3},
		{"dims", "program p;\nint a[3];\nmain {\n a = 1;\n}", front.ErrDimensionCountMismatch, 4},
		{"not_function", "program p;\nint a;\nmain {\n a();\n}", front.ErrNotAFunction, 4},
		{"unknown_type", "program p;\nWidget w;\nmain { }", front.ErrUnknownType, 2},
		{"huge_array", "program p;\nint b;\nint a[4611686018427387905][4];\nmain { }", mem.ErrAddressSpaceExhausted, 3},
		{"self_class", "program p;\nclass A {\n A a;\n}\nmain { }", front.ErrUnknownType, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse(t, tc.src)
			require.ErrorIs(t, err, tc.err)

			var le front.LineError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tc.line, le.Line, "%v", err)
		})
	}
}

func TestPrecedence(t *testing.T) {
	p, err := parse(t, `
program prec;
int x;
bool b;
main {
	x = 1 + 2 * 3 - -4;
	b = x > 2 && !(x == 3) || false;
}
`)
	require.NoError(t, err)

	t.Logf("listing:\n%s", p.Append(nil))

	assert.Equal(t, []ir.Op{
		ir.Goto,
		ir.Mult, ir.Sum, ir.Neg, ir.Sub, ir.Assign,
		ir.Gt, ir.Eq, ir.Not, ir.And, ir.Or, ir.Assign,
	}, ops(p))
}

func TestFunctionsAndLoops(t *testing.T) {
	p, err := parse(t, `
program loops;
int i;

func void show(int v) {
	write(v);
}

main {
	i = 0;
	while (i < 3) {
		show(i);
		i = i + 1;
	}
}
`)
	require.NoError(t, err)

	t.Logf("listing:\n%s", p.Append(nil))

	assert.Equal(t, []ir.Op{
		ir.Goto,
		ir.Write, ir.EndFunc,
		ir.Assign,
		ir.Lt, ir.GotoF,
		ir.Era, ir.Param, ir.Gosub,
		ir.Sum, ir.Assign,
		ir.Goto,
	}, ops(p))

	assert.Equal(t, 3, p.Entry())
	assert.Equal(t, ir.L(12), p.Quads[5].Res, "loop exit")
	assert.Equal(t, ir.L(4), p.Quads[11].Res, "loop back")
	assert.Equal(t, ir.L(1), p.Quads[8].Res, "call target")
}
