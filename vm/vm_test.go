package vm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernestognw/Teampp/compiler"
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

func run(t *testing.T, src, input string, cfg Config) (string, error) {
	t.Helper()

	ctx := context.Background()

	p, err := compiler.Compile(ctx, t.Name(), []byte(src))
	require.NoError(t, err)

	t.Logf("listing:\n%s", p.Append(nil))

	var out bytes.Buffer

	err = New(p, strings.NewReader(input), &out, cfg).Run(ctx)

	return out.String(), err
}

func TestPrint(t *testing.T) {
	out, err := run(t, `
program print;
int x;
main {
	x = 2 + 3;
	write(x);
}
`, "", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestFactorial(t *testing.T) {
	out, err := run(t, `
program fact;

func int fact(int n) {
	if (n <= 1) {
		return 1;
	}

	return n * fact(n - 1);
}

main {
	write(fact(5), fact(1));
}
`, "", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "120\n1\n", out)
}

func TestNestedCalls(t *testing.T) {
	out, err := run(t, `
program nested;

func int add(int a, int b) {
	return a + b;
}

main {
	write(add(add(1, 2), 3), add(10, 20) - add(1, 1));
}
`, "", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "6\n28\n", out)
}

func TestVoidFunctionGlobals(t *testing.T) {
	out, err := run(t, `
program globals;
int g;

func void inc(int by) {
	g = g + by;
}

main {
	g = -5;
	inc(3);
	inc(4);
	write(g);
}
`, "", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestStackOverflow(t *testing.T) {
	_, err := run(t, `
program overflow;

func int f(int n) {
	return f(n + 1);
}

main {
	write(f(0));
}
`, "", Config{MaxDepth: 16})
	assert.ErrorIs(t, err, ErrStackOverflow)
}

func TestArrays(t *testing.T) {
	out, err := run(t, `
program arrays;
int m[2][3], i, j;

main {
	i = 0;
	while (i < 2) {
		j = 0;
		while (j < 3) {
			m[i][j] = i * 10 + j;
			j = j + 1;
		}
		i = i + 1;
	}

	write(m[1][2], m[0][1], m[m[0][1]][0]);
}
`, "", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "12\n1\n10\n", out)
}

func TestIndexOutOfBounds(t *testing.T) {
	for _, idx := range []string{"3", "-1"} {
		_, err := run(t, `
program bounds;
int a[3];

main {
	a[`+idx+`] = 1;
}
`, "", DefaultConfig())
		assert.ErrorIs(t, err, ErrIndexOutOfBounds, "index %v", idx)
	}
}

func TestClasses(t *testing.T) {
	out, err := run(t, `
program classes;

class Point {
	int x, y;
}

class Segment {
	Point a, b;
}

Point p, q;
Segment s;

main {
	p.x = 1;
	q.x = 2;
	p.y = p.x + q.x;
	s.a.x = 7;
	s.b.x = s.a.x * 2;

	write(p.y, q.x, s.b.x);
}
`, "", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "3\n2\n14\n", out)
}

func TestRead(t *testing.T) {
	out, err := run(t, `
program input;
int x;
float y;
string s;
char c;
bool b;

main {
	read(x, y, s, c, b);
	write(x + 1, y * 2.0, s, c, b);
}
`, "41\n1.5\nhello world\nqwe\nfalse\n", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "42\n3\nhello world\nq\nfalse\n", out)
}

func TestReadBadInput(t *testing.T) {
	_, err := run(t, `
program input;
int x;

main {
	read(x);
}
`, "abc\n", DefaultConfig())
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestDivisionByZero(t *testing.T) {
	_, err := run(t, `
program div;
int x;

main {
	x = 0;
	write(10 / x);
}
`, "", DefaultConfig())
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestUninitialized(t *testing.T) {
	_, err := run(t, `
program uninit;
int x;

main {
	write(x);
}
`, "", DefaultConfig())
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestConditions(t *testing.T) {
	out, err := run(t, `
program cond;
string a;
char c;
bool b;
float f;

main {
	a = "ab" + "cd";
	c = 'z';
	b = !(1 > 2) && true;
	f = 1 + 0.5;

	if (b) {
		write(a);
	} else {
		write(c);
	}

	if (c == 'y') {
		write(1);
	} else if (c == 'z') {
		write(2);
	} else {
		write(3);
	}

	if (f >= 1.5 || false) {
		write(f);
	}
}
`, "", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "abcd\n2\n1.5\n", out)
}

func TestCancel(t *testing.T) {
	p, err := compiler.Compile(context.Background(), "loop", []byte(`
program loop;
main {
	while (true) {
	}
}
`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = New(p, strings.NewReader(""), &bytes.Buffer{}, DefaultConfig()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnknownOpcode(t *testing.T) {
	p := &ir.Program{
		Quads:  []ir.Quad{{Op: ir.Op(100)}},
		Layout: mem.DefaultLayout(),
	}

	err := New(p, strings.NewReader(""), &bytes.Buffer{}, DefaultConfig()).Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestFrameUnderflow(t *testing.T) {
	l := mem.DefaultLayout()

	p := &ir.Program{
		Quads: []ir.Quad{
			{Op: ir.EndFunc, Res: ir.A(l[mem.Stack][tp.Int].Low)},
		},
		Layout: l,
	}

	err := New(p, strings.NewReader(""), &bytes.Buffer{}, DefaultConfig()).Run(context.Background())
	assert.ErrorIs(t, err, ErrFrameUnderflow)
}

func TestArrayIndexing2D(t *testing.T) {
	p, err := compiler.Compile(context.Background(), "grid", []byte(`
program grid;
int a[3][4], i, j;

main {
	read(i, j);
	a[i][j] = 9;
	write(a[i][j]);
}
`))
	require.NoError(t, err)

	base := p.Layout[mem.Local][tp.Int].Low

	for _, tc := range []struct {
		in   string
		off  mem.Addr
		fail string
	}{
		{in: "1\n2\n", off: 1*4 + 2},
		{in: "2\n3\n", off: 2*4 + 3},
		{in: "0\n0\n", off: 0},
		{in: "1\n5\n", fail: "index 5, size 4"},
		{in: "1\n4\n", fail: "index 4, size 4"},
		{in: "3\n0\n", fail: "index 3, size 3"},
		{in: "-1\n0\n", fail: "index -1, size 3"},
	} {
		var out bytes.Buffer

		v := New(p, strings.NewReader(tc.in), &out, DefaultConfig())

		err := v.Run(context.Background())
		if tc.fail != "" {
			assert.ErrorIs(t, err, ErrIndexOutOfBounds, "input %q", tc.in)
			assert.ErrorContains(t, err, tc.fail, "input %q", tc.in)

			continue
		}

		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, "9\n", out.String())
		assert.Equal(t, int64(9), v.global.vals[base+tc.off], "input %q", tc.in)

		for a := base; a < base+12; a++ {
			if a != base+tc.off {
				assert.NotContains(t, v.global.vals, a, "input %q", tc.in)
			}
		}
	}
}

func TestArrayNoAliasing(t *testing.T) {
	_, err := compiler.Compile(context.Background(), "alias", []byte(`
program alias;
int a[4611686018427387905][4];
int b;

main {
	b = 1;
	a[1][0] = 7;
	write(b);
}
`))
	assert.ErrorIs(t, err, mem.ErrAddressSpaceExhausted)
}
