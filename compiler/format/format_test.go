package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

func TestFormat(t *testing.T) {
	m := mem.New()

	c, err := m.Const(tp.String, "hi")
	require.NoError(t, err)

	x, err := m.Alloc(tp.Int, mem.Local, 2)
	require.NoError(t, err)

	ptr, err := m.Alloc(tp.Int, mem.Temp, 1)
	require.NoError(t, err)

	p := &ir.Program{
		Name: "fmt",
		Quads: []ir.Quad{
			{Op: ir.Goto, Res: ir.L(1)},
			{Op: ir.Write, Res: ir.A(c)},
			{Op: ir.AddDim, Arg1: ir.N(1), Arg2: ir.N(int64(x)), Res: ir.A(ptr)},
			{Op: ir.Read, Res: ir.Ptr(ptr)},
			{Op: ir.Assign, Arg1: ir.A(x), Res: ir.A(x + 1)},
		},
		Layout: m.Layout,
		Consts: m.Values,
	}

	b, err := Format(context.Background(), nil, p)
	require.NoError(t, err)

	assert.Equal(t, `program fmt
	GOTO     -, -, L1
L1:
	WRITE    -, -, global.string+0("hi")
	ADDDIM   #1, #`+itoa(int64(x))+`, temp.int+0
	READ     -, -, *temp.int+0
	EQUAL    local.int+0, -, local.int+1
`, string(b))

	p.Quads = append(p.Quads, ir.Quad{Op: ir.Write, Res: ir.Operand{Kind: 100}})

	_, err = Format(context.Background(), nil, p)
	assert.Error(t, err)
}

func itoa(x int64) string {
	return tp.Format(x)
}
