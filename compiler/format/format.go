package format

import (
	"context"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

// Format appends an annotated listing of the program:
// jump targets are labeled, addresses are shown as segment.type+offset
// and constants are shown with their values.
func Format(ctx context.Context, b []byte, p *ir.Program) (_ []byte, err error) {
	targets := map[int]bool{p.Entry(): true}

	for _, q := range p.Quads {
		if q.Res.Kind == ir.Label {
			targets[q.Res.Int()] = true
		}
	}

	rs := p.Layout.Flat()

	b = app(b, 0, "program %s\n", p.Name)

	for i, q := range p.Quads {
		if targets[i] {
			b = app(b, 0, "L%d:\n", i)
		}

		b = app(b, 1, "%-8v", q.Op)

		for j, o := range []ir.Operand{q.Arg1, q.Arg2, q.Res} {
			if j != 0 {
				b = append(b, ", "...)
			} else {
				b = append(b, ' ')
			}

			b, err = formatOperand(b, p, rs, o)
			if err != nil {
				return nil, errors.Wrap(err, "quad %d: %v", i, q.Op)
			}
		}

		b = append(b, '\n')
	}

	return b, nil
}

func formatOperand(b []byte, p *ir.Program, rs mem.Ranges, o ir.Operand) ([]byte, error) {
	switch o.Kind {
	case ir.Empty:
		return append(b, '-'), nil
	case ir.Lit:
		return app(b, 0, "#%d", o.V), nil
	case ir.Label:
		return app(b, 0, "L%d", o.V), nil
	case ir.Indirect:
		b = append(b, '*')
	case ir.Addr:
	default:
		return nil, errors.New("unsupported operand: %v", o)
	}

	a := o.Address()

	seg, t, ok := rs.Locate(a)
	if !ok {
		return app(b, 0, "%d", a), nil
	}

	r := p.Layout[seg][t]
	b = app(b, 0, "%v.%v+%d", seg, t, a-r.Low)

	if v, ok := p.Consts[a]; ok && seg == mem.Global {
		b = append(b, '(')
		b = appendConst(b, t, v)
		b = append(b, ')')
	}

	return b, nil
}

func appendConst(b []byte, t tp.Type, v any) []byte {
	switch t {
	case tp.String:
		return strconv.AppendQuote(b, tp.Format(v))
	case tp.Char:
		return strconv.AppendQuoteRune(b, v.(rune))
	}

	return append(b, tp.Format(v)...)
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
