package front

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
)

type (
	// Front is the semantic state of one compilation unit.
	// The parser calls its actions in source order.
	Front struct {
		Mem   *mem.Memory
		Quads []ir.Quad

		// Line is the source line of the action being processed.
		Line int

		name string

		scopes []*Scope
		cur    ScopeID
		prev   []ScopeID

		pending []pendingVar

		operators []ir.Op
		operands  []operand
		jumps     []int

		refs  []ref
		calls []call

		fn *Symbol

		tr tlog.Span
	}
)

func New(ctx context.Context) *Front {
	return NewMemory(ctx, mem.New())
}

func NewMemory(ctx context.Context, m *mem.Memory) *Front {
	f := &Front{
		Mem: m,
		tr:  tlog.SpanFromContext(ctx),
	}

	f.cur = f.newScope("global", ProgramScope, nil)

	return f
}

// Start names the program and emits the jump to the main body.
func (f *Front) Start(name string) {
	f.name = name
	f.Current().Name = name

	f.jumps = append(f.jumps, f.emit(ir.Goto, ir.None, ir.None, ir.None))
}

// Main marks the beginning of the main body.
func (f *Front) Main() (err error) {
	defer f.wrap(&err)

	if len(f.prev) != 0 {
		return errors.Wrap(ErrUnbalanced, "main inside of %v", f.Current().Name)
	}

	return f.FillJump(false)
}

// End checks all the stacks are drained and returns the compiled program.
func (f *Front) End() (p *ir.Program, err error) {
	defer f.wrap(&err)

	switch {
	case len(f.prev) != 0:
		err = errors.New("%d scopes left open", len(f.prev))
	case len(f.operators) != 0:
		err = errors.New("%d operators left", len(f.operators))
	case len(f.operands) != 0:
		err = errors.New("%d operands left", len(f.operands))
	case len(f.jumps) != 0:
		err = errors.New("%d jumps left", len(f.jumps))
	case len(f.refs) != 0 || len(f.calls) != 0:
		err = errors.New("unfinished reference or call")
	case len(f.pending) != 0:
		err = errors.New("%d pending declarations", len(f.pending))
	}

	if err != nil {
		return nil, errors.Wrap(ErrUnbalanced, "%v", err)
	}

	return f.Program(), nil
}

// Program returns the instructions emitted so far with the memory layout and constants.
func (f *Front) Program() *ir.Program {
	p := &ir.Program{
		Name:   f.name,
		Quads:  f.Quads,
		Layout: f.Mem.Layout,
		Consts: make(map[mem.Addr]any, len(f.Mem.Values)),
	}

	for a, v := range f.Mem.Values {
		p.Consts[a] = v
	}

	return p
}

func (f *Front) emit(op ir.Op, a1, a2, res ir.Operand) int {
	i := len(f.Quads)

	q := ir.Quad{Op: op, Arg1: a1, Arg2: a2, Res: res}
	f.Quads = append(f.Quads, q)

	f.tr.V("quads").Printw("emit", "i", i, "quad", q, "line", f.Line)

	return i
}

// FillJump pops a pending jump and backpatches its target
// with the next instruction index, or with another popped index if usePop is set.
func (f *Front) FillJump(usePop bool) (err error) {
	defer f.wrap(&err)

	i, err := f.popJump()
	if err != nil {
		return err
	}

	target := len(f.Quads)

	if usePop {
		target, err = f.popJump()
		if err != nil {
			return err
		}
	}

	return f.fill(i, target)
}

func (f *Front) fill(i, target int) error {
	if i < 0 || i >= len(f.Quads) {
		return errors.Wrap(ErrUnbalanced, "fill jump %d: no such quad", i)
	}

	q := &f.Quads[i]

	if !q.Res.IsEmpty() {
		return errors.Wrap(ErrUnbalanced, "fill jump %d: already filled with %v", i, q.Res)
	}

	q.Res = ir.L(target)

	f.tr.V("quads").Printw("backpatch", "i", i, "target", target)

	return nil
}

func (f *Front) popJump() (int, error) {
	l := len(f.jumps)
	if l == 0 {
		return 0, errors.Wrap(ErrUnbalanced, "jump stack is empty")
	}

	i := f.jumps[l-1]
	f.jumps = f.jumps[:l-1]

	return i, nil
}
