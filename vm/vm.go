package vm

import (
	"bufio"
	"context"
	"io"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	Config struct {
		// MaxDepth limits the number of live activation records.
		MaxDepth int
	}

	// VM executes one program. It is not safe for concurrent use.
	VM struct {
		prog *ir.Program
		cfg  Config

		ranges mem.Ranges

		in  *bufio.Reader
		out io.Writer

		global *frame
		cur    *frame
		prev   []*frame

		// pending are records allocated by ERA waiting for their GOSUB.
		pending []*frame

		// dims are (index, stride) pairs checked by VER and not yet folded by ADDDIM.
		dims []dim

		ip    int
		steps int64

		buf []byte
	}

	frame struct {
		fn   mem.Addr
		vals map[mem.Addr]any

		ret int

		staged    any
		hasStaged bool
	}

	dim struct {
		idx    int64
		stride int64
	}
)

const DefaultMaxDepth = 1024

func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth}
}

func New(prog *ir.Program, in io.Reader, out io.Writer, cfg Config) *VM {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}

	return &VM{
		prog:   prog,
		cfg:    cfg,
		ranges: prog.Layout.Flat(),
		in:     bufio.NewReader(in),
		out:    out,
	}
}

// Run executes the program from its entry point until the instruction pointer runs past the end.
func (v *VM) Run(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "vm", "program", v.prog.Name, "quads", len(v.prog.Quads))
	defer func() {
		tr.Finish("err", err, "steps", v.steps)
	}()

	v.reset()

	quads := v.prog.Quads
	trace := tr.If("vm_step")

	for v.ip = v.prog.Entry(); v.ip < len(quads); {
		if err = ctx.Err(); err != nil {
			return errors.Wrap(err, "ip %d", v.ip)
		}

		ip := v.ip
		q := quads[ip]

		if trace {
			tr.Printw("step", "ip", ip, "quad", q, "depth", len(v.prev))
		}

		v.ip++
		v.steps++

		err = v.exec(q)
		if err != nil {
			return errors.Wrap(err, "ip %d: %v", ip, q.Op)
		}
	}

	return nil
}

func (v *VM) reset() {
	v.global = &frame{vals: make(map[mem.Addr]any, len(v.prog.Consts))}

	for a, x := range v.prog.Consts {
		v.global.vals[a] = x
	}

	v.cur = v.global
	v.prev = v.prev[:0]
	v.pending = v.pending[:0]
	v.dims = v.dims[:0]
	v.steps = 0
}

func (v *VM) exec(q ir.Quad) (err error) {
	switch q.Op {
	case ir.Nop:
	case ir.Sum, ir.Sub, ir.Mult, ir.Div,
		ir.Eq, ir.Neq, ir.Gt, ir.Lt, ir.Gte, ir.Lte,
		ir.And, ir.Or:
		return v.binary(q)
	case ir.Not, ir.Neg:
		return v.unary(q)
	case ir.Assign:
		return v.assign(q.Arg1, q.Res)
	case ir.Read:
		return v.readInput(q.Res)
	case ir.Write:
		return v.writeOutput(q.Res)
	case ir.Goto:
		v.ip = q.Res.Int()
	case ir.GotoF:
		x, err := v.load(q.Arg1)
		if err != nil {
			return err
		}

		cond, ok := x.(bool)
		if !ok {
			return errors.New("condition is %T, not bool", x)
		}

		if !cond {
			v.ip = q.Res.Int()
		}
	case ir.Era:
		return v.era(q.Res.Address())
	case ir.Param:
		return v.param(q.Arg1, q.Res.Address())
	case ir.Gosub:
		return v.gosub(q.Res.Int())
	case ir.Return:
		return v.ret(q.Arg1, q.Res.Address())
	case ir.EndFunc:
		return v.endFunc(q.Res.Address())
	case ir.Ver:
		return v.ver(q.Arg1, q.Arg2.V, q.Res.V)
	case ir.AddDim:
		return v.addDim(q.Arg1.Int(), q.Arg2.V, q.Res)
	default:
		return ErrUnknownOpcode
	}

	return nil
}

func (v *VM) era(fn mem.Addr) error {
	if len(v.prev)+len(v.pending) >= v.cfg.MaxDepth {
		return errors.Wrap(ErrStackOverflow, "depth %d", v.cfg.MaxDepth)
	}

	v.pending = append(v.pending, &frame{
		fn:   fn,
		vals: make(map[mem.Addr]any),
	})

	return nil
}

func (v *VM) param(arg ir.Operand, dst mem.Addr) error {
	if len(v.pending) == 0 {
		return errors.Wrap(ErrFrameUnderflow, "param without activation record")
	}

	x, err := v.load(arg)
	if err != nil {
		return err
	}

	f := v.pending[len(v.pending)-1]
	f.vals[dst] = v.layoutType(dst).Convert(x)

	return nil
}

func (v *VM) gosub(target int) error {
	l := len(v.pending)
	if l == 0 {
		return errors.Wrap(ErrFrameUnderflow, "gosub without activation record")
	}

	f := v.pending[l-1]
	v.pending = v.pending[:l-1]

	f.ret = v.ip

	v.prev = append(v.prev, v.cur)
	v.cur = f
	v.ip = target

	return nil
}

// ret stages the return value and skips to the end of the function.
func (v *VM) ret(x ir.Operand, fn mem.Addr) error {
	if v.cur == v.global {
		return errors.Wrap(ErrFrameUnderflow, "return outside of function")
	}

	if !x.IsEmpty() {
		val, err := v.load(x)
		if err != nil {
			return err
		}

		v.cur.staged = v.layoutType(fn).Convert(val)
		v.cur.hasStaged = true
	}

	quads := v.prog.Quads

	for i := v.ip; i < len(quads); i++ {
		if quads[i].Op == ir.EndFunc && quads[i].Res.Address() == fn {
			v.ip = i

			return nil
		}
	}

	return errors.New("no end of function %v", fn)
}

func (v *VM) endFunc(fn mem.Addr) error {
	l := len(v.prev)
	if l == 0 || v.cur == v.global {
		return errors.Wrap(ErrFrameUnderflow, "end of function %v", fn)
	}

	f := v.cur

	v.cur = v.prev[l-1]
	v.prev = v.prev[:l-1]
	v.ip = f.ret

	if f.hasStaged {
		v.cur.vals[fn] = f.staged
	}

	return nil
}

func (v *VM) ver(idx ir.Operand, size, stride int64) error {
	x, err := v.load(idx)
	if err != nil {
		return err
	}

	i, ok := x.(int64)
	if !ok {
		return errors.New("index is %T, not int", x)
	}

	if i < 0 || i >= size {
		return errors.Wrap(ErrIndexOutOfBounds, "index %d, size %d", i, size)
	}

	v.dims = append(v.dims, dim{idx: i, stride: stride})

	return nil
}

// addDim folds the last n checked indices into the element address.
func (v *VM) addDim(n int, base int64, ptr ir.Operand) error {
	l := len(v.dims)
	if n < 1 || n > l {
		return errors.Wrap(ErrFrameUnderflow, "fold %d dimensions of %d", n, l)
	}

	a := base

	for _, d := range v.dims[l-n:] {
		a += d.idx * d.stride
	}

	v.dims = v.dims[:l-n]

	return v.store(ptr.Address(), a)
}

func (v *VM) assign(src, dst ir.Operand) error {
	x, err := v.load(src)
	if err != nil {
		return err
	}

	a, err := v.address(dst)
	if err != nil {
		return err
	}

	return v.store(a, v.layoutType(a).Convert(x))
}

func (v *VM) readInput(dst ir.Operand) error {
	a, err := v.address(dst)
	if err != nil {
		return err
	}

	line, err := v.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return errors.Wrap(ErrBadInput, "read line: %v", err)
	}

	line = strings.TrimRight(line, "\r\n")

	x, err := v.layoutType(a).Parse(line)
	if err != nil {
		return errors.Wrap(ErrBadInput, "%v", err)
	}

	return v.store(a, x)
}

func (v *VM) writeOutput(src ir.Operand) error {
	x, err := v.load(src)
	if err != nil {
		return err
	}

	v.buf = append(v.buf[:0], tp.Format(x)...)
	v.buf = append(v.buf, '\n')

	_, err = v.out.Write(v.buf)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}

// load resolves an operand to its value.
func (v *VM) load(o ir.Operand) (any, error) {
	switch o.Kind {
	case ir.Lit:
		return o.V, nil
	case ir.Addr, ir.Indirect:
		a, err := v.address(o)
		if err != nil {
			return nil, err
		}

		return v.get(a)
	}

	return nil, errors.New("can't load %v", o)
}

// address resolves the memory cell an operand names, following element pointers.
func (v *VM) address(o ir.Operand) (mem.Addr, error) {
	switch o.Kind {
	case ir.Addr:
		return o.Address(), nil
	case ir.Indirect:
		x, err := v.get(o.Address())
		if err != nil {
			return 0, errors.Wrap(err, "pointer")
		}

		p, ok := x.(int64)
		if !ok {
			return 0, errors.New("pointer %v holds %T", o.Address(), x)
		}

		return mem.Addr(p), nil
	}

	return 0, errors.New("not an address: %v", o)
}

// get looks the address up from the innermost frame outwards.
func (v *VM) get(a mem.Addr) (any, error) {
	if x, ok := v.cur.vals[a]; ok {
		return x, nil
	}

	for i := len(v.prev) - 1; i >= 0; i-- {
		if x, ok := v.prev[i].vals[a]; ok {
			return x, nil
		}
	}

	return nil, errors.Wrap(ErrUninitialized, "address %v", a)
}

// store writes private segments into the current frame and shared ones into the global frame.
func (v *VM) store(a mem.Addr, x any) error {
	seg, _, ok := v.ranges.Locate(a)
	if !ok {
		return errors.New("address %v is out of layout", a)
	}

	switch seg {
	case mem.Function, mem.Temp, mem.Stack:
		v.cur.vals[a] = x
	default:
		v.global.vals[a] = x
	}

	return nil
}

func (v *VM) layoutType(a mem.Addr) tp.Type {
	_, t, _ := v.ranges.Locate(a)

	return t
}
