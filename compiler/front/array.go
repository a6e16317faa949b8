package front

import (
	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/compat"
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	// ref is a variable reference being built: a.b.c[i][j].
	ref struct {
		sym     *Symbol
		indices int
	}
)

// Var starts a reference to a variable visible from the current scope.
func (f *Front) Var(name string) (err error) {
	defer f.wrap(&err)

	sym, err := f.resolve(name, tp.Invalid, false)
	if err != nil {
		return err
	}

	f.refs = append(f.refs, ref{sym: sym})

	return nil
}

// Member moves the current reference to a field of the instance it names.
func (f *Front) Member(name string) (err error) {
	defer f.wrap(&err)

	r, err := f.topRef()
	if err != nil {
		return err
	}

	if r.indices != 0 {
		return errors.Wrap(ErrTypeMismatch, "member %v of array element", name)
	}

	sym, err := f.member(r.sym, name)
	if err != nil {
		return err
	}

	r.sym = sym

	return nil
}

// IndexStart opens the index expression of the next dimension.
func (f *Front) IndexStart() (err error) {
	defer f.wrap(&err)

	r, err := f.topRef()
	if err != nil {
		return err
	}

	if r.indices >= len(r.sym.Dims) {
		return errors.Wrap(ErrDimensionCountMismatch, "%v has %d dimensions", r.sym.Name, len(r.sym.Dims))
	}

	f.OpenGroup()

	return nil
}

// IndexEnd emits the bounds check of the index on top of the operand stack.
func (f *Front) IndexEnd() (err error) {
	defer f.wrap(&err)

	r, err := f.topRef()
	if err != nil {
		return err
	}

	err = f.popBottom()
	if err != nil {
		return err
	}

	idx, err := f.popOperand()
	if err != nil {
		return err
	}

	if compat.Binary(idx.T, tp.Int, ir.Ver) == tp.Invalid {
		return errors.Wrap(ErrOperatorTypeMismatch, "%v index of %v", idx.T, r.sym.Name)
	}

	d := r.sym.Dims[r.indices]
	r.indices++

	f.emit(ir.Ver, idx.O, ir.N(int64(d.Size)), ir.N(int64(d.Stride)))

	return nil
}

// VarEnd finishes the reference and pushes it as an operand.
func (f *Front) VarEnd() (err error) {
	defer f.wrap(&err)

	r, err := f.topRef()
	if err != nil {
		return err
	}

	sym := r.sym
	n := r.indices

	f.refs = f.refs[:len(f.refs)-1]

	switch {
	case sym.IsFunction:
		return errors.Wrap(ErrTypeMismatch, "function %v used as a variable", sym.Name)
	case sym.IsClass:
		return errors.Wrap(ErrTypeMismatch, "class %v used as a variable", sym.Name)
	case sym.Type == tp.Class:
		return errors.Wrap(ErrTypeMismatch, "instance %v of %v used as a value", sym.Name, sym.TypeName())
	case !sym.HasAddr:
		return errors.Wrap(ErrNotAddressable, "%v", sym.Name)
	case n != len(sym.Dims):
		return errors.Wrap(ErrDimensionCountMismatch, "%v has %d dimensions, indexed with %d", sym.Name, len(sym.Dims), n)
	}

	if n == 0 {
		f.pushOperand(operand{T: sym.Type, O: ir.A(sym.Addr), addressable: true})

		return nil
	}

	ptr, err := f.Mem.Alloc(tp.Int, mem.Temp, 1)
	if err != nil {
		return errors.Wrap(err, "element pointer")
	}

	f.emit(ir.AddDim, ir.N(int64(n)), ir.N(int64(sym.Addr)), ir.A(ptr))
	f.pushOperand(operand{T: sym.Type, O: ir.Ptr(ptr), addressable: true})

	return nil
}

func (f *Front) topRef() (*ref, error) {
	if len(f.refs) == 0 {
		return nil, errors.Wrap(ErrUnbalanced, "no variable reference")
	}

	return &f.refs[len(f.refs)-1], nil
}
