package front

import (
	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	call struct {
		fn   *Symbol
		next int // next parameter position
	}
)

// CallStart resolves the callee and emits its activation record allocation.
func (f *Front) CallStart(name string) (err error) {
	defer f.wrap(&err)

	fn, err := f.resolve(name, tp.Invalid, true)
	if err != nil {
		return err
	}

	f.emit(ir.Era, ir.L(fn.Target), ir.None, ir.A(fn.Addr))

	f.calls = append(f.calls, call{fn: fn})
	f.OpenGroup()

	return nil
}

// Argument binds the value on top of the operand stack to the next parameter.
func (f *Front) Argument() (err error) {
	defer f.wrap(&err)

	if len(f.calls) == 0 {
		return errors.Wrap(ErrUnbalanced, "argument outside of call")
	}

	c := &f.calls[len(f.calls)-1]
	params := c.fn.Params

	if c.next >= len(params) {
		return errors.Wrap(ErrArgumentCountMismatch, "too many arguments to %v: expected %d", c.fn.Name, len(params))
	}

	arg, err := f.popOperand()
	if err != nil {
		return err
	}

	p := params[c.next]

	if arg.T != p.Type {
		return errors.Wrap(ErrArgumentTypeMismatch, "%v argument %d (%v): expected %v, got %v", c.fn.Name, c.next+1, p.Name, p.Type, arg.T)
	}

	c.next++

	// staged as a binary operation: parameter slot, value, PARAM
	f.pushOperand(operand{T: p.Type, O: ir.A(p.Addr)})
	f.pushOperand(arg)
	f.operators = append(f.operators, ir.Param)

	return f.collapse(levelParam)
}

// CallEnd checks the argument count and jumps to the callee.
// The return value is pushed as an operand unless discard is set.
func (f *Front) CallEnd(discard bool) (err error) {
	defer f.wrap(&err)

	if len(f.calls) == 0 {
		return errors.Wrap(ErrUnbalanced, "end of call outside of call")
	}

	c := f.calls[len(f.calls)-1]
	f.calls = f.calls[:len(f.calls)-1]

	if c.next < len(c.fn.Params) {
		return errors.Wrap(ErrArgumentCountMismatch, "too few arguments to %v: expected %d, got %d", c.fn.Name, len(c.fn.Params), c.next)
	}

	err = f.popBottom()
	if err != nil {
		return err
	}

	f.emit(ir.Gosub, ir.A(c.fn.Addr), ir.None, ir.L(c.fn.Target))

	if discard {
		return nil
	}

	if c.fn.Type == tp.Void {
		return errors.Wrap(ErrTypeMismatch, "void function %v used as a value", c.fn.Name)
	}

	tmp, err := f.temp(c.fn.Type)
	if err != nil {
		return err
	}

	f.emit(ir.Assign, ir.A(c.fn.Addr), ir.None, tmp.O)
	f.pushOperand(tmp)

	return nil
}

// Return emits a return from the current function,
// with the value on top of the operand stack if hasValue is set.
func (f *Front) Return(hasValue bool) (err error) {
	defer f.wrap(&err)

	if f.fn == nil {
		return ErrReturnOutsideFunction
	}

	if !hasValue {
		if f.fn.Type != tp.Void {
			return errors.Wrap(ErrReturnTypeMismatch, "%v must return %v", f.fn.Name, f.fn.Type)
		}

		f.emit(ir.Return, ir.None, ir.None, ir.A(f.fn.Addr))

		return nil
	}

	x, err := f.peekOperand()
	if err != nil {
		return err
	}

	if x.T != f.fn.Type {
		return errors.Wrap(ErrReturnTypeMismatch, "%v must return %v, got %v", f.fn.Name, f.fn.Type, x.T)
	}

	return f.statement(ir.Return)
}
