package front

import (
	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/compat"
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	operand struct {
		T tp.Type
		O ir.Operand

		// addressable marks variables; constants and temporaries can't be assigned.
		addressable bool
	}
)

// Precedence levels the parser closes with Collapse.
const (
	LevelUnary = iota
	LevelFactor
	LevelTerm
	LevelCompare
	LevelLogic
	LevelAssign
	levelParam
	levelStmt
)

// fakeBottom shields an enclosing expression from collapses inside parentheses,
// index expressions and argument lists.
const fakeBottom ir.Op = -1

func precedence(op ir.Op) int {
	switch op {
	case ir.Not, ir.Neg:
		return LevelUnary
	case ir.Mult, ir.Div:
		return LevelFactor
	case ir.Sum, ir.Sub:
		return LevelTerm
	case ir.Eq, ir.Neq, ir.Gt, ir.Lt, ir.Gte, ir.Lte:
		return LevelCompare
	case ir.And, ir.Or:
		return LevelLogic
	case ir.Assign:
		return LevelAssign
	case ir.Param:
		return levelParam
	case ir.Read, ir.Write, ir.GotoF, ir.Return:
		return levelStmt
	}

	return -1
}

func unaryOp(op ir.Op) bool {
	switch op {
	case ir.Not, ir.Neg, ir.Read, ir.Write, ir.GotoF, ir.Return:
		return true
	}

	return false
}

// PushOperator pushes an expression operator.
func (f *Front) PushOperator(op ir.Op) (err error) {
	defer f.wrap(&err)

	if precedence(op) < 0 || precedence(op) > LevelAssign {
		return errors.New("not an expression operator: %v", op)
	}

	if op == ir.Assign {
		l, err := f.peekOperand()
		if err != nil {
			return err
		}

		if !l.addressable {
			return errors.Wrap(ErrNotAddressable, "assignment target")
		}
	}

	f.operators = append(f.operators, op)

	return nil
}

// PushConst pushes a literal, interning it in the constant pool.
func (f *Front) PushConst(t tp.Type, v any) (err error) {
	defer f.wrap(&err)

	a, err := f.Mem.Const(t, t.Convert(v))
	if err != nil {
		return err
	}

	f.pushOperand(operand{T: t, O: ir.A(a)})

	return nil
}

// OpenGroup pushes the fake bottom for a parenthesized expression.
func (f *Front) OpenGroup() {
	f.operators = append(f.operators, fakeBottom)
}

// CloseGroup pops the fake bottom of a parenthesized expression.
func (f *Front) CloseGroup() (err error) {
	defer f.wrap(&err)

	return f.popBottom()
}

// Collapse generates the top operator if it belongs to the level just closed.
func (f *Front) Collapse(level int) (err error) {
	defer f.wrap(&err)

	return f.collapse(level)
}

func (f *Front) collapse(level int) error {
	l := len(f.operators)
	if l == 0 {
		return nil
	}

	op := f.operators[l-1]
	if op == fakeBottom || precedence(op) != level {
		return nil
	}

	f.operators = f.operators[:l-1]

	if unaryOp(op) {
		return f.unary(op)
	}

	return f.binary(op)
}

func (f *Front) binary(op ir.Op) error {
	r, err := f.popOperand()
	if err != nil {
		return err
	}

	l, err := f.popOperand()
	if err != nil {
		return err
	}

	t := compat.Binary(l.T, r.T, op)
	if t == tp.Invalid {
		return errors.Wrap(ErrOperatorTypeMismatch, "%v %v %v", l.T, op, r.T)
	}

	switch op {
	case ir.Assign, ir.Param:
		f.emit(op, r.O, ir.None, l.O)

		return nil
	}

	tmp, err := f.temp(t)
	if err != nil {
		return err
	}

	f.emit(op, l.O, r.O, tmp.O)
	f.pushOperand(tmp)

	return nil
}

func (f *Front) unary(op ir.Op) error {
	x, err := f.popOperand()
	if err != nil {
		return err
	}

	t := compat.Unary(x.T, op)
	if t == tp.Invalid {
		return errors.Wrap(ErrOperatorTypeMismatch, "%v %v", op, x.T)
	}

	switch op {
	case ir.Read:
		if !x.addressable {
			return errors.Wrap(ErrNotAddressable, "read target")
		}

		f.emit(op, ir.None, ir.None, x.O)
	case ir.Write:
		f.emit(op, ir.None, ir.None, x.O)
	case ir.GotoF:
		i := f.emit(op, x.O, ir.None, ir.None)
		f.jumps = append(f.jumps, i)
	case ir.Return:
		f.emit(op, x.O, ir.None, ir.A(f.fn.Addr))
	default:
		tmp, err := f.temp(t)
		if err != nil {
			return err
		}

		f.emit(op, x.O, ir.None, tmp.O)
		f.pushOperand(tmp)
	}

	return nil
}

// statement pushes a statement level operator and generates it at once.
func (f *Front) statement(op ir.Op) error {
	f.operators = append(f.operators, op)

	return f.collapse(levelStmt)
}

// Write emits output of the value on top of the operand stack.
func (f *Front) Write() (err error) {
	defer f.wrap(&err)

	return f.statement(ir.Write)
}

// Read emits input into the variable on top of the operand stack.
func (f *Front) Read() (err error) {
	defer f.wrap(&err)

	return f.statement(ir.Read)
}

// IfCond emits the conditional jump over the then branch.
func (f *Front) IfCond() (err error) {
	defer f.wrap(&err)

	return f.statement(ir.GotoF)
}

// Else emits the jump over the else branch and patches the condition to land here.
func (f *Front) Else() (err error) {
	defer f.wrap(&err)

	cond, err := f.popJump()
	if err != nil {
		return err
	}

	i := f.emit(ir.Goto, ir.None, ir.None, ir.None)
	f.jumps = append(f.jumps, i)

	return f.fill(cond, len(f.Quads))
}

// EndIf patches the pending jump of the if statement.
func (f *Front) EndIf() error {
	return f.FillJump(false)
}

// WhileStart remembers where the loop condition begins.
func (f *Front) WhileStart() {
	f.jumps = append(f.jumps, len(f.Quads))
}

// WhileCond emits the loop exit jump.
func (f *Front) WhileCond() (err error) {
	defer f.wrap(&err)

	return f.statement(ir.GotoF)
}

// WhileEnd emits the jump back to the condition and patches the exit jump.
func (f *Front) WhileEnd() (err error) {
	defer f.wrap(&err)

	exit, err := f.popJump()
	if err != nil {
		return err
	}

	i := f.emit(ir.Goto, ir.None, ir.None, ir.None)
	f.jumps = append(f.jumps, i)

	err = f.FillJump(true)
	if err != nil {
		return err
	}

	return f.fill(exit, len(f.Quads))
}

func (f *Front) temp(t tp.Type) (operand, error) {
	a, err := f.Mem.Alloc(t, mem.Temp, 1)
	if err != nil {
		return operand{}, errors.Wrap(err, "temporary")
	}

	return operand{T: t, O: ir.A(a)}, nil
}

func (f *Front) pushOperand(x operand) {
	f.operands = append(f.operands, x)
}

func (f *Front) popOperand() (operand, error) {
	x, err := f.peekOperand()
	if err != nil {
		return x, err
	}

	f.operands = f.operands[:len(f.operands)-1]

	return x, nil
}

func (f *Front) peekOperand() (operand, error) {
	l := len(f.operands)
	if l == 0 {
		return operand{}, errors.Wrap(ErrUnbalanced, "operand stack is empty")
	}

	return f.operands[l-1], nil
}

func (f *Front) popBottom() error {
	l := len(f.operators)
	if l == 0 || f.operators[l-1] != fakeBottom {
		return errors.Wrap(ErrUnbalanced, "expected group bottom on operator stack")
	}

	f.operators = f.operators[:l-1]

	return nil
}
