package vm

import (
	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/ir"
)

func (v *VM) binary(q ir.Quad) error {
	l, err := v.load(q.Arg1)
	if err != nil {
		return err
	}

	r, err := v.load(q.Arg2)
	if err != nil {
		return err
	}

	a, err := v.address(q.Res)
	if err != nil {
		return err
	}

	var x any

	switch q.Op {
	case ir.Sum, ir.Sub, ir.Mult, ir.Div:
		x, err = arith(q.Op, l, r)
	case ir.And, ir.Or:
		x, err = logic(q.Op, l, r)
	default:
		x, err = compare(q.Op, l, r)
	}

	if err != nil {
		return err
	}

	return v.store(a, v.layoutType(a).Convert(x))
}

func (v *VM) unary(q ir.Quad) error {
	x, err := v.load(q.Arg1)
	if err != nil {
		return err
	}

	a, err := v.address(q.Res)
	if err != nil {
		return err
	}

	switch x := x.(type) {
	case bool:
		if q.Op == ir.Not {
			return v.store(a, !x)
		}
	case int64:
		if q.Op == ir.Neg {
			return v.store(a, -x)
		}
	case float64:
		if q.Op == ir.Neg {
			return v.store(a, -x)
		}
	}

	return errors.New("%v of %T", q.Op, x)
}

func arith(op ir.Op, l, r any) (any, error) {
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok || op != ir.Sum {
			return nil, errors.New("%v of string and %T", op, r)
		}

		return ls + rs, nil
	}

	li, lint := asInt(l)
	ri, rint := asInt(r)

	if lint && rint {
		switch op {
		case ir.Sum:
			return li + ri, nil
		case ir.Sub:
			return li - ri, nil
		case ir.Mult:
			return li * ri, nil
		}

		if ri == 0 {
			return nil, ErrDivisionByZero
		}

		return li / ri, nil
	}

	lf, lok := asFloat(l)
	rf, rok := asFloat(r)

	if !lok || !rok {
		return nil, errors.New("%v of %T and %T", op, l, r)
	}

	switch op {
	case ir.Sum:
		return lf + rf, nil
	case ir.Sub:
		return lf - rf, nil
	case ir.Mult:
		return lf * rf, nil
	}

	if rf == 0 {
		return nil, ErrDivisionByZero
	}

	return lf / rf, nil
}

func compare(op ir.Op, l, r any) (bool, error) {
	var c int

	switch l := l.(type) {
	case string:
		rs, ok := r.(string)
		if !ok {
			return false, errors.New("%v of string and %T", op, r)
		}

		c = cmp(l < rs, l > rs)
	case bool:
		rb, ok := r.(bool)
		if !ok || op != ir.Eq && op != ir.Neq {
			return false, errors.New("%v of bool and %T", op, r)
		}

		c = cmp(false, l != rb)
	default:
		li, lint := asInt(l)
		ri, rint := asInt(r)

		if lint && rint {
			c = cmp(li < ri, li > ri)
			break
		}

		lf, lok := asFloat(l)
		rf, rok := asFloat(r)

		if !lok || !rok {
			return false, errors.New("%v of %T and %T", op, l, r)
		}

		c = cmp(lf < rf, lf > rf)
	}

	switch op {
	case ir.Eq:
		return c == 0, nil
	case ir.Neq:
		return c != 0, nil
	case ir.Lt:
		return c < 0, nil
	case ir.Lte:
		return c <= 0, nil
	case ir.Gt:
		return c > 0, nil
	case ir.Gte:
		return c >= 0, nil
	}

	return false, errors.New("not a comparison: %v", op)
}

func logic(op ir.Op, l, r any) (bool, error) {
	lb, lok := l.(bool)
	rb, rok := r.(bool)

	if !lok || !rok {
		return false, errors.New("%v of %T and %T", op, l, r)
	}

	if op == ir.And {
		return lb && rb, nil
	}

	return lb || rb, nil
}

func cmp(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}

	return 0
}

// asInt accepts ints and chars.
func asInt(x any) (int64, bool) {
	switch x := x.(type) {
	case int64:
		return x, true
	case rune:
		return int64(x), true
	}

	return 0, false
}

func asFloat(x any) (float64, bool) {
	if i, ok := asInt(x); ok {
		return float64(i), true
	}

	f, ok := x.(float64)

	return f, ok
}
