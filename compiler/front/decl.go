package front

import (
	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	DeclOpts struct {
		IsFunction bool
		EnterScope bool
		IsParam    bool

		// Dims are array dimension sizes, outermost first.
		Dims []int
	}

	pendingVar struct {
		name string
		dims []int
	}
)

// Declare adds id of the named type to the current scope.
func (f *Front) Declare(id, typ string, opts DeclOpts) (sym *Symbol, err error) {
	defer f.wrap(&err)

	return f.declare(id, typ, opts)
}

func (f *Front) declare(id, typ string, opts DeclOpts) (sym *Symbol, err error) {
	s := f.Current()

	if _, ok := s.Lookup(id); ok {
		return nil, errors.Wrap(ErrDuplicateDeclaration, "%v in %v scope", id, s.Name)
	}

	sym = &Symbol{
		Name:       id,
		IsFunction: opts.IsFunction,
		IsParam:    opts.IsParam,
		Scope:      NoScope,
	}

	sym.Type = tp.Lookup(typ)

	switch {
	case sym.Type == tp.Invalid:
		class := f.lookup(typ)
		if class == nil || !class.IsClass {
			return nil, errors.Wrap(ErrUnknownType, "%v of %v", typ, id)
		}

		if class == s.Owner {
			return nil, errors.Wrap(ErrUnknownType, "%v of %v: class can't contain itself", typ, id)
		}

		if opts.IsFunction || opts.IsParam {
			return nil, errors.Wrap(ErrUnknownType, "%v of %v: class values can't be passed or returned", typ, id)
		}

		sym.Type = tp.Class
		sym.Class = class
	case sym.Type == tp.Void && !opts.IsFunction:
		return nil, errors.Wrap(ErrUnknownType, "void variable %v", id)
	}

	sym.Dims, err = dims(opts.Dims, f.Mem.Layout.MaxSize())
	if err != nil {
		return nil, errors.Wrap(err, "%v", id)
	}

	if len(sym.Dims) != 0 && (sym.Type == tp.Class || opts.IsFunction || opts.IsParam) {
		return nil, errors.New("%v: only variables of primitive types can be arrays", id)
	}

	switch {
	case opts.IsFunction:
		if s.Kind != ProgramScope {
			return nil, errors.New("function %v must be declared at program level", id)
		}

		sym.Target = len(f.Quads)

		sym.Addr, err = f.Mem.Alloc(sym.Type, mem.Stack, 1)
		if err != nil {
			return nil, errors.Wrap(err, "function %v", id)
		}

		sym.HasAddr = true
	case sym.Type == tp.Class:
		if s.Kind == ClassScope {
			// nested template: instantiated together with the enclosing class
			break
		}

		sym.Scope, err = f.instantiate(sym, sym.Class, f.segment())
		if err != nil {
			return nil, errors.Wrap(err, "instance %v", id)
		}
	case s.Kind == ClassScope:
		// template field: addressed per instance
	default:
		sym.Addr, err = f.Mem.Alloc(sym.Type, f.segment(), sym.Size())
		if err != nil {
			return nil, errors.Wrap(err, "variable %v", id)
		}

		sym.HasAddr = true
	}

	s.add(sym)

	if opts.IsParam {
		if f.fn == nil || s.Owner != f.fn {
			return nil, errors.Wrap(ErrUnbalanced, "param %v outside of function header", id)
		}

		f.fn.Params = append(f.fn.Params, sym)
	}

	f.tr.V("decl").Printw("declare", "name", id, "type", sym.TypeName(), "addr", sym.Addr, "dims", len(sym.Dims), "scope", s.Name)

	if opts.IsFunction {
		sym.Scope = f.newScope(id, FuncScope, sym)
		f.fn = sym

		f.enterScope(sym.Scope)
	} else if opts.EnterScope && sym.Scope != NoScope {
		f.enterScope(sym.Scope)
	}

	return sym, nil
}

// DeclareFunction declares a function returning typ and enters its scope.
func (f *Front) DeclareFunction(id, typ string) (*Symbol, error) {
	return f.Declare(id, typ, DeclOpts{IsFunction: true, EnterScope: true})
}

// DeclareParam adds the next parameter of the function being declared.
func (f *Front) DeclareParam(id, typ string) (*Symbol, error) {
	return f.Declare(id, typ, DeclOpts{IsParam: true})
}

// EndFunction closes the body of the current function.
func (f *Front) EndFunction() (err error) {
	defer f.wrap(&err)

	if f.fn == nil || f.Current().Owner != f.fn {
		return errors.Wrap(ErrUnbalanced, "end of function outside of function")
	}

	f.emit(ir.EndFunc, ir.None, ir.None, ir.A(f.fn.Addr))

	f.fn = nil

	return f.LeaveScope()
}

// DeclareClass declares a class template and enters its body.
func (f *Front) DeclareClass(id string) (sym *Symbol, err error) {
	defer f.wrap(&err)

	s := f.Current()

	if s.Kind != ProgramScope {
		return nil, errors.New("class %v must be declared at program level", id)
	}

	if _, ok := s.Lookup(id); ok {
		return nil, errors.Wrap(ErrDuplicateDeclaration, "%v in %v scope", id, s.Name)
	}

	sym = &Symbol{
		Name:    id,
		Type:    tp.Class,
		IsClass: true,
	}

	sym.Class = sym
	sym.Scope = f.newScope(id, ClassScope, sym)

	s.add(sym)

	f.enterScope(sym.Scope)

	return sym, nil
}

// PushPending buffers an identifier whose type is not known yet.
func (f *Front) PushPending(id string) {
	f.pending = append(f.pending, pendingVar{name: id})
}

// AddPendingDim adds a dimension to the last buffered identifier.
func (f *Front) AddPendingDim(size int) (err error) {
	defer f.wrap(&err)

	if len(f.pending) == 0 {
		return errors.Wrap(ErrUnbalanced, "no pending declaration")
	}

	p := &f.pending[len(f.pending)-1]
	p.dims = append(p.dims, size)

	return nil
}

// DeclarePending declares every buffered identifier with typ and clears the buffer.
func (f *Front) DeclarePending(typ string) (err error) {
	defer f.wrap(&err)

	pending := f.pending
	f.pending = nil

	for _, p := range pending {
		_, err = f.declare(p.name, typ, DeclOpts{Dims: p.dims})
		if err != nil {
			return err
		}
	}

	return nil
}

// segment is where variables declared in the current scope live.
func (f *Front) segment() mem.Segment {
	if f.fn != nil {
		return mem.Function
	}

	return mem.Local
}

// instantiate copies the class template into a fresh directory
// giving every leaf field its own addresses.
func (f *Front) instantiate(owner, class *Symbol, seg mem.Segment) (ScopeID, error) {
	id := f.newScope(owner.Name, InstanceScope, owner)

	for _, tmpl := range f.scope(class.Scope).Symbols() {
		field := &Symbol{
			Name:  tmpl.Name,
			Type:  tmpl.Type,
			Class: tmpl.Class,
			Dims:  tmpl.Dims,
			Scope: NoScope,
		}

		if field.Type == tp.Class {
			sub, err := f.instantiate(field, field.Class, seg)
			if err != nil {
				return NoScope, errors.Wrap(err, "%v", field.Name)
			}

			field.Scope = sub
		} else {
			a, err := f.Mem.Alloc(field.Type, seg, field.Size())
			if err != nil {
				return NoScope, errors.Wrap(err, "%v", field.Name)
			}

			field.Addr = a
			field.HasAddr = true
		}

		f.scope(id).add(field)
	}

	return id, nil
}

// dims computes row major strides. The total size must fit into limit addresses.
func dims(sizes []int, limit int) ([]Dim, error) {
	if len(sizes) == 0 {
		return nil, nil
	}

	d := make([]Dim, len(sizes))
	stride := 1

	for i := len(sizes) - 1; i >= 0; i-- {
		if sizes[i] <= 0 {
			return nil, errors.New("bad dimension size: %d", sizes[i])
		}

		if sizes[i] > limit/stride {
			return nil, errors.Wrap(mem.ErrAddressSpaceExhausted, "dimensions %v: more than %d elements", sizes, limit)
		}

		d[i] = Dim{Size: sizes[i], Stride: stride}
		stride *= sizes[i]
	}

	return d, nil
}
