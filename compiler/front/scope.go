package front

import (
	"fmt"
	"path"

	"tlog.app/go/errors"
	"tlog.app/go/loc"

	"github.com/ernestognw/Teampp/compiler/mem"
	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	ScopeID int

	ScopeKind int

	// Scope is the symbol directory of one program, function or class body,
	// or of one class instance.
	Scope struct {
		Name string
		Kind ScopeKind

		Owner *Symbol

		syms  map[string]*Symbol
		order []string

		from loc.PC
	}

	Dim struct {
		Size   int
		Stride int
	}

	Symbol struct {
		Name string
		Type tp.Type

		// Class is the class definition of an instance or of a class itself.
		Class *Symbol

		IsFunction bool
		IsParam    bool
		IsClass    bool

		Dims []Dim

		Addr    mem.Addr
		HasAddr bool

		Params []*Symbol
		Target int

		// Scope is the nested directory: function body, class template or instance fields.
		Scope ScopeID
	}
)

const (
	ProgramScope ScopeKind = iota
	FuncScope
	ClassScope
	InstanceScope
)

const NoScope ScopeID = -1

func (f *Front) newScope(name string, kind ScopeKind, owner *Symbol) ScopeID {
	id := ScopeID(len(f.scopes))

	f.scopes = append(f.scopes, &Scope{
		Name:  name,
		Kind:  kind,
		Owner: owner,
		syms:  make(map[string]*Symbol),
		from:  loc.Caller(2),
	})

	return id
}

func (f *Front) scope(id ScopeID) *Scope {
	return f.scopes[id]
}

// Current is the innermost live scope.
func (f *Front) Current() *Scope {
	return f.scope(f.cur)
}

func (f *Front) enterScope(id ScopeID) {
	f.prev = append(f.prev, f.cur)
	f.cur = id

	s := f.scope(id)

	f.tr.V("scopes").Printw("enter scope", "name", s.Name, "kind", s.Kind, "depth", len(f.prev), "from", fmtFrom(s.from))
}

// LeaveScope pops back to the enclosing directory.
func (f *Front) LeaveScope() (err error) {
	defer f.wrap(&err)

	if len(f.prev) == 0 {
		return errors.Wrap(ErrUnbalanced, "leave root scope")
	}

	s := f.Current()

	f.tr.V("scopes").Printw("leave scope", "name", s.Name, "syms", len(s.syms), "depth", len(f.prev))

	f.cur = f.prev[len(f.prev)-1]
	f.prev = f.prev[:len(f.prev)-1]

	return nil
}

// lookup searches the live scope stack from the innermost scope outwards.
func (f *Front) lookup(id string) *Symbol {
	if s, ok := f.scope(f.cur).syms[id]; ok {
		return s
	}

	for i := len(f.prev) - 1; i >= 0; i-- {
		if s, ok := f.scope(f.prev[i]).syms[id]; ok {
			return s
		}
	}

	return nil
}

// Resolve finds a declared identifier.
// Expected type check is skipped for tp.Invalid.
func (f *Front) Resolve(id string, expected tp.Type, expectFunction bool) (sym *Symbol, err error) {
	defer f.wrap(&err)

	return f.resolve(id, expected, expectFunction)
}

func (f *Front) resolve(id string, expected tp.Type, expectFunction bool) (*Symbol, error) {
	sym := f.lookup(id)
	if sym == nil {
		return nil, errors.Wrap(ErrUndeclaredIdentifier, "%v in %v scope", id, f.Current().Name)
	}

	if expectFunction && !sym.IsFunction {
		return nil, errors.Wrap(ErrNotAFunction, "%v", id)
	}

	if expected != tp.Invalid && sym.Type != expected {
		return nil, errors.Wrap(ErrTypeMismatch, "%v is %v, expected %v", id, sym.TypeName(), expected)
	}

	return sym, nil
}

// member looks id up strictly inside the instance directory of base.
func (f *Front) member(base *Symbol, id string) (*Symbol, error) {
	if base.IsFunction {
		return nil, errors.Wrap(ErrNotAFunction, "%v is a function and has no member %v", base.Name, id)
	}

	if base.Scope == NoScope {
		return nil, errors.Wrap(ErrUndeclaredIdentifier, "%v has no members", base.Name)
	}

	sym, ok := f.scope(base.Scope).Lookup(id)
	if !ok {
		return nil, errors.Wrap(ErrUndeclaredIdentifier, "%v not declared in %v", id, base.Name)
	}

	return sym, nil
}

func (s *Scope) add(sym *Symbol) {
	s.syms[sym.Name] = sym
	s.order = append(s.order, sym.Name)
}

// Lookup finds a symbol declared directly in the scope.
func (s *Scope) Lookup(id string) (*Symbol, bool) {
	sym, ok := s.syms[id]
	return sym, ok
}

// Symbols returns symbols in declaration order.
func (s *Scope) Symbols() []*Symbol {
	l := make([]*Symbol, len(s.order))

	for i, n := range s.order {
		l[i] = s.syms[n]
	}

	return l
}

// Size is the number of addresses the symbol occupies.
func (s *Symbol) Size() int {
	n := 1

	for _, d := range s.Dims {
		n *= d.Size
	}

	return n
}

func (s *Symbol) TypeName() string {
	if s.Type == tp.Class && s.Class != nil {
		return s.Class.Name
	}

	return s.Type.String()
}

func (k ScopeKind) String() string {
	switch k {
	case ProgramScope:
		return "program"
	case FuncScope:
		return "func"
	case ClassScope:
		return "class"
	case InstanceScope:
		return "instance"
	}

	return fmt.Sprintf("scope_kind(%d)", int(k))
}

func fmtFrom(pc loc.PC) string {
	if pc == 0 {
		return ""
	}

	name, _, line := pc.NameFileLine()
	name = path.Ext(name)

	return fmt.Sprintf("%s:%d", name, line)
}
