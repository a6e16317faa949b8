package mem

import (
	"sort"
	"strconv"

	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/tp"
)

type (
	Addr int

	Segment int

	// Range is an inclusive address range.
	Range struct {
		Low, High Addr
	}

	// Slot is one layout range with its owner.
	Slot struct {
		Range
		Seg Segment
		T   tp.Type
	}

	// Ranges is the layout flattened and sorted by address.
	Ranges []Slot

	// Layout is the fixed (segment, type) -> range table.
	// It is shared by the compiler and the vm.
	Layout map[Segment]map[tp.Type]Range

	// Memory allocates addresses and holds the constant pool.
	Memory struct {
		Layout Layout

		next map[Segment]map[tp.Type]Addr

		// Values holds constant values seeded at compile time.
		Values map[Addr]any

		consts map[constKey]Addr
	}

	constKey struct {
		T tp.Type
		V any
	}
)

const (
	Global Segment = iota
	Local
	Stack
	Temp
	Function
)

const (
	base      = 5000
	rangeSize = 5000
)

var ErrAddressSpaceExhausted = errors.New("address space exhausted")

var segNames = [...]string{
	Global:   "global",
	Local:    "local",
	Stack:    "stack",
	Temp:     "temp",
	Function: "function",
}

// DefaultLayout lays out segments back to back in fixed size ranges.
// Local and Stack have an additional void range for function return slots.
func DefaultLayout() Layout {
	l := make(Layout)
	next := Addr(base)

	for _, seg := range []Segment{Global, Local, Stack, Temp, Function} {
		l[seg] = make(map[tp.Type]Range)

		types := tp.Primitives
		if seg == Local || seg == Stack {
			types = append(types[:len(types):len(types)], tp.Void)
		}

		for _, t := range types {
			l[seg][t] = Range{Low: next, High: next + rangeSize - 1}
			next += rangeSize
		}
	}

	return l
}

// Locate finds the segment and type owning the address.
func (l Layout) Locate(a Addr) (Segment, tp.Type, bool) {
	for seg, types := range l {
		for t, r := range types {
			if r.Contains(a) {
				return seg, t, true
			}
		}
	}

	return 0, tp.Invalid, false
}

func (l Layout) SegmentOf(a Addr) Segment {
	seg, _, _ := l.Locate(a)
	return seg
}

func (l Layout) TypeOf(a Addr) tp.Type {
	_, t, _ := l.Locate(a)
	return t
}

// Flat returns ranges sorted by address for repeated lookups.
func (l Layout) Flat() Ranges {
	var rs Ranges

	for seg, types := range l {
		for t, r := range types {
			rs = append(rs, Slot{Range: r, Seg: seg, T: t})
		}
	}

	sort.Slice(rs, func(i, j int) bool {
		return rs[i].Low < rs[j].Low
	})

	return rs
}

// Locate finds the range owning the address by binary search.
func (rs Ranges) Locate(a Addr) (Segment, tp.Type, bool) {
	i := sort.Search(len(rs), func(i int) bool {
		return rs[i].High >= a
	})

	if i == len(rs) || rs[i].Low > a {
		return 0, tp.Invalid, false
	}

	return rs[i].Seg, rs[i].T, true
}

// MaxSize is the number of addresses in the widest range.
func (l Layout) MaxSize() int {
	max := 0

	for _, types := range l {
		for _, r := range types {
			if n := r.Size(); n > max {
				max = n
			}
		}
	}

	return max
}

func (r Range) Size() int {
	return int(r.High-r.Low) + 1
}

func (r Range) Contains(a Addr) bool {
	return a >= r.Low && a <= r.High
}

func New() *Memory {
	return NewLayout(DefaultLayout())
}

func NewLayout(l Layout) *Memory {
	m := &Memory{
		Layout: l,
		next:   make(map[Segment]map[tp.Type]Addr),
		Values: make(map[Addr]any),
		consts: make(map[constKey]Addr),
	}

	for seg, types := range l {
		m.next[seg] = make(map[tp.Type]Addr)

		for t, r := range types {
			m.next[seg][t] = r.Low
		}
	}

	return m
}

// Alloc reserves n consecutive addresses of type t in the segment.
func (m *Memory) Alloc(t tp.Type, seg Segment, n int) (Addr, error) {
	r, ok := m.Layout[seg][t]
	if !ok {
		return 0, errors.New("no %v range in %v segment", t, seg)
	}

	if n < 1 {
		return 0, errors.New("bad allocation size: %d", n)
	}

	a := m.next[seg][t]

	if n > int(r.High-a)+1 {
		return 0, errors.Wrap(ErrAddressSpaceExhausted, "%v %v: need %d, left %d", seg, t, n, int(r.High-a)+1)
	}

	m.next[seg][t] = a + Addr(n)

	return a, nil
}

// Const interns a literal into the global segment.
// The same literal of the same type always gets the same address.
func (m *Memory) Const(t tp.Type, v any) (Addr, error) {
	k := constKey{T: t, V: v}

	if a, ok := m.consts[k]; ok {
		return a, nil
	}

	a, err := m.Alloc(t, Global, 1)
	if err != nil {
		return 0, errors.Wrap(err, "constant %v", v)
	}

	m.consts[k] = a
	m.Values[a] = v

	return a, nil
}

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segNames) {
		return "segment(" + strconv.Itoa(int(s)) + ")"
	}

	return segNames[s]
}
