package mem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/ernestognw/Teampp/compiler/tp"
)

func TestLayoutDisjoint(t *testing.T) {
	l := DefaultLayout()

	type span struct {
		seg Segment
		t   tp.Type
		r   Range
	}

	var all []span

	for seg, types := range l {
		for typ, r := range types {
			all = append(all, span{seg, typ, r})
		}
	}

	require.Len(t, all, 5*5+2)

	for i, a := range all {
		for _, b := range all[i+1:] {
			overlap := a.r.Low <= b.r.High && b.r.Low <= a.r.High
			assert.False(t, overlap, "%v/%v overlaps %v/%v", a.seg, a.t, b.seg, b.t)
		}

		seg, typ, ok := l.Locate(a.r.Low)
		assert.True(t, ok)
		assert.Equal(t, a.seg, seg)
		assert.Equal(t, a.t, typ)

		seg, typ, ok = l.Locate(a.r.High)
		assert.True(t, ok)
		assert.Equal(t, a.seg, seg)
		assert.Equal(t, a.t, typ)
	}

	_, _, ok := l.Locate(0)
	assert.False(t, ok)

	_, ok = l[Temp][tp.Void]
	assert.False(t, ok, "temp segment has no void range")
}

func TestAlloc(t *testing.T) {
	m := New()

	a, err := m.Alloc(tp.Int, Local, 1)
	require.NoError(t, err)
	assert.Equal(t, m.Layout[Local][tp.Int].Low, a)

	b, err := m.Alloc(tp.Int, Local, 12)
	require.NoError(t, err)
	assert.Equal(t, a+1, b)

	c, err := m.Alloc(tp.Int, Local, 1)
	require.NoError(t, err)
	assert.Equal(t, b+12, c)

	f, err := m.Alloc(tp.Float, Local, 1)
	require.NoError(t, err)
	assert.Equal(t, tp.Float, m.Layout.TypeOf(f))
	assert.Equal(t, Local, m.Layout.SegmentOf(f))

	_, err = m.Alloc(tp.Void, Temp, 1)
	assert.Error(t, err)

	_, err = m.Alloc(tp.Int, Local, 0)
	assert.Error(t, err)
}

func TestAllocExhausted(t *testing.T) {
	m := New()

	r := m.Layout[Temp][tp.Bool]
	size := int(r.High - r.Low + 1)

	_, err := m.Alloc(tp.Bool, Temp, size-1)
	require.NoError(t, err)

	last, err := m.Alloc(tp.Bool, Temp, 1)
	require.NoError(t, err)
	assert.Equal(t, r.High, last)

	_, err = m.Alloc(tp.Bool, Temp, 1)
	assert.True(t, errors.Is(err, ErrAddressSpaceExhausted), "got %v", err)
}

func TestConstInterned(t *testing.T) {
	m := New()

	a, err := m.Const(tp.Int, int64(3))
	require.NoError(t, err)

	b, err := m.Const(tp.Int, int64(3))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := m.Const(tp.Float, 3.0)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	assert.Equal(t, Global, m.Layout.SegmentOf(a))
	assert.Equal(t, int64(3), m.Values[a])
	assert.Equal(t, 3.0, m.Values[c])
}

func TestAllocHuge(t *testing.T) {
	m := New()

	a, err := m.Alloc(tp.Int, Local, 10)
	require.NoError(t, err)

	for _, n := range []int{math.MaxInt, math.MaxInt - 5, m.Layout[Local][tp.Int].Size() - 9} {
		_, err = m.Alloc(tp.Int, Local, n)
		assert.ErrorIs(t, err, ErrAddressSpaceExhausted, "n %d", n)
	}

	b, err := m.Alloc(tp.Int, Local, m.Layout[Local][tp.Int].Size()-10)
	require.NoError(t, err)
	assert.Equal(t, a+10, b, "cursor untouched by failed allocations")
	assert.Equal(t, m.Layout[Local][tp.Int].High, b+Addr(m.Layout[Local][tp.Int].Size()-11))
}

func TestFlatLocate(t *testing.T) {
	l := DefaultLayout()
	rs := l.Flat()

	require.Len(t, rs, 5*5+2)

	for _, s := range rs {
		for _, a := range []Addr{s.Low, s.Low + 1, s.High} {
			seg, typ, ok := rs.Locate(a)
			require.True(t, ok, "addr %d", a)
			assert.Equal(t, s.Seg, seg)
			assert.Equal(t, s.T, typ)

			lseg, ltyp, _ := l.Locate(a)
			assert.Equal(t, lseg, seg)
			assert.Equal(t, ltyp, typ)
		}
	}

	for _, a := range []Addr{0, rs[0].Low - 1, rs[len(rs)-1].High + 1} {
		_, _, ok := rs.Locate(a)
		assert.False(t, ok, "addr %d", a)
	}

	assert.Equal(t, 5000, l.MaxSize())
}
