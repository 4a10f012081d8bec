package cif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleLoop(t *testing.T) (*Block, *Loop) {
	t.Helper()
	b := NewBlock()
	require.NoError(t, b.Set("_atom_site_label", Texts("C1", "N2", "O3")))
	require.NoError(t, b.Set("_atom_site_occupancy", Texts("1.0", "0.5", "1.0")))
	_, err := b.CreateLoop([]string{"_atom_site_label", "_atom_site_occupancy"})
	require.NoError(t, err)
	l, err := b.GetLoop("_atom_site_label")
	require.NoError(t, err)
	return b, l
}

func TestLoopBasics(t *testing.T) {
	_, l := sampleLoop(t)
	require.Equal(t, []string{"_atom_site_label", "_atom_site_occupancy"}, l.Names())
	require.Equal(t, 3, l.Len())
	require.Equal(t, 2, l.Width())
	require.True(t, l.Has("_ATOM_SITE_LABEL"))
	require.False(t, l.Has("_missing"))
}

func TestLoopColumnIsLive(t *testing.T) {
	_, l := sampleLoop(t)
	col, err := l.Column("_atom_site_occupancy")
	require.NoError(t, err)
	col[1] = Text("0.75")

	p, err := l.Packet(1)
	require.NoError(t, err)
	v, ok := p.Get("_atom_site_occupancy")
	require.True(t, ok)
	require.Equal(t, "0.75", v.Text())

	_, err = l.Column("_missing")
	require.ErrorIs(t, err, ErrNotInLoop)
}

func TestLoopPacketIsACopy(t *testing.T) {
	_, l := sampleLoop(t)
	p, err := l.Packet(0)
	require.NoError(t, err)
	require.True(t, p.Set("_atom_site_label", Text("XX")))

	// The loop still holds the original row.
	col, err := l.Column("_atom_site_label")
	require.NoError(t, err)
	require.Equal(t, "C1", col[0].Text())
}

func TestLoopPacketRange(t *testing.T) {
	_, l := sampleLoop(t)
	_, err := l.Packet(-1)
	require.Error(t, err)
	_, err = l.Packet(3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of range")
}

func TestLoopPackets(t *testing.T) {
	_, l := sampleLoop(t)
	ps := l.Packets()
	require.Len(t, ps, 3)
	labels := make([]string, len(ps))
	for i, p := range ps {
		v, ok := p.Get("_atom_site_label")
		require.True(t, ok)
		labels[i] = v.Text()
	}
	require.Equal(t, []string{"C1", "N2", "O3"}, labels)
}

func TestLoopAddPacket(t *testing.T) {
	_, l := sampleLoop(t)

	// Field order in the packet does not matter, only the names.
	p, err := NewPacket(
		[]string{"_atom_site_occupancy", "_atom_site_label"},
		[]Value{Text("0.25"), Text("S4")},
	)
	require.NoError(t, err)
	require.NoError(t, l.AddPacket(p))
	require.Equal(t, 4, l.Len())

	got, err := l.Packet(3)
	require.NoError(t, err)
	v, ok := got.Get("_atom_site_label")
	require.True(t, ok)
	require.Equal(t, "S4", v.Text())
}

func TestLoopAddPacketSchema(t *testing.T) {
	_, l := sampleLoop(t)

	short, err := NewPacket([]string{"_atom_site_label"}, []Value{Text("S4")})
	require.NoError(t, err)
	err = l.AddPacket(short)
	require.ErrorIs(t, err, ErrPacketSchema)
	require.Contains(t, err.Error(), "packet has 1 fields, loop has 2 columns")

	renamed, err := NewPacket(
		[]string{"_atom_site_label", "_wrong_name"},
		[]Value{Text("S4"), Text("1.0")},
	)
	require.NoError(t, err)
	err = l.AddPacket(renamed)
	require.ErrorIs(t, err, ErrPacketSchema)
	require.Contains(t, err.Error(), "packet is missing _atom_site_occupancy")
	require.Equal(t, 3, l.Len())
}

func TestLoopKeyedPacket(t *testing.T) {
	_, l := sampleLoop(t)

	p, err := l.GetKeyedPacket("_atom_site_label", "N2")
	require.NoError(t, err)
	v, ok := p.Get("_atom_site_occupancy")
	require.True(t, ok)
	require.Equal(t, "0.5", v.Text())

	// The occupancy 1.0 appears in two rows.
	_, err = l.GetKeyedPacket("_atom_site_occupancy", "1.0")
	require.ErrorIs(t, err, ErrAmbiguousKey)
	require.Contains(t, err.Error(), "matches more than one row")

	// Zero matches fail the same way.
	_, err = l.GetKeyedPacket("_atom_site_label", "Zz")
	require.ErrorIs(t, err, ErrAmbiguousKey)
	require.Contains(t, err.Error(), "matches no row")

	_, err = l.GetKeyedPacket("_missing", "C1")
	require.ErrorIs(t, err, ErrNotInLoop)
}

func TestLoopRemoveKeyedPacket(t *testing.T) {
	_, l := sampleLoop(t)

	require.NoError(t, l.RemoveKeyedPacket("_atom_site_label", "N2"))
	require.Equal(t, 2, l.Len())
	col, err := l.Column("_atom_site_label")
	require.NoError(t, err)
	require.Equal(t, "C1", col[0].Text())
	require.Equal(t, "O3", col[1].Text())

	err = l.RemoveKeyedPacket("_atom_site_label", "N2")
	require.ErrorIs(t, err, ErrAmbiguousKey)
	require.Equal(t, 2, l.Len())
}

func TestPacket(t *testing.T) {
	p, err := NewPacket([]string{"_a", "_b"}, []Value{Text("1"), Text("2")})
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())
	require.Equal(t, []string{"_a", "_b"}, p.Names())

	v, ok := p.Get("_A")
	require.True(t, ok)
	require.Equal(t, "1", v.Text())
	_, ok = p.Get("_c")
	require.False(t, ok)

	require.True(t, p.Set("_b", Text("9")))
	v, ok = p.Get("_b")
	require.True(t, ok)
	require.Equal(t, "9", v.Text())

	// The field set is fixed; Set never grows it.
	require.False(t, p.Set("_c", Text("x")))

	_, err = NewPacket([]string{"_a"}, []Value{Text("1"), Text("2")})
	require.Error(t, err)
}
