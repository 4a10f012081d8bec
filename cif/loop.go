package cif

import "fmt"

// Loop is a table: named columns of equal length, stored column-major.
//
// Access is asymmetric on purpose. Column returns a live view into the
// backing storage, because bulk column edits are the common case. Packet
// and Packets return independent copies, so row snapshots are safe to keep
// and mutate. Callers relying on one behavior must not assume the other.
type Loop struct {
	names []string
	cols  [][]Value
}

// newLoop wires up a loop from parallel names and columns. Callers have
// already checked the lengths.
func newLoop(names []string, cols [][]Value) *Loop {
	return &Loop{names: names, cols: cols}
}

// Names returns the column names in order, original case preserved. The
// slice is a copy.
func (l *Loop) Names() []string {
	return append([]string(nil), l.names...)
}

// Len returns the number of rows.
func (l *Loop) Len() int {
	if len(l.cols) == 0 {
		return 0
	}
	return len(l.cols[0])
}

// Width returns the number of columns.
func (l *Loop) Width() int {
	return len(l.names)
}

// Has reports whether the loop has a column with the given name.
func (l *Loop) Has(name string) bool {
	return l.colIndex(name) >= 0
}

// Column returns the named column as a live, mutably-aliased view of the
// loop's backing storage: assigning through the returned slice changes the
// loop. It fails with ErrNotInLoop for unknown names.
func (l *Loop) Column(name string) ([]Value, error) {
	i := l.colIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotInLoop, name)
	}
	return l.cols[i], nil
}

// Packet returns row i as an independent copy.
func (l *Loop) Packet(i int) (*Packet, error) {
	if i < 0 || i >= l.Len() {
		return nil, fmt.Errorf("cif: row %d out of range (have %d)", i, l.Len())
	}
	return l.packetAt(i), nil
}

// Packets returns all rows, in stored order, as independent copies. Row
// order is preserved from input as a convenience; the format itself
// attaches no meaning to it.
func (l *Loop) Packets() []*Packet {
	out := make([]*Packet, l.Len())
	for i := range out {
		out[i] = l.packetAt(i)
	}
	return out
}

func (l *Loop) packetAt(i int) *Packet {
	names := append([]string(nil), l.names...)
	values := make([]Value, len(l.cols))
	for c := range l.cols {
		values[c] = l.cols[c][i]
	}
	return &Packet{names: names, values: values}
}

// AddPacket appends one row. The packet's field set must equal the loop's
// column set exactly; extra, missing, or renamed fields fail with
// ErrPacketSchema.
func (l *Loop) AddPacket(p *Packet) error {
	if p.Len() != len(l.names) {
		return fmt.Errorf("%w: packet has %d fields, loop has %d columns", ErrPacketSchema, p.Len(), len(l.names))
	}
	row := make([]Value, len(l.names))
	for c, name := range l.names {
		v, ok := p.Get(name)
		if !ok {
			return fmt.Errorf("%w: packet is missing %s", ErrPacketSchema, name)
		}
		row[c] = v
	}
	for c := range l.cols {
		l.cols[c] = append(l.cols[c], row[c])
	}
	return nil
}

// GetKeyedPacket returns the single row whose keyName column holds the text
// keyValue, as an independent copy. Zero matches and multiple matches both
// fail with ErrAmbiguousKey.
func (l *Loop) GetKeyedPacket(keyName, keyValue string) (*Packet, error) {
	i, err := l.keyedRow(keyName, keyValue)
	if err != nil {
		return nil, err
	}
	return l.packetAt(i), nil
}

// RemoveKeyedPacket removes the single row selected by the same rule as
// GetKeyedPacket, with the same failure semantics.
func (l *Loop) RemoveKeyedPacket(keyName, keyValue string) error {
	i, err := l.keyedRow(keyName, keyValue)
	if err != nil {
		return err
	}
	for c := range l.cols {
		l.cols[c] = append(l.cols[c][:i], l.cols[c][i+1:]...)
	}
	return nil
}

func (l *Loop) keyedRow(keyName, keyValue string) (int, error) {
	c := l.colIndex(keyName)
	if c < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotInLoop, keyName)
	}
	found := -1
	for i, v := range l.cols[c] {
		if v.Kind() == KindText && v.Text() == keyValue {
			if found >= 0 {
				return 0, fmt.Errorf("%w: %s=%q matches more than one row", ErrAmbiguousKey, keyName, keyValue)
			}
			found = i
		}
	}
	if found < 0 {
		return 0, fmt.Errorf("%w: %s=%q matches no row", ErrAmbiguousKey, keyName, keyValue)
	}
	return found, nil
}

func (l *Loop) colIndex(name string) int {
	want := lower(name)
	for i, n := range l.names {
		if lower(n) == want {
			return i
		}
	}
	return -1
}

// setColumn replaces or appends a column. Length checks belong to the
// callers in Block.
func (l *Loop) setColumn(name string, col []Value) {
	if i := l.colIndex(name); i >= 0 {
		l.names[i] = name
		l.cols[i] = col
		return
	}
	l.names = append(l.names, name)
	l.cols = append(l.cols, col)
}

// removeColumn drops a column and reports whether the loop is now empty.
func (l *Loop) removeColumn(name string) bool {
	if i := l.colIndex(name); i >= 0 {
		l.names = append(l.names[:i], l.names[i+1:]...)
		l.cols = append(l.cols[:i], l.cols[i+1:]...)
	}
	return len(l.names) == 0
}
