package cif

import "fmt"

// Packet is one row of a loop: an ordered, fixed set of named values.
// Packets produced by row access are independent copies; mutating one never
// touches the loop it came from.
type Packet struct {
	names  []string
	values []Value
}

// NewPacket builds a packet from parallel name and value slices. Both are
// copied.
func NewPacket(names []string, values []Value) (*Packet, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("cif: packet with %d names but %d values", len(names), len(values))
	}
	p := &Packet{
		names:  append([]string(nil), names...),
		values: append([]Value(nil), values...),
	}
	return p, nil
}

// Names returns the field names in order. The slice is a copy.
func (p *Packet) Names() []string {
	return append([]string(nil), p.names...)
}

// Len returns the number of fields.
func (p *Packet) Len() int {
	return len(p.names)
}

// Get returns the value for a field. Field names are matched
// case-insensitively.
func (p *Packet) Get(name string) (Value, bool) {
	i := p.index(name)
	if i < 0 {
		return Value{}, false
	}
	return p.values[i], true
}

// Set replaces the value of an existing field and reports whether the field
// exists. The field set of a packet is fixed; Set never adds fields.
func (p *Packet) Set(name string, v Value) bool {
	i := p.index(name)
	if i < 0 {
		return false
	}
	p.values[i] = v
	return true
}

func (p *Packet) index(name string) int {
	want := lower(name)
	for i, n := range p.names {
		if lower(n) == want {
			return i
		}
	}
	return -1
}
