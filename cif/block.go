package cif

import (
	"fmt"
	"strings"
)

// Block is one data block: an ordered mapping from dataname to either a
// scalar value or membership in a loop.
//
// Dataname lookup is case-insensitive, and the spelling used at assignment
// is preserved for output. Display order is an explicit list, separate from
// lookup: a scalar occupies one slot, a whole loop occupies one slot. The
// overwrite flag (on by default) decides whether assigning an existing
// dataname replaces the value or fails with ErrOverwrite.
type Block struct {
	items   map[string]Value  // scalar items, keyed by lowercased name
	caseOf  map[string]string // lowercased name -> spelling for output
	loopOf  map[string]int    // lowercased name -> id of containing loop
	loops   map[int]*Loop
	display []displayEntry
	nextID  int

	overwrite bool
	wrap      int // per-block output override, 0 means writer default
	maxLine   int
}

// displayEntry is one display-order slot: a scalar dataname (lowercased) or
// a loop id.
type displayEntry struct {
	name   string
	loopID int
}

func (e displayEntry) isLoop() bool {
	return e.name == ""
}

// NewBlock creates an empty block with overwrite enabled.
func NewBlock() *Block {
	return &Block{
		items:     make(map[string]Value),
		caseOf:    make(map[string]string),
		loopOf:    make(map[string]int),
		loops:     make(map[int]*Loop),
		nextID:    1,
		overwrite: true,
	}
}

// Overwrite reports the overwrite flag.
func (b *Block) Overwrite() bool {
	return b.overwrite
}

// SetOverwrite sets the overwrite flag.
func (b *Block) SetOverwrite(on bool) {
	b.overwrite = on
}

// SetOutputLength overrides the wrap length and maximum line length used
// when this block is serialized. Zero keeps the serializer's value.
func (b *Block) SetOutputLength(wrap, maxLine int) {
	b.wrap = wrap
	b.maxLine = maxLine
}

// ============================================================
// Scalar items
// ============================================================

// Set assigns a value to a dataname. A new name takes the next display
// slot; an existing name keeps its slot, subject to the overwrite flag.
//
// When the name is a loop column, the value must be a list of exactly the
// loop's row count and it replaces that column; anything else fails with
// ErrLoopLengthMismatch.
func (b *Block) Set(name string, v Value) error {
	key := lower(name)

	if id, ok := b.loopOf[key]; ok {
		if !b.overwrite {
			return fmt.Errorf("%w: %s", ErrOverwrite, name)
		}
		l := b.loops[id]
		if v.Kind() != KindList || v.Len() != l.Len() {
			return fmt.Errorf("%w: %s holds a loop column of %d rows", ErrLoopLengthMismatch, name, l.Len())
		}
		l.setColumn(name, append([]Value(nil), v.Items()...))
		b.caseOf[key] = name
		return nil
	}

	if _, ok := b.items[key]; ok {
		if !b.overwrite {
			return fmt.Errorf("%w: %s", ErrOverwrite, name)
		}
		b.items[key] = v
		b.caseOf[key] = name
		return nil
	}

	b.items[key] = v
	b.caseOf[key] = name
	b.display = append(b.display, displayEntry{name: key})
	return nil
}

// Get returns the value stored under a dataname. For a loop column it
// returns the column as a list sharing the loop's backing storage, the same
// live view Column gives.
func (b *Block) Get(name string) (Value, bool) {
	key := lower(name)
	if v, ok := b.items[key]; ok {
		return v, true
	}
	if id, ok := b.loopOf[key]; ok {
		col, err := b.loops[id].Column(name)
		if err == nil {
			return Value{kind: KindList, items: col}, true
		}
	}
	return Value{}, false
}

// Has reports whether the dataname exists, as a scalar or in a loop.
func (b *Block) Has(name string) bool {
	key := lower(name)
	if _, ok := b.items[key]; ok {
		return true
	}
	_, ok := b.loopOf[key]
	return ok
}

// Names returns every dataname in display order, loops expanded in column
// order, with original spelling.
func (b *Block) Names() []string {
	var out []string
	for _, e := range b.display {
		if e.isLoop() {
			out = append(out, b.loops[e.loopID].Names()...)
			continue
		}
		out = append(out, b.caseOf[e.name])
	}
	return out
}

// Remove deletes a dataname and reports whether it existed. Removing the
// last column of a loop removes the loop's display slot as well.
func (b *Block) Remove(name string) bool {
	key := lower(name)

	if _, ok := b.items[key]; ok {
		delete(b.items, key)
		delete(b.caseOf, key)
		b.dropDisplay(displayEntry{name: key})
		return true
	}

	if id, ok := b.loopOf[key]; ok {
		delete(b.loopOf, key)
		delete(b.caseOf, key)
		if b.loops[id].removeColumn(name) {
			delete(b.loops, id)
			b.dropDisplay(displayEntry{loopID: id})
		}
		return true
	}

	return false
}

// ============================================================
// Loops
// ============================================================

// CreateLoop gathers existing scalar items into a new loop and returns the
// loop id. Every named item must hold a list; a plain scalar is promoted to
// a one-element list first, so looping a set of plain scalars yields a
// one-row loop. Unequal lengths fail with ErrLoopLengthMismatch.
//
// The loop takes over the display slot of the earliest named item.
func (b *Block) CreateLoop(names []string) (int, error) {
	if len(names) == 0 {
		return 0, fmt.Errorf("cif: CreateLoop needs at least one dataname")
	}

	keys := make([]string, len(names))
	cols := make([][]Value, len(names))
	for i, name := range names {
		key := lower(name)
		if _, ok := b.loopOf[key]; ok {
			return 0, fmt.Errorf("cif: %s is already in a loop", name)
		}
		v, ok := b.items[key]
		if !ok {
			return 0, fmt.Errorf("cif: no such dataname %s", name)
		}
		keys[i] = key
		if v.Kind() == KindList {
			cols[i] = append([]Value(nil), v.Items()...)
		} else {
			cols[i] = []Value{v}
		}
	}

	rows := len(cols[0])
	for i, col := range cols {
		if len(col) != rows {
			return 0, fmt.Errorf("%w: %s has %d values, %s has %d",
				ErrLoopLengthMismatch, names[0], rows, names[i], len(col))
		}
	}

	// The loop replaces the earliest member's display slot; the other
	// members' slots vanish.
	slot := len(b.display)
	for i, e := range b.display {
		if e.isLoop() {
			continue
		}
		for _, key := range keys {
			if e.name == key {
				if i < slot {
					slot = i
				}
			}
		}
	}

	trueNames := make([]string, len(names))
	for i, key := range keys {
		trueNames[i] = b.caseOf[key]
	}
	id := b.nextID
	b.nextID++
	b.loops[id] = newLoop(trueNames, cols)

	kept := b.display[:0]
	placed := false
	for i, e := range b.display {
		if !e.isLoop() && containsString(keys, e.name) {
			if i == slot && !placed {
				kept = append(kept, displayEntry{loopID: id})
				placed = true
			}
			continue
		}
		kept = append(kept, e)
	}
	if !placed {
		kept = append(kept, displayEntry{loopID: id})
	}
	b.display = kept

	for _, key := range keys {
		delete(b.items, key)
		b.loopOf[key] = id
	}
	return id, nil
}

// AddToLoop adds or replaces one column in the loop that already contains
// intoName. An existing column of the same name is silently replaced. The
// column must be a list of the loop's row count; a plain scalar is accepted
// for one-row loops.
func (b *Block) AddToLoop(intoName, colName string, col Value) error {
	id, ok := b.loopOf[lower(intoName)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInLoop, intoName)
	}
	l := b.loops[id]

	var vals []Value
	if col.Kind() == KindList {
		vals = append([]Value(nil), col.Items()...)
	} else {
		vals = []Value{col}
	}
	if len(vals) != l.Len() {
		return fmt.Errorf("%w: column %s has %d values, loop has %d rows",
			ErrLoopLengthMismatch, colName, len(vals), l.Len())
	}

	key := lower(colName)
	if other, ok := b.loopOf[key]; ok && other != id {
		return fmt.Errorf("cif: %s is already in another loop", colName)
	}
	if _, ok := b.items[key]; ok {
		// The scalar gives way to the loop column.
		delete(b.items, key)
		b.dropDisplay(displayEntry{name: key})
	}

	l.setColumn(colName, vals)
	b.loopOf[key] = id
	b.caseOf[key] = colName
	return nil
}

// GetLoop returns the loop containing the named column, or fails with
// ErrNotInLoop.
func (b *Block) GetLoop(name string) (*Loop, error) {
	id, ok := b.loopOf[lower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInLoop, name)
	}
	return b.loops[id], nil
}

// FindLoop returns the id of the loop containing the named column, for use
// with ChangeLoopOrder.
func (b *Block) FindLoop(name string) (int, error) {
	id, ok := b.loopOf[lower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotInLoop, name)
	}
	return id, nil
}

// Loops returns the block's loops in display order.
func (b *Block) Loops() []*Loop {
	var out []*Loop
	for _, e := range b.display {
		if e.isLoop() {
			out = append(out, b.loops[e.loopID])
		}
	}
	return out
}

// Column returns the named loop column as a live view, like Loop.Column.
func (b *Block) Column(name string) ([]Value, error) {
	l, err := b.GetLoop(name)
	if err != nil {
		return nil, err
	}
	return l.Column(name)
}

// GetKeyedPacket returns the single row of the loop containing keyName
// whose keyName column holds keyValue. See Loop.GetKeyedPacket.
func (b *Block) GetKeyedPacket(keyName, keyValue string) (*Packet, error) {
	l, err := b.GetLoop(keyName)
	if err != nil {
		return nil, err
	}
	return l.GetKeyedPacket(keyName, keyValue)
}

// RemoveKeyedPacket removes the row GetKeyedPacket would return.
func (b *Block) RemoveKeyedPacket(keyName, keyValue string) error {
	l, err := b.GetLoop(keyName)
	if err != nil {
		return err
	}
	return l.RemoveKeyedPacket(keyName, keyValue)
}

// attachLoop installs a parser-built loop at the end of the display list.
// Column names colliding with existing datanames follow the overwrite
// policy: the earlier occurrence is removed.
func (b *Block) attachLoop(l *Loop) error {
	for _, name := range l.names {
		if b.Has(name) {
			if !b.overwrite {
				return fmt.Errorf("%w: %s", ErrOverwrite, name)
			}
			b.Remove(name)
		}
	}
	id := b.nextID
	b.nextID++
	b.loops[id] = l
	b.display = append(b.display, displayEntry{loopID: id})
	for _, name := range l.names {
		key := lower(name)
		b.loopOf[key] = id
		b.caseOf[key] = name
	}
	return nil
}

// ============================================================
// Display order
// ============================================================

// ChangeItemOrder moves a scalar item to a new display position. Positions
// beyond the list clamp to its ends. Loop columns cannot be moved alone;
// move the loop with ChangeLoopOrder.
func (b *Block) ChangeItemOrder(name string, pos int) error {
	key := lower(name)
	if _, ok := b.loopOf[key]; ok {
		return fmt.Errorf("cif: %s is in a loop; use ChangeLoopOrder", name)
	}
	if _, ok := b.items[key]; !ok {
		return fmt.Errorf("cif: no such dataname %s", name)
	}
	b.moveDisplay(displayEntry{name: key}, pos)
	return nil
}

// ChangeLoopOrder moves a whole loop, identified by its FindLoop id, to a
// new display position.
func (b *Block) ChangeLoopOrder(id, pos int) error {
	if _, ok := b.loops[id]; !ok {
		return fmt.Errorf("cif: no loop with id %d", id)
	}
	b.moveDisplay(displayEntry{loopID: id}, pos)
	return nil
}

func (b *Block) dropDisplay(e displayEntry) {
	for i := range b.display {
		if b.display[i] == e {
			b.display = append(b.display[:i], b.display[i+1:]...)
			return
		}
	}
}

func (b *Block) moveDisplay(e displayEntry, pos int) {
	b.dropDisplay(e)
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.display) {
		pos = len(b.display)
	}
	b.display = append(b.display, displayEntry{})
	copy(b.display[pos+1:], b.display[pos:])
	b.display[pos] = e
}

func lower(s string) string {
	return strings.ToLower(s)
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
