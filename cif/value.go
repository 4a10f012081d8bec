package cif

import (
	"fmt"
	"strings"
)

// ValueKind discriminates the three value shapes of the format.
type ValueKind uint8

const (
	KindText  ValueKind = iota // opaque string scalar
	KindList                   // ordered composite, grammars 2.0 and STAR2
	KindTable                  // ordered key/value composite, grammars 2.0 and STAR2
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Delimiter records how a scalar was (or should be) delimited in source
// text. It is formatting metadata only: two values that differ solely in
// delimiter compare equal.
type Delimiter uint8

const (
	DelimAuto         Delimiter = iota // serializer picks the narrowest safe form
	DelimNone                          // bare
	DelimSingle                        // '...'
	DelimDouble                        // "..."
	DelimSemicolon                     // multi-line text block
	DelimTripleSingle                  // '''...''', grammars 2.0 and STAR2
	DelimTripleDouble                  // """...""", grammars 2.0 and STAR2
)

// String returns the delimiter name.
func (d Delimiter) String() string {
	switch d {
	case DelimAuto:
		return "auto"
	case DelimNone:
		return "bare"
	case DelimSingle:
		return "single"
	case DelimDouble:
		return "double"
	case DelimSemicolon:
		return "semicolon"
	case DelimTripleSingle:
		return "triple-single"
	case DelimTripleDouble:
		return "triple-double"
	default:
		return "unknown"
	}
}

// Value is one datavalue: a text scalar, a list, or a table. Scalars are
// never typed or coerced; "1.5" stays the three characters 1, . and 5.
//
// The zero Value is the empty text scalar.
type Value struct {
	kind    ValueKind
	text    string
	delim   Delimiter
	items   []Value
	entries []TableEntry
}

// TableEntry is one key/value pair of a table. Keys keep their source order.
type TableEntry struct {
	Key   string
	Value Value
}

// ============================================================
// Constructors
// ============================================================

// Text creates a text scalar with automatic delimiter selection on output.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// TextDelim creates a text scalar carrying an explicit delimiter preference.
// The serializer honors the preference when the content permits.
func TextDelim(s string, d Delimiter) Value {
	return Value{kind: KindText, text: s, delim: d}
}

// List creates a list value from the given elements.
func List(items ...Value) Value {
	return Value{kind: KindList, items: items}
}

// Texts creates a list of text scalars. It is the usual way to stage a
// column before Block.CreateLoop.
func Texts(ss ...string) Value {
	items := make([]Value, len(ss))
	for i, s := range ss {
		items[i] = Text(s)
	}
	return Value{kind: KindList, items: items}
}

// Table creates a table value from the given entries.
func Table(entries ...TableEntry) Value {
	return Value{kind: KindTable, entries: entries}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Text returns the scalar content, or "" for lists and tables.
func (v Value) Text() string {
	if v.kind != KindText {
		return ""
	}
	return v.text
}

// Delim returns the recorded delimiter preference.
func (v Value) Delim() Delimiter {
	return v.delim
}

// WithDelim returns a copy of the value with the delimiter preference set.
func (v Value) WithDelim(d Delimiter) Value {
	v.delim = d
	return v
}

// Items returns the list elements, or nil for non-lists. The slice is the
// value's backing storage, not a copy.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Entries returns the table entries, or nil for non-tables. The slice is
// the value's backing storage, not a copy.
func (v Value) Entries() []TableEntry {
	if v.kind != KindTable {
		return nil
	}
	return v.entries
}

// Len returns the element count of a list or table, and 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.items)
	case KindTable:
		return len(v.entries)
	default:
		return 0
	}
}

// Lookup returns the table entry value for key, if present.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindTable {
		return Value{}, false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Equal reports structural equality: same kind and same content, element by
// element. Delimiter metadata is ignored.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == w.text
	case KindList:
		if len(v.items) != len(w.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(w.items[i]) {
				return false
			}
		}
		return true
	case KindTable:
		if len(v.entries) != len(w.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != w.entries[i].Key {
				return false
			}
			if !v.entries[i].Value.Equal(w.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String returns a debug representation.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return fmt.Sprintf("%q", v.text)
	case KindList:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindTable:
		parts := make([]string, len(v.entries))
		for i, e := range v.entries {
			parts[i] = fmt.Sprintf("%q:%s", e.Key, e.Value.String())
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return "<invalid>"
	}
}
