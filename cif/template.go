package cif

import (
	"fmt"
	"strings"
)

// A Template captures the layout of a skeleton data block: the order of its
// datanames, the column each value starts in, the delimiter each value was
// given, and the indent of semicolon text. The serializer applies a
// template to every block it writes; datanames the template does not cover
// keep their natural order and layout.
type Template struct {
	order   []string
	entries map[string]templateEntry
}

type templateEntry struct {
	pos      int
	colstart int // 1-based column of the value, 0 when unset
	delim    Delimiter
	indent   int
	looped   bool
}

// Covers reports whether the template lays out name.
func (t *Template) Covers(name string) bool {
	_, ok := t.entries[lower(name)]
	return ok
}

// Looped reports whether the template places name inside a loop.
func (t *Template) Looped(name string) bool {
	e, ok := t.entries[lower(name)]
	return ok && e.looped
}

// Names returns the covered datanames in template order.
func (t *Template) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Template) lookup(name string) (templateEntry, bool) {
	e, ok := t.entries[lower(name)]
	return e, ok
}

func (t *Template) position(name string) (int, bool) {
	e, ok := t.entries[lower(name)]
	return e.pos, ok
}

func templateErrorf(line int, format string, args ...interface{}) error {
	return &TemplateFormatError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// ParseTemplate reads a layout template. The text looks like a small data
// block with dummy values: one dataname per line, loop_ and data_ standing
// alone, loop datanames one per line followed by rows of short dummy
// values, and semicolon text fields only outside loops.
func ParseTemplate(text string) (*Template, error) {
	lines := strings.Split(normalizeInput(text), "\n")
	t := &Template{entries: make(map[string]templateEntry)}

	pending := ""  // dataname still waiting for its value
	pendingLn := 0 // its line number
	inLoop := false
	dummySeen := false

	add := func(ln int, name string, e templateEntry) error {
		key := lower(name)
		if _, dup := t.entries[key]; dup {
			return templateErrorf(ln, "duplicate dataname %s", name)
		}
		e.pos = len(t.order)
		t.order = append(t.order, name)
		t.entries[key] = e
		return nil
	}

	for i := 0; i < len(lines); i++ {
		ln := i + 1
		raw := lines[i]
		stripped := strings.TrimSpace(raw)

		switch {
		case stripped == "" || strings.HasPrefix(stripped, "#"):
			continue

		case strings.HasPrefix(raw, ";"):
			if inLoop {
				return nil, templateErrorf(ln, "text blocks are not allowed inside template loops")
			}
			if pending == "" {
				return nil, templateErrorf(ln, "text block without a preceding dataname")
			}
			indent, end, err := scanTemplateText(lines, i)
			if err != nil {
				return nil, err
			}
			if err := add(pendingLn, pending, templateEntry{delim: DelimSemicolon, indent: indent}); err != nil {
				return nil, err
			}
			pending = ""
			i = end
			continue

		case strings.HasPrefix(lower(stripped), "data_"):
			if pending != "" {
				return nil, templateErrorf(pendingLn, "dataname %s has no value", pending)
			}
			if len(strings.Fields(stripped)) != 1 {
				return nil, templateErrorf(ln, "data_ header must stand alone on its line")
			}
			inLoop = false
			continue

		case lower(stripped) == "loop_":
			if pending != "" {
				return nil, templateErrorf(pendingLn, "dataname %s has no value", pending)
			}
			inLoop = true
			dummySeen = false
			continue

		case strings.HasPrefix(lower(stripped), "loop_"):
			return nil, templateErrorf(ln, "loop_ must stand alone on its line")

		case strings.HasPrefix(stripped, "_"):
			fields := strings.Fields(stripped)
			name := fields[0]
			if pending != "" {
				return nil, templateErrorf(pendingLn, "dataname %s has no value", pending)
			}
			if inLoop && dummySeen {
				inLoop = false
			}
			if inLoop {
				if len(fields) != 1 {
					return nil, templateErrorf(ln, "loop dataname %s must stand alone on its line", name)
				}
				if err := add(ln, name, templateEntry{looped: true}); err != nil {
					return nil, err
				}
				continue
			}
			if len(fields) == 1 {
				pending, pendingLn = name, ln
				continue
			}
			col, delim, err := scanTemplateValue(raw, name, fields, ln)
			if err != nil {
				return nil, err
			}
			if err := add(ln, name, templateEntry{colstart: col, delim: delim}); err != nil {
				return nil, err
			}

		case inLoop:
			// A dummy row under the loop datanames.
			for _, f := range strings.Fields(stripped) {
				if !plainDummy(f) {
					return nil, templateErrorf(ln, "loop dummy value %q must be alphanumeric", f)
				}
			}
			dummySeen = true

		case pending != "":
			// Value on the line after its dataname.
			col := len(raw) - len(strings.TrimLeft(raw, " \t")) + 1
			delim := detectDelim(stripped)
			if err := add(pendingLn, pending, templateEntry{colstart: col, delim: delim}); err != nil {
				return nil, err
			}
			pending = ""

		default:
			return nil, templateErrorf(ln, "unexpected template content %q", stripped)
		}
	}

	if pending != "" {
		return nil, templateErrorf(pendingLn, "dataname %s has no value", pending)
	}
	return t, nil
}

// scanTemplateText consumes a semicolon field starting at lines[i] and
// returns the shared indent of its content and the index of the closing
// line.
func scanTemplateText(lines []string, i int) (int, int, error) {
	indent := -1
	for j := i + 1; j < len(lines); j++ {
		if strings.HasPrefix(lines[j], ";") {
			if indent < 3 {
				indent = 0
			}
			return indent, j, nil
		}
		l := lines[j]
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	return 0, 0, templateErrorf(i+1, "unterminated text block")
}

// scanTemplateValue locates the value on a dataname line and classifies its
// delimiter.
func scanTemplateValue(raw, name string, fields []string, ln int) (int, Delimiter, error) {
	nameIdx := strings.Index(raw, name)
	rest := raw[nameIdx+len(name):]
	off := len(rest) - len(strings.TrimLeft(rest, " \t"))
	col := nameIdx + len(name) + off + 1

	val := strings.TrimSpace(rest)
	delim := detectDelim(val)
	if delim == DelimNone && len(fields) != 2 {
		return 0, DelimAuto, templateErrorf(ln, "one dataname and one value per line, got %q", strings.TrimSpace(raw))
	}
	return col, delim, nil
}

func detectDelim(val string) Delimiter {
	switch {
	case strings.HasPrefix(val, "'''"):
		return DelimTripleSingle
	case strings.HasPrefix(val, `"""`):
		return DelimTripleDouble
	case strings.HasPrefix(val, "'"):
		return DelimSingle
	case strings.HasPrefix(val, `"`):
		return DelimDouble
	case strings.HasPrefix(val, "["), strings.HasPrefix(val, "{"):
		return DelimAuto
	}
	return DelimNone
}

// plainDummy restricts loop dummy values to simple tokens so that layout
// scanning never has to understand quoting.
func plainDummy(f string) bool {
	for _, r := range f {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-' || r == '?':
		default:
			return false
		}
	}
	return f != ""
}
