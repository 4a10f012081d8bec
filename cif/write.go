package cif

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// DefaultWrapLength is the soft line length the serializer aims for.
const DefaultWrapLength = 80

// scalarNameWidth is the field width for datanames of one-line items, so
// short values line up in a column.
const scalarNameWidth = 33

// WriteOptions controls serialization.
type WriteOptions struct {
	// Grammar selects the output syntax. GrammarAuto means 2.0.
	Grammar Grammar

	// WrapLength is the soft limit lines are laid out against. 0 means
	// DefaultWrapLength, negative disables soft wrapping.
	WrapLength int

	// MaxLineLength is the hard limit; values that cannot fit are moved
	// into folded text blocks. 0 means MaxLineLength (2048), negative
	// means unlimited.
	MaxLineLength int

	// Comment is emitted at the top of the output as comment lines.
	Comment string

	// Template lays out covered datanames: ordering, value column,
	// delimiter and text indents. See ParseTemplate.
	Template *Template
}

// Write serializes f to w.
func Write(w io.Writer, f *File, opts WriteOptions) error {
	s, err := WriteString(f, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// WriteString serializes f under opts.
func WriteString(f *File, opts WriteOptions) (string, error) {
	g := opts.Grammar
	if g == GrammarAuto {
		g = Grammar20
	}
	maxLine := opts.MaxLineLength
	switch {
	case maxLine == 0:
		maxLine = MaxLineLength
	case maxLine < 0:
		maxLine = math.MaxInt
	}
	wrap := opts.WrapLength
	switch {
	case wrap == 0:
		wrap = DefaultWrapLength
	case wrap < 0:
		wrap = maxLine
	}
	if wrap > maxLine {
		wrap = maxLine
	}

	wr := &writer{g: g, wrap: wrap, maxLine: maxLine, tmpl: opts.Template}
	switch g {
	case Grammar20:
		wr.b.WriteString("#\\#CIF_2.0\n")
	case Grammar11:
		wr.b.WriteString("#\\#CIF_1.1\n")
	}
	if opts.Comment != "" {
		for _, l := range strings.Split(opts.Comment, "\n") {
			if !strings.HasPrefix(l, "#") {
				wr.b.WriteString("# ")
			}
			wr.b.WriteString(l)
			wr.b.WriteString("\n")
		}
	}

	for _, name := range f.BlockNames() {
		if wr.b.Len() > 0 {
			wr.b.WriteString("\n")
		}
		b, _ := f.Block(name)
		if err := wr.writeBlock(name, b); err != nil {
			return "", err
		}
	}
	return wr.b.String(), nil
}

type writer struct {
	b       strings.Builder
	g       Grammar
	wrap    int
	maxLine int
	tmpl    *Template
}

func (w *writer) writeBlock(name string, b *Block) error {
	w.b.WriteString("data_")
	w.b.WriteString(name)
	w.b.WriteString("\n")

	savedWrap, savedMax := w.wrap, w.maxLine
	if b.maxLine > 0 {
		w.maxLine = b.maxLine
	}
	if b.wrap > 0 {
		w.wrap = b.wrap
	}
	if w.wrap > w.maxLine {
		w.wrap = w.maxLine
	}

	var err error
	for _, e := range w.slots(b) {
		if e.isLoop() {
			err = w.writeLoop(b.loops[e.loopID])
		} else {
			err = w.writeItem(b.caseOf[e.name], b.items[e.name])
		}
		if err != nil {
			break
		}
	}

	w.wrap, w.maxLine = savedWrap, savedMax
	return err
}

// slots returns the block's display slots, reordered so that
// template-covered datanames come first in template order. A loop sorts by
// its best-placed member.
func (w *writer) slots(b *Block) []displayEntry {
	if w.tmpl == nil {
		return b.display
	}
	pos := func(e displayEntry) int {
		if e.isLoop() {
			best := math.MaxInt
			for _, n := range b.loops[e.loopID].names {
				if p, ok := w.tmpl.position(n); ok && p < best {
					best = p
				}
			}
			return best
		}
		if p, ok := w.tmpl.position(e.name); ok {
			return p
		}
		return math.MaxInt
	}
	out := make([]displayEntry, len(b.display))
	copy(out, b.display)
	sort.SliceStable(out, func(i, j int) bool { return pos(out[i]) < pos(out[j]) })
	return out
}

func (w *writer) writeItem(name string, v Value) error {
	if v.Kind() != KindText {
		if !w.g.composites() {
			return fmt.Errorf("%w: %s value of %s requires grammar 2.0 or STAR2", ErrGrammar, v.Kind(), name)
		}
		inline, err := renderComposite(v, w.g)
		if err != nil {
			return err
		}
		if w.scalarFits(name, inline) {
			fmt.Fprintf(&w.b, "%-*s %s\n", w.nameField(name), name, inline)
			return nil
		}
		w.b.WriteString(name)
		w.b.WriteString("\n")
		if longestLine(inline) <= w.wrap {
			w.b.WriteString(inline)
			w.b.WriteString("\n")
			return nil
		}
		return w.writeCompositeMulti(v)
	}

	text := v.Text()
	stored := w.delimFor(name, v)
	eff := chooseDelim(text, stored, w.g)

	if eff != DelimSemicolon {
		rv := renderDelim(text, eff, w.g)
		if longestLine(rv) > w.maxLine {
			eff = DelimSemicolon
		} else {
			if w.scalarFits(name, rv) {
				fmt.Fprintf(&w.b, "%-*s %s\n", w.nameField(name), name, rv)
			} else {
				w.b.WriteString(name)
				w.b.WriteString("\n")
				w.b.WriteString(rv)
				w.b.WriteString("\n")
			}
			return nil
		}
	}

	w.b.WriteString(name)
	w.b.WriteString("\n")
	w.writeTextBlock(text, w.indentFor(name))
	return nil
}

func (w *writer) scalarFits(name, rv string) bool {
	if strings.Contains(rv, "\n") {
		return false
	}
	n := w.nameField(name)
	if len(name) > n {
		n = len(name)
	}
	return n+1+len(rv) <= w.wrap
}

func (w *writer) nameField(name string) int {
	if w.tmpl != nil {
		if e, ok := w.tmpl.lookup(name); ok && e.colstart > 2 {
			return e.colstart - 2
		}
	}
	return scalarNameWidth
}

func (w *writer) delimFor(name string, v Value) Delimiter {
	if w.tmpl != nil {
		if e, ok := w.tmpl.lookup(name); ok && e.delim != DelimAuto {
			return e.delim
		}
	}
	return v.Delim()
}

func (w *writer) indentFor(name string) int {
	if w.tmpl != nil {
		if e, ok := w.tmpl.lookup(name); ok {
			return e.indent
		}
	}
	return 0
}

// writeTextBlock emits a semicolon-delimited block, applying the folding
// and prefixing protocols as needed. A template indent is applied only when
// the indented content needs neither protocol; the indent then becomes part
// of the stored value on reread.
func (w *writer) writeTextBlock(text string, indent int) {
	if indent >= 3 && text != "" && !needsPrefix(text) {
		pad := strings.Repeat(" ", indent)
		indented := pad + strings.ReplaceAll(text, "\n", "\n"+pad)
		if encodeTextBlock(indented, w.wrap, w.maxLine) == indented {
			w.b.WriteString(";\n")
			w.b.WriteString(indented)
			w.b.WriteString("\n;\n")
			return
		}
	}

	enc := encodeTextBlock(text, w.wrap, w.maxLine)
	if enc != text {
		w.b.WriteString(";")
		w.b.WriteString(enc)
		w.b.WriteString("\n;\n")
		return
	}
	w.b.WriteString(";\n")
	w.b.WriteString(text)
	w.b.WriteString("\n;\n")
}

func (w *writer) writeLoop(l *Loop) error {
	if l.Len() == 0 || l.Width() == 0 {
		return nil
	}
	w.b.WriteString("loop_\n")
	for _, n := range l.names {
		w.b.WriteString("  ")
		w.b.WriteString(n)
		w.b.WriteString("\n")
	}
	for r := 0; r < l.Len(); r++ {
		lineLen := 0
		for c := range l.cols {
			if err := w.writeLoopValue(l.cols[c][r], &lineLen); err != nil {
				return err
			}
		}
		if lineLen > 0 {
			w.b.WriteString("\n")
		}
	}
	return nil
}

func (w *writer) writeLoopValue(v Value, lineLen *int) error {
	if v.Kind() != KindText {
		if !w.g.composites() {
			return fmt.Errorf("%w: %s values in loops require grammar 2.0 or STAR2", ErrGrammar, v.Kind())
		}
		inline, err := renderComposite(v, w.g)
		if err != nil {
			return err
		}
		if longestLine(inline) > w.wrap {
			if *lineLen > 0 {
				w.b.WriteString("\n")
				*lineLen = 0
			}
			return w.writeCompositeMulti(v)
		}
		w.placeLoopValue(inline, lineLen)
		return nil
	}

	text := v.Text()
	eff := chooseDelim(text, v.Delim(), w.g)
	if eff != DelimSemicolon {
		rv := renderDelim(text, eff, w.g)
		if longestLine(rv) > w.maxLine {
			eff = DelimSemicolon
		} else {
			w.placeLoopValue(rv, lineLen)
			return nil
		}
	}

	if *lineLen > 0 {
		w.b.WriteString("\n")
		*lineLen = 0
	}
	w.writeTextBlock(text, 0)
	return nil
}

// placeLoopValue appends a rendered value to the current row, breaking the
// line when the soft wrap would be exceeded.
func (w *writer) placeLoopValue(rv string, lineLen *int) {
	if strings.Contains(rv, "\n") {
		if *lineLen > 0 {
			w.b.WriteString("\n")
		}
		w.b.WriteString(rv)
		w.b.WriteString("\n")
		*lineLen = 0
		return
	}
	if *lineLen > 0 && *lineLen+1+len(rv) > w.wrap {
		w.b.WriteString("\n")
		*lineLen = 0
	}
	if *lineLen > 0 {
		w.b.WriteString(" ")
		*lineLen++
	}
	w.b.WriteString(rv)
	*lineLen += len(rv)
}

// writeCompositeMulti lays a list or table out one member per line.
func (w *writer) writeCompositeMulti(v Value) error {
	sep := ""
	if w.g.doubledDelimiters() {
		sep = ","
	}
	switch v.Kind() {
	case KindList:
		w.b.WriteString("[\n")
		items := v.Items()
		for i, it := range items {
			inline, err := w.memberInline(it)
			if err != nil {
				return err
			}
			w.b.WriteString("  ")
			w.b.WriteString(inline)
			if sep != "" && i < len(items)-1 {
				w.b.WriteString(sep)
			}
			w.b.WriteString("\n")
		}
		w.b.WriteString("]\n")
	case KindTable:
		w.b.WriteString("{\n")
		entries := v.Entries()
		for i, e := range entries {
			key, err := renderTableKey(e.Key, w.g)
			if err != nil {
				return err
			}
			inline, err := w.memberInline(e.Value)
			if err != nil {
				return err
			}
			w.b.WriteString("  ")
			w.b.WriteString(key)
			w.b.WriteString(":")
			w.b.WriteString(inline)
			if sep != "" && i < len(entries)-1 {
				w.b.WriteString(sep)
			}
			w.b.WriteString("\n")
		}
		w.b.WriteString("}\n")
	}
	return nil
}

func (w *writer) memberInline(v Value) (string, error) {
	var s string
	var err error
	if v.Kind() == KindText {
		s, err = memberScalar(v.Text(), v.Delim(), w.g)
	} else {
		s, err = renderComposite(v, w.g)
	}
	if err != nil {
		return "", err
	}
	if longestLine(s)+2 > w.maxLine {
		return "", fmt.Errorf("cif: %s member too long for one line", v.Kind())
	}
	return s, nil
}

// ============================================================
// Value rendering
// ============================================================

// chooseDelim picks the delimiter for a text value: the stored one when it
// remains valid for the content and grammar, otherwise the quietest valid
// form. Values no quote style can hold end up in semicolon blocks.
func chooseDelim(text string, stored Delimiter, g Grammar) Delimiter {
	if stored != DelimAuto && delimOK(text, stored, g) {
		return stored
	}
	switch {
	case bareSafe(text, g):
		return DelimNone
	case delimOK(text, DelimSingle, g):
		return DelimSingle
	case delimOK(text, DelimDouble, g):
		return DelimDouble
	}
	return DelimSemicolon
}

func delimOK(text string, d Delimiter, g Grammar) bool {
	switch d {
	case DelimNone:
		return bareSafe(text, g)
	case DelimSingle:
		if strings.ContainsRune(text, '\n') {
			return false
		}
		if g.doubledDelimiters() {
			return !strings.HasPrefix(text, "'")
		}
		return !strings.Contains(text, "'")
	case DelimDouble:
		if strings.ContainsRune(text, '\n') {
			return false
		}
		if g.doubledDelimiters() {
			return !strings.HasPrefix(text, `"`)
		}
		return !strings.Contains(text, `"`)
	case DelimTripleSingle:
		return g.tripleQuotes() && !strings.Contains(text, "'''") && !strings.HasSuffix(text, "'")
	case DelimTripleDouble:
		return g.tripleQuotes() && !strings.Contains(text, `"""`) && !strings.HasSuffix(text, `"`)
	case DelimSemicolon:
		return true
	}
	return false
}

// bareSafe reports whether text can stand undelimited under g and still
// read back as the same single value.
func bareSafe(text string, g Grammar) bool {
	if text == "" {
		return false
	}
	if strings.ContainsAny(text, " \t\n") {
		return false
	}
	switch text[0] {
	case '_', '$', '#', ';', '\'', '"', '[', ']':
		return false
	}
	if g.composites() && strings.ContainsAny(text, "[]{}") {
		return false
	}
	if g.doubledDelimiters() && strings.Contains(text, ",") {
		return false
	}
	low := lower(text)
	if low == "loop_" || low == "stop_" || low == "global_" {
		return false
	}
	if strings.HasPrefix(low, "data_") || strings.HasPrefix(low, "save_") {
		return false
	}
	return true
}

func renderDelim(text string, d Delimiter, g Grammar) string {
	switch d {
	case DelimSingle:
		if g.doubledDelimiters() {
			text = strings.ReplaceAll(text, "'", "''")
		}
		return "'" + text + "'"
	case DelimDouble:
		if g.doubledDelimiters() {
			text = strings.ReplaceAll(text, `"`, `""`)
		}
		return `"` + text + `"`
	case DelimTripleSingle:
		return "'''" + text + "'''"
	case DelimTripleDouble:
		return `"""` + text + `"""`
	}
	return text
}

func renderComposite(v Value, g Grammar) (string, error) {
	var b strings.Builder
	if err := appendComposite(&b, v, g); err != nil {
		return "", err
	}
	return b.String(), nil
}

func appendComposite(b *strings.Builder, v Value, g Grammar) error {
	sep := " "
	if g.doubledDelimiters() {
		sep = ", "
	}
	switch v.Kind() {
	case KindList:
		b.WriteByte('[')
		for i, it := range v.Items() {
			if i > 0 {
				b.WriteString(sep)
			}
			if err := appendMember(b, it, g); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case KindTable:
		b.WriteByte('{')
		for i, e := range v.Entries() {
			if i > 0 {
				b.WriteString(sep)
			}
			key, err := renderTableKey(e.Key, g)
			if err != nil {
				return err
			}
			b.WriteString(key)
			b.WriteByte(':')
			if err := appendMember(b, e.Value, g); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	}
	return nil
}

func appendMember(b *strings.Builder, v Value, g Grammar) error {
	if v.Kind() != KindText {
		return appendComposite(b, v, g)
	}
	s, err := memberScalar(v.Text(), v.Delim(), g)
	if err != nil {
		return err
	}
	b.WriteString(s)
	return nil
}

// memberScalar renders a text value inside a list or table, where
// semicolon blocks are unavailable.
func memberScalar(text string, stored Delimiter, g Grammar) (string, error) {
	if stored != DelimAuto && stored != DelimSemicolon && delimOK(text, stored, g) {
		return renderDelim(text, stored, g), nil
	}
	for _, d := range [...]Delimiter{DelimNone, DelimSingle, DelimDouble, DelimTripleSingle, DelimTripleDouble} {
		if delimOK(text, d, g) {
			return renderDelim(text, d, g), nil
		}
	}
	return "", fmt.Errorf("cif: value %.20q cannot be written inside a list or table", text)
}

func renderTableKey(key string, g Grammar) (string, error) {
	for _, d := range [...]Delimiter{DelimSingle, DelimDouble, DelimTripleSingle, DelimTripleDouble} {
		if delimOK(key, d, g) {
			return renderDelim(key, d, g), nil
		}
	}
	return "", fmt.Errorf("cif: table key %.20q cannot be represented", key)
}

func longestLine(s string) int {
	best := 0
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			if len(s) > best {
				best = len(s)
			}
			return best
		}
		if i > best {
			best = i
		}
		s = s[i+1:]
	}
}
