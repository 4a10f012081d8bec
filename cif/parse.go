package cif

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxLineLength is the default limit on physical line length, applied both
// when reading and when writing.
const MaxLineLength = 2048

// ParseOptions controls parsing.
type ParseOptions struct {
	// Grammar selects the syntax to parse under. GrammarAuto tries 2.0,
	// then 1.1, then 1.0, keeping the first that accepts the input.
	Grammar Grammar

	// Strategy selects the tokenizer implementation. Both strategies
	// produce identical results; StrategyFast trades readability of the
	// scanner for throughput.
	Strategy Strategy

	// MaxLineLength bounds physical line length in runes. 0 means
	// MaxLineLength (2048), negative means unlimited.
	MaxLineLength int
}

// Parse reads a CIF document with automatic grammar detection.
func Parse(input string) (*File, error) {
	return ParseWithOptions(input, ParseOptions{})
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader, opts ParseOptions) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cif: read: %w", err)
	}
	return ParseWithOptions(string(data), opts)
}

// ParseWithOptions reads a CIF document under explicit options.
func ParseWithOptions(input string, opts ParseOptions) (*File, error) {
	input = normalizeInput(input)

	limit := opts.MaxLineLength
	if limit == 0 {
		limit = MaxLineLength
	}
	if limit > 0 {
		if err := checkLineLengths(input, limit); err != nil {
			return nil, err
		}
	}

	if opts.Grammar != GrammarAuto {
		return parseAs(input, opts.Grammar, opts.Strategy)
	}

	var attempts []GrammarAttempt
	for _, g := range autoGrammars {
		f, err := parseAs(input, g, opts.Strategy)
		if err == nil {
			return f, nil
		}
		attempts = append(attempts, GrammarAttempt{Grammar: g, Err: err})
	}
	return nil, &GrammarDetectionError{Attempts: attempts}
}

// DetectGrammar reports the first grammar of 2.0, 1.1, 1.0 that accepts the
// input. STAR2 is never detected; it must be requested explicitly.
func DetectGrammar(input string) (Grammar, error) {
	input = normalizeInput(input)
	if err := checkLineLengths(input, MaxLineLength); err != nil {
		return GrammarAuto, err
	}

	var attempts []GrammarAttempt
	for _, g := range autoGrammars {
		if _, err := parseAs(input, g, StrategyDefault); err == nil {
			return g, nil
		} else {
			attempts = append(attempts, GrammarAttempt{Grammar: g, Err: err})
		}
	}
	return GrammarAuto, &GrammarDetectionError{Attempts: attempts}
}

func parseAs(input string, g Grammar, s Strategy) (*File, error) {
	toks, err := tokenize(input, g, s)
	if err != nil {
		return nil, err
	}
	p := &parser{ts: newTokenStream(toks), g: g, f: NewFile()}
	p.f.grammar = g
	return p.run()
}

// normalizeInput maps the accepted line terminators (LF, CRLF, CR) to LF
// and drops a leading byte order mark.
func normalizeInput(input string) string {
	input = strings.TrimPrefix(input, "\uFEFF")
	if !strings.ContainsRune(input, '\r') {
		return input
	}
	input = strings.ReplaceAll(input, "\r\n", "\n")
	return strings.ReplaceAll(input, "\r", "\n")
}

func checkLineLengths(input string, limit int) error {
	line := 1
	for start := 0; start < len(input); line++ {
		var seg string
		if end := strings.IndexByte(input[start:], '\n'); end >= 0 {
			seg = input[start : start+end]
			start += end + 1
		} else {
			seg = input[start:]
			start = len(input)
		}
		if len(seg) > limit {
			if n := utf8.RuneCountInString(seg); n > limit {
				return &LineLengthError{Line: line, Length: n, Limit: limit}
			}
		}
	}
	return nil
}

// ============================================================
// Token stream to data model
// ============================================================

type parser struct {
	ts  *tokenStream
	g   Grammar
	f   *File
	cur *Block
}

func (p *parser) run() (*File, error) {
	for {
		p.ts.skipComments()
		tok := p.ts.next()
		switch tok.Kind {
		case TokenEOF:
			return p.f, nil

		case TokenBlockHeader:
			if _, ok := p.f.Block(tok.Text); ok {
				return nil, fmt.Errorf("%w: data_%s at line %d", ErrDuplicateBlock, tok.Text, tok.Line)
			}
			b := NewBlock()
			if err := p.f.AddBlock(tok.Text, b); err != nil {
				return nil, err
			}
			p.cur = b

		case TokenName:
			if err := p.parseItem(tok); err != nil {
				return nil, err
			}

		case TokenLoop:
			if err := p.parseLoop(tok); err != nil {
				return nil, err
			}

		default:
			if tok.isValue() {
				if p.cur == nil {
					return nil, parseErrorf(tok.Line, "value before any data block")
				}
				return nil, parseErrorf(tok.Line, "value with no preceding dataname")
			}
			return nil, parseErrorf(tok.Line, "unexpected %s token", tok.Kind)
		}
	}
}

func (p *parser) parseItem(name Token) error {
	if p.cur == nil {
		return parseErrorf(name.Line, "dataname %s outside a data block", name.Text)
	}
	if p.cur.Has(name.Text) {
		return parseErrorf(name.Line, "duplicate dataname %s", name.Text)
	}
	p.ts.skipComments()
	if !p.ts.peek().isValue() {
		return parseErrorf(name.Line, "dataname %s has no value", name.Text)
	}
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	return p.cur.Set(name.Text, v)
}

func (p *parser) parseLoop(loop Token) error {
	if p.cur == nil {
		return parseErrorf(loop.Line, "loop_ outside a data block")
	}

	var names []string
	for {
		p.ts.skipComments()
		if p.ts.peek().Kind != TokenName {
			break
		}
		tok := p.ts.next()
		if p.cur.Has(tok.Text) {
			return parseErrorf(tok.Line, "duplicate dataname %s", tok.Text)
		}
		for _, n := range names {
			if lower(n) == lower(tok.Text) {
				return parseErrorf(tok.Line, "duplicate dataname %s", tok.Text)
			}
		}
		names = append(names, tok.Text)
	}
	if len(names) == 0 {
		return parseErrorf(loop.Line, "loop_ with no datanames")
	}

	var vals []Value
	for {
		p.ts.skipComments()
		if !p.ts.peek().isValue() {
			break
		}
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return parseErrorf(loop.Line, "loop_ with no values")
	}
	if len(vals)%len(names) != 0 {
		return fmt.Errorf("%w: %d values do not fill rows of %d (line %d)",
			ErrLoopRowMismatch, len(vals), len(names), loop.Line)
	}

	cols := make([][]Value, len(names))
	rows := len(vals) / len(names)
	for i := range cols {
		cols[i] = make([]Value, 0, rows)
	}
	for i, v := range vals {
		cols[i%len(names)] = append(cols[i%len(names)], v)
	}
	return p.cur.attachLoop(newLoop(names, cols))
}

func (p *parser) parseValue() (Value, error) {
	p.ts.skipComments()
	tok := p.ts.next()
	switch tok.Kind {
	case TokenBareValue, TokenQuotedValue, TokenTextBlock:
		return Value{kind: KindText, text: tok.Text, delim: tok.Delim}, nil
	case TokenListOpen:
		return p.parseList(tok)
	case TokenTableOpen:
		return p.parseTable(tok)
	}
	return Value{}, parseErrorf(tok.Line, "expected a value, got %s", tok.Kind)
}

func (p *parser) parseList(open Token) (Value, error) {
	var items []Value
	first := true
	for {
		p.ts.skipComments()
		switch p.ts.peek().Kind {
		case TokenEOF:
			return Value{}, parseErrorf(open.Line, "unterminated list")
		case TokenListClose:
			p.ts.next()
			return Value{kind: KindList, items: items}, nil
		}
		if p.g.doubledDelimiters() && !first {
			if pk := p.ts.peek(); pk.Kind != TokenComma {
				return Value{}, parseErrorf(pk.Line, "expected ',' between list items")
			}
			p.ts.next()
			p.ts.skipComments()
		}
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		first = false
	}
}

func (p *parser) parseTable(open Token) (Value, error) {
	var entries []TableEntry
	first := true
	for {
		p.ts.skipComments()
		switch p.ts.peek().Kind {
		case TokenEOF:
			return Value{}, parseErrorf(open.Line, "unterminated table")
		case TokenTableClose:
			p.ts.next()
			return Value{kind: KindTable, entries: entries}, nil
		}
		if p.g.doubledDelimiters() && !first {
			if pk := p.ts.peek(); pk.Kind != TokenComma {
				return Value{}, parseErrorf(pk.Line, "expected ',' between table entries")
			}
			p.ts.next()
			p.ts.skipComments()
		}

		key := p.ts.next()
		if key.Kind != TokenQuotedValue {
			return Value{}, parseErrorf(key.Line, "table key must be a quoted string, got %s", key.Kind)
		}
		if !p.ts.match(TokenColon) {
			return Value{}, parseErrorf(key.Line, "expected ':' after table key %q", key.Text)
		}
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		for _, e := range entries {
			if e.Key == key.Text {
				return Value{}, parseErrorf(key.Line, "duplicate table key %q", key.Text)
			}
		}
		entries = append(entries, TableEntry{Key: key.Text, Value: v})
		first = false
	}
}
