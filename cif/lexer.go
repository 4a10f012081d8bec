package cif

import "strings"

// lexer is the reference tokenizer: a readable, line-aware scanner over
// normalized input (newlines only, no carriage returns). fastTokenize in
// lexer_fast.go is the table-driven alternative; the two must emit
// identical token sequences for every input and grammar.
type lexer struct {
	input string
	g     Grammar
	pos   int
	line  int

	opens      []byte // nesting of composite openers, '[' or '{'
	afterQuote bool   // a quoted value just ended with no whitespace since
}

func newLexer(input string, g Grammar) *lexer {
	return &lexer{input: input, g: g, line: 1}
}

func (l *lexer) run() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (Token, error) {
	l.skipSpace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Line: l.line}, nil
	}

	startLine := l.line
	ch := l.input[l.pos]

	var tok Token
	var err error
	switch {
	case ch == '#':
		tok = l.scanComment()

	case ch == ';' && l.atLineStart():
		tok, err = l.scanTextBlock()

	case ch == '\'' || ch == '"':
		tok, err = l.scanQuoted(ch)

	case ch == '[' && l.g.composites():
		l.pos++
		l.opens = append(l.opens, '[')
		tok = Token{Kind: TokenListOpen, Line: startLine}

	case ch == ']' && l.g.composites():
		l.pos++
		l.popOpen('[')
		tok = Token{Kind: TokenListClose, Line: startLine}

	case ch == '{' && l.g.composites():
		l.pos++
		l.opens = append(l.opens, '{')
		tok = Token{Kind: TokenTableOpen, Line: startLine}

	case ch == '}' && l.g.composites():
		l.pos++
		l.popOpen('{')
		tok = Token{Kind: TokenTableClose, Line: startLine}

	case ch == ',' && l.commaIsSeparator():
		l.pos++
		tok = Token{Kind: TokenComma, Line: startLine}

	case ch == ':' && l.afterQuote && l.inTable():
		l.pos++
		tok = Token{Kind: TokenColon, Line: startLine}

	case (ch == '[' || ch == ']') && l.g.leadingBracketReserved():
		return Token{}, parseErrorf(startLine, "character %q is reserved and may not start a value", ch)

	case ch == '$':
		return Token{}, parseErrorf(startLine, "frame references ($...) are not supported")

	case ch == '_':
		tok, err = l.scanName()

	default:
		tok, err = l.scanBare()
	}
	if err != nil {
		return Token{}, err
	}

	l.afterQuote = tok.Kind == TokenQuotedValue
	return tok, nil
}

// skipSpace consumes blanks and newlines. Any whitespace breaks the
// quote/colon adjacency used for table keys.
func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t':
			l.pos++
		case '\n':
			l.pos++
			l.line++
		default:
			return
		}
		l.afterQuote = false
	}
}

func (l *lexer) atLineStart() bool {
	return l.pos == 0 || l.input[l.pos-1] == '\n'
}

func (l *lexer) inTable() bool {
	return len(l.opens) > 0 && l.opens[len(l.opens)-1] == '{'
}

func (l *lexer) commaIsSeparator() bool {
	return l.g == GrammarSTAR2 && len(l.opens) > 0
}

func (l *lexer) popOpen(want byte) {
	if n := len(l.opens); n > 0 && l.opens[n-1] == want {
		l.opens = l.opens[:n-1]
	}
}

// scanComment captures # to end of line, marker excluded.
func (l *lexer) scanComment() Token {
	start := l.pos + 1
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		end = len(l.input) - start
	}
	tok := Token{Kind: TokenComment, Text: l.input[start : start+end], Line: l.line}
	l.pos = start + end
	return tok
}

// scanName captures a dataname: underscore plus its non-blank run.
func (l *lexer) scanName() (Token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) && !l.isBareBreak(l.input[l.pos]) {
		l.pos++
	}
	name := l.input[start:l.pos]
	if len(name) == 1 {
		return Token{}, parseErrorf(l.line, "dataname with no characters after underscore")
	}
	return Token{Kind: TokenName, Text: name, Line: l.line}, nil
}

// scanBare captures an undelimited run and classifies the reserved words.
func (l *lexer) scanBare() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && !l.isBareBreak(l.input[l.pos]) {
		l.pos++
	}
	return classifyBare(l.input[start:l.pos], l.line)
}

func (l *lexer) isBareBreak(c byte) bool {
	switch c {
	case ' ', '\t', '\n':
		return true
	case '[', ']', '{', '}':
		return l.g.composites()
	case ',':
		return l.commaIsSeparator()
	}
	return false
}

// classifyBare turns a bare run into a token, catching the reserved words.
// Shared by both tokenizer strategies.
func classifyBare(run string, line int) (Token, error) {
	low := lower(run)
	switch {
	case low == "loop_":
		return Token{Kind: TokenLoop, Line: line}, nil
	case low == "global_":
		return Token{}, parseErrorf(line, "global_ blocks are not supported")
	case low == "stop_":
		return Token{}, parseErrorf(line, "stop_ (nested loops) is not supported")
	case strings.HasPrefix(low, "save_"):
		return Token{}, parseErrorf(line, "save frames are not supported")
	case strings.HasPrefix(low, "data_"):
		name := run[len("data_"):]
		if name == "" {
			return Token{}, parseErrorf(line, "data_ block header with no name")
		}
		return Token{Kind: TokenBlockHeader, Text: name, Line: line}, nil
	}
	return Token{Kind: TokenBareValue, Text: run, Delim: DelimNone, Line: line}, nil
}

// scanQuoted handles '...' and "..." values, and the triple-quoted forms
// under grammars that have them.
func (l *lexer) scanQuoted(delim byte) (Token, error) {
	if l.g.tripleQuotes() && l.pos+2 < len(l.input) &&
		l.input[l.pos+1] == delim && l.input[l.pos+2] == delim {
		return l.scanTriple(delim)
	}

	startLine := l.line
	l.pos++ // opening delimiter
	var sb strings.Builder
	doubling := l.g.doubledDelimiters()
	legacy := !l.g.composites() // 1.0/1.1 closing rule

	for {
		if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
			return Token{}, parseErrorf(startLine, "unterminated quoted value")
		}
		c := l.input[l.pos]
		if c != delim {
			sb.WriteByte(c)
			l.pos++
			continue
		}

		if doubling && l.pos+1 < len(l.input) && l.input[l.pos+1] == delim {
			sb.WriteByte(delim)
			l.pos += 2
			continue
		}

		if legacy {
			// The delimiter closes only before whitespace or end of line.
			if l.pos+1 < len(l.input) {
				n := l.input[l.pos+1]
				if n != ' ' && n != '\t' && n != '\n' {
					sb.WriteByte(c)
					l.pos++
					continue
				}
			}
			l.pos++
			break
		}

		l.pos++
		if !l.quoteFollowerOK() {
			return Token{}, parseErrorf(startLine, "missing whitespace after quoted value")
		}
		break
	}

	d := DelimSingle
	if delim == '"' {
		d = DelimDouble
	}
	return Token{Kind: TokenQuotedValue, Text: sb.String(), Delim: d, Line: startLine}, nil
}

// scanTriple handles '''...''' and """...""", which may span lines.
func (l *lexer) scanTriple(delim byte) (Token, error) {
	startLine := l.line
	marker := string([]byte{delim, delim, delim})
	start := l.pos + 3
	end := strings.Index(l.input[start:], marker)
	if end < 0 {
		return Token{}, parseErrorf(startLine, "unterminated triple-quoted value")
	}
	content := l.input[start : start+end]
	l.pos = start + end + 3
	l.line += strings.Count(content, "\n")
	if !l.quoteFollowerOK() {
		return Token{}, parseErrorf(startLine, "missing whitespace after quoted value")
	}

	d := DelimTripleSingle
	if delim == '"' {
		d = DelimTripleDouble
	}
	return Token{Kind: TokenQuotedValue, Text: content, Delim: d, Line: startLine}, nil
}

// quoteFollowerOK checks the character after a closing delimiter under the
// composite grammars: whitespace, a closing bracket, a table colon, or a
// STAR2 comma.
func (l *lexer) quoteFollowerOK() bool {
	if l.pos >= len(l.input) {
		return true
	}
	switch l.input[l.pos] {
	case ' ', '\t', '\n':
		return true
	case ']', '}':
		return true
	case ',':
		return l.commaIsSeparator()
	case ':':
		return l.inTable()
	}
	return false
}

// scanTextBlock captures a semicolon-delimited block and reverses the
// folding and prefixing protocols.
func (l *lexer) scanTextBlock() (Token, error) {
	startLine := l.line
	start := l.pos + 1
	end := strings.Index(l.input[start:], "\n;")
	if end < 0 {
		return Token{}, parseErrorf(startLine, "unterminated text block")
	}
	raw := l.input[start : start+end]
	l.pos = start + end + 2
	l.line += strings.Count(raw, "\n") + 1

	// An empty opening line is delimiter layout, not content.
	raw = strings.TrimPrefix(raw, "\n")
	return Token{Kind: TokenTextBlock, Text: decodeTextBlock(raw), Delim: DelimSemicolon, Line: startLine}, nil
}
