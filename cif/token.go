package cif

import "fmt"

// TokenKind identifies a lexer token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	TokenBlockHeader // data_<name>; Text holds <name> with original case
	TokenLoop        // loop_
	TokenName        // _dataname, including the leading underscore
	TokenBareValue   // undelimited value
	TokenQuotedValue // value in quotes; Delim records which
	TokenTextBlock   // semicolon-delimited text block, protocols reversed
	TokenListOpen    // [ under grammars 2.0 and STAR2
	TokenListClose   // ]
	TokenTableOpen   // { under grammars 2.0 and STAR2
	TokenTableClose  // }
	TokenComma       // composite element separator, STAR2 only
	TokenColon       // table key separator
	TokenComment     // # to end of line, without the marker
)

// String returns the token kind name.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenBlockHeader:
		return "BLOCK"
	case TokenLoop:
		return "LOOP"
	case TokenName:
		return "NAME"
	case TokenBareValue:
		return "BARE"
	case TokenQuotedValue:
		return "QUOTED"
	case TokenTextBlock:
		return "TEXT"
	case TokenListOpen:
		return "["
	case TokenListClose:
		return "]"
	case TokenTableOpen:
		return "{"
	case TokenTableClose:
		return "}"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenComment:
		return "COMMENT"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexer token. Text holds the decoded content: quote
// delimiters stripped, doubled delimiters collapsed, text-block folding and
// prefixing reversed. Line is the 1-based physical line the token starts on.
type Token struct {
	Kind  TokenKind
	Text  string
	Delim Delimiter
	Line  int
}

// String returns a debug representation of the token.
func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// isValue reports whether the token can stand where a datavalue is expected.
func (t Token) isValue() bool {
	switch t.Kind {
	case TokenBareValue, TokenQuotedValue, TokenTextBlock, TokenListOpen, TokenTableOpen:
		return true
	}
	return false
}

// Strategy selects a tokenizer implementation. Both strategies emit the
// identical token sequence for any input and grammar; StrategyFast trades
// the readable scanner for a byte-class table.
type Strategy uint8

const (
	StrategyDefault Strategy = iota
	StrategyFast
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyDefault:
		return "default"
	case StrategyFast:
		return "fast"
	default:
		return "unknown"
	}
}

// tokenize runs the selected strategy over already line-checked input.
func tokenize(input string, g Grammar, strategy Strategy) ([]Token, error) {
	if strategy == StrategyFast {
		return fastTokenize(input, g)
	}
	l := newLexer(input, g)
	return l.run()
}

// tokenStream is a cursor over a token slice for the parser.
type tokenStream struct {
	toks []Token
	pos  int
}

func newTokenStream(toks []Token) *tokenStream {
	return &tokenStream{toks: toks}
}

// peek returns the current token without advancing.
func (ts *tokenStream) peek() Token {
	if ts.pos >= len(ts.toks) {
		return Token{Kind: TokenEOF}
	}
	return ts.toks[ts.pos]
}

// next returns the current token and advances past it.
func (ts *tokenStream) next() Token {
	t := ts.peek()
	if ts.pos < len(ts.toks) {
		ts.pos++
	}
	return t
}

// match advances and reports true if the current token has the given kind.
func (ts *tokenStream) match(k TokenKind) bool {
	if ts.peek().Kind == k {
		ts.pos++
		return true
	}
	return false
}

// skipComments advances past any comment tokens.
func (ts *tokenStream) skipComments() {
	for ts.peek().Kind == TokenComment {
		ts.pos++
	}
}
