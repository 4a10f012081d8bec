package cif

import "strings"

// fastTokenize is the throughput-oriented strategy: a byte break table and
// IndexByte scans instead of per-character dispatch. It must agree with the
// reference lexer token for token, including line numbers and errors.
func fastTokenize(input string, g Grammar) ([]Token, error) {
	var breaks [256]bool
	breaks[' '], breaks['\t'], breaks['\n'] = true, true, true
	if g.composites() {
		breaks['['], breaks[']'], breaks['{'], breaks['}'] = true, true, true, true
	}
	star2 := g.doubledDelimiters()
	legacy := !g.composites()
	triples := g.tripleQuotes()

	toks := make([]Token, 0, len(input)/8+4)
	pos, line := 0, 1
	var opens []byte
	afterQuote := false

	for {
		for pos < len(input) {
			c := input[pos]
			if c == ' ' || c == '\t' {
				pos++
				afterQuote = false
				continue
			}
			if c == '\n' {
				pos++
				line++
				afterQuote = false
				continue
			}
			break
		}
		if pos >= len(input) {
			return append(toks, Token{Kind: TokenEOF, Line: line}), nil
		}

		c := input[pos]
		startLine := line
		wasQuote := false

		switch {
		case c == '#':
			start := pos + 1
			end := strings.IndexByte(input[start:], '\n')
			if end < 0 {
				end = len(input) - start
			}
			toks = append(toks, Token{Kind: TokenComment, Text: input[start : start+end], Line: startLine})
			pos = start + end

		case c == ';' && (pos == 0 || input[pos-1] == '\n'):
			start := pos + 1
			end := strings.Index(input[start:], "\n;")
			if end < 0 {
				return nil, parseErrorf(startLine, "unterminated text block")
			}
			raw := input[start : start+end]
			pos = start + end + 2
			line += strings.Count(raw, "\n") + 1
			raw = strings.TrimPrefix(raw, "\n")
			toks = append(toks, Token{Kind: TokenTextBlock, Text: decodeTextBlock(raw), Delim: DelimSemicolon, Line: startLine})

		case c == '\'' || c == '"':
			if triples && pos+2 < len(input) && input[pos+1] == c && input[pos+2] == c {
				marker := input[pos : pos+3]
				start := pos + 3
				end := strings.Index(input[start:], marker)
				if end < 0 {
					return nil, parseErrorf(startLine, "unterminated triple-quoted value")
				}
				content := input[start : start+end]
				pos = start + end + 3
				line += strings.Count(content, "\n")
				if !fastFollowerOK(input, pos, star2, opens) {
					return nil, parseErrorf(startLine, "missing whitespace after quoted value")
				}
				d := DelimTripleSingle
				if c == '"' {
					d = DelimTripleDouble
				}
				toks = append(toks, Token{Kind: TokenQuotedValue, Text: content, Delim: d, Line: startLine})
				wasQuote = true
				break
			}
			content, end, ok := scanQuotedFast(input, pos, c, legacy, star2)
			if !ok {
				return nil, parseErrorf(startLine, "unterminated quoted value")
			}
			pos = end
			if !legacy && !fastFollowerOK(input, pos, star2, opens) {
				return nil, parseErrorf(startLine, "missing whitespace after quoted value")
			}
			d := DelimSingle
			if c == '"' {
				d = DelimDouble
			}
			toks = append(toks, Token{Kind: TokenQuotedValue, Text: content, Delim: d, Line: startLine})
			wasQuote = true

		case (c == '[' || c == '{') && g.composites():
			kind := TokenListOpen
			if c == '{' {
				kind = TokenTableOpen
			}
			opens = append(opens, c)
			pos++
			toks = append(toks, Token{Kind: kind, Line: startLine})

		case (c == ']' || c == '}') && g.composites():
			want, kind := byte('['), TokenListClose
			if c == '}' {
				want, kind = '{', TokenTableClose
			}
			if n := len(opens); n > 0 && opens[n-1] == want {
				opens = opens[:n-1]
			}
			pos++
			toks = append(toks, Token{Kind: kind, Line: startLine})

		case c == ',' && star2 && len(opens) > 0:
			pos++
			toks = append(toks, Token{Kind: TokenComma, Line: startLine})

		case c == ':' && afterQuote && len(opens) > 0 && opens[len(opens)-1] == '{':
			pos++
			toks = append(toks, Token{Kind: TokenColon, Line: startLine})

		case (c == '[' || c == ']') && g.leadingBracketReserved():
			return nil, parseErrorf(startLine, "character %q is reserved and may not start a value", c)

		case c == '$':
			return nil, parseErrorf(startLine, "frame references ($...) are not supported")

		default:
			start := pos
			pos++
			for pos < len(input) {
				b := input[pos]
				if breaks[b] || (b == ',' && star2 && len(opens) > 0) {
					break
				}
				pos++
			}
			run := input[start:pos]
			if c == '_' {
				if len(run) == 1 {
					return nil, parseErrorf(startLine, "dataname with no characters after underscore")
				}
				toks = append(toks, Token{Kind: TokenName, Text: run, Line: startLine})
				break
			}
			tok, err := classifyBare(run, startLine)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		}

		afterQuote = wasQuote
	}
}

// scanQuotedFast scans a single-line quoted value starting at the opening
// delimiter. It returns the content, the position just past the closing
// delimiter, and whether the value was terminated on this line.
func scanQuotedFast(input string, pos int, delim byte, legacy, doubling bool) (string, int, bool) {
	limit := len(input)
	if nl := strings.IndexByte(input[pos:], '\n'); nl >= 0 {
		limit = pos + nl
	}
	contentStart := pos + 1
	i := contentStart
	var sb *strings.Builder

	for {
		j := strings.IndexByte(input[i:limit], delim)
		if j < 0 {
			return "", 0, false
		}
		q := i + j

		if doubling && q+1 < limit && input[q+1] == delim {
			if sb == nil {
				sb = &strings.Builder{}
				sb.WriteString(input[contentStart:q])
			} else {
				sb.WriteString(input[i:q])
			}
			sb.WriteByte(delim)
			i = q + 2
			continue
		}

		if legacy && q+1 < len(input) {
			if n := input[q+1]; n != ' ' && n != '\t' && n != '\n' {
				if sb == nil {
					sb = &strings.Builder{}
					sb.WriteString(input[contentStart:q])
				} else {
					sb.WriteString(input[i:q])
				}
				sb.WriteByte(delim)
				i = q + 1
				continue
			}
		}

		if sb == nil {
			return input[contentStart:q], q + 1, true
		}
		sb.WriteString(input[i:q])
		return sb.String(), q + 1, true
	}
}

func fastFollowerOK(input string, pos int, star2 bool, opens []byte) bool {
	if pos >= len(input) {
		return true
	}
	switch input[pos] {
	case ' ', '\t', '\n':
		return true
	case ']', '}':
		return true
	case ',':
		return star2 && len(opens) > 0
	case ':':
		return len(opens) > 0 && opens[len(opens)-1] == '{'
	}
	return false
}
