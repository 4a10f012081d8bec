package cif

import "strings"

// Line folding and line prefixing, the two reversible transport protocols
// for semicolon-delimited text blocks.
//
// Folding bounds physical line length: the block starts with a lone
// backslash line, and every physical line ending in a backslash is joined
// to the next with the backslash and newline removed. A content line that
// really ends in a backslash survives because the folder writes an extra
// marker line after it, so the join consumes the marker, not the content.
//
// Prefixing protects content lines that start with a semicolon: the block
// starts with a declaration line <prefix>\ (or <prefix>\\ when folding is
// applied as well), and every following physical line carries the prefix.

// textPrefix is the prefix the serializer applies when content lines would
// otherwise begin with a semicolon.
const textPrefix = "> "

// decodeTextBlock reverses prefixing and folding on raw text-block content.
// Content that declares neither protocol is returned verbatim.
func decodeTextBlock(s string) string {
	first := s
	rest := ""
	hasRest := false
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first, rest, hasRest = s[:i], s[i+1:], true
	}
	decl := strings.TrimRight(first, " \t")

	if isFoldHeader(decl) {
		if !hasRest {
			return ""
		}
		return unfoldBody(rest)
	}

	if p, ok := prefixDecl(decl, 2); ok {
		if body, ok := stripPrefix(rest, p, hasRest); ok {
			return unfoldBody(body)
		}
		return s
	}

	if p, ok := prefixDecl(decl, 1); ok {
		if body, ok := stripPrefix(rest, p, hasRest); ok {
			return body
		}
	}

	return s
}

// isFoldHeader reports whether a trimmed declaration line is the folding
// header: a single backslash.
func isFoldHeader(decl string) bool {
	return decl == `\`
}

// prefixDecl extracts a prefix declaration ending in exactly n backslashes.
// The prefix must be non-empty, free of backslashes, and must not begin
// with a semicolon.
func prefixDecl(decl string, n int) (string, bool) {
	marker := strings.Repeat(`\`, n)
	if !strings.HasSuffix(decl, marker) {
		return "", false
	}
	p := decl[:len(decl)-n]
	if p == "" || strings.ContainsAny(p, `\`) || strings.HasPrefix(p, ";") {
		return "", false
	}
	return p, true
}

// stripPrefix removes the prefix from every line. A line without the prefix
// means the declaration was ordinary content after all.
func stripPrefix(body, prefix string, hasBody bool) (string, bool) {
	if !hasBody {
		return "", true
	}
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if !strings.HasPrefix(l, prefix) {
			return "", false
		}
		lines[i] = l[len(prefix):]
	}
	return strings.Join(lines, "\n"), true
}

// unfoldBody removes every backslash (plus trailing blanks) that ends a
// physical line, joining the pieces. Single pass, no rescan, so a doubled
// backslash leaves one literal backslash behind.
func unfoldBody(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j < len(s) && s[j] == '\n' {
				i = j
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// needsPrefix reports whether any content line begins with a semicolon,
// which would terminate the text block early.
func needsPrefix(s string) bool {
	if strings.HasPrefix(s, ";") {
		return true
	}
	return strings.Contains(s, "\n;")
}

// foldText applies the folding protocol, breaking content lines so that no
// physical line exceeds width bytes. Breaks land on rune boundaries.
func foldText(s string, width int) string {
	if width < 8 {
		width = 8
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/width*2 + 4)
	b.WriteString("\\\n")
	for _, l := range strings.Split(s, "\n") {
		for len(l) > width-1 {
			cut := width - 1
			for cut > 0 && l[cut]&0xC0 == 0x80 {
				cut--
			}
			if cut == 0 {
				cut = width - 1
			}
			b.WriteString(l[:cut])
			b.WriteString("\\\n")
			l = l[cut:]
		}
		b.WriteString(l)
		if strings.HasSuffix(l, `\`) {
			// Protect a literal trailing backslash from the join.
			b.WriteString("\\\n")
		}
		b.WriteString("\n")
	}
	out := b.String()
	return out[:len(out)-1]
}

// applyPrefix applies the prefixing protocol. When folded is set, s is
// already folded text and the declaration line absorbs its header.
func applyPrefix(s, prefix string, folded bool) string {
	var b strings.Builder
	b.Grow(len(s) + (strings.Count(s, "\n")+2)*len(prefix))
	b.WriteString(prefix)
	b.WriteString(`\`)
	body := s
	if folded {
		b.WriteString(`\`)
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			body = s[i+1:]
		} else {
			body = ""
		}
	}
	for _, l := range strings.Split(body, "\n") {
		b.WriteString("\n")
		b.WriteString(prefix)
		b.WriteString(l)
	}
	return b.String()
}

// encodeTextBlock prepares content for a semicolon block: prefixing when a
// line starts with a semicolon, folding when a line is too long or the
// first line would pose as a declaration, both when both apply.
func encodeTextBlock(s string, wrap, maxLine int) string {
	prefixed := needsPrefix(s)
	effMax := maxLine
	effWrap := wrap
	if prefixed {
		if effMax > 0 {
			effMax -= len(textPrefix)
		}
		if effWrap > 0 {
			effWrap -= len(textPrefix)
		}
	}
	folded := false
	if maxLine > 0 {
		for _, l := range strings.Split(s, "\n") {
			if len(l) > effMax {
				folded = true
				break
			}
		}
	}
	if !prefixed && !folded {
		first := s
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			first = s[:i]
		}
		folded = strings.HasSuffix(strings.TrimRight(first, " \t"), `\`)
	}

	out := s
	if folded {
		out = foldText(out, effWrap)
	}
	if prefixed {
		out = applyPrefix(out, textPrefix, folded)
	}
	return out
}
