package cif

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteScalarLayout(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_cell_length_a", Text("5.959")))
	require.NoError(t, b.Set("_title", Text("low quartz")))
	require.NoError(t, f.AddBlock("demo", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)

	want := "data_demo\n" +
		fmt.Sprintf("%-33s %s\n", "_cell_length_a", "5.959") +
		fmt.Sprintf("%-33s %s\n", "_title", "'low quartz'")
	require.Equal(t, want, out)
}

func TestWriteMagicComments(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddBlock("x", nil))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar20})
	require.NoError(t, err)
	require.Equal(t, "#\\#CIF_2.0\n\ndata_x\n", out)

	out, err = WriteString(f, WriteOptions{Grammar: Grammar11})
	require.NoError(t, err)
	require.Equal(t, "#\\#CIF_1.1\n\ndata_x\n", out)

	out, err = WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)
	require.Equal(t, "data_x\n", out)

	out, err = WriteString(f, WriteOptions{Grammar: GrammarSTAR2})
	require.NoError(t, err)
	require.Equal(t, "data_x\n", out)
}

func TestWriteComment(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddBlock("x", nil))

	out, err := WriteString(f, WriteOptions{
		Grammar: Grammar10,
		Comment: "generated for the test suite\n# raw line kept",
	})
	require.NoError(t, err)
	require.Equal(t, "# generated for the test suite\n# raw line kept\n\ndata_x\n", out)
}

func TestWriteBlankLineBetweenBlocks(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddBlock("a", nil))
	require.NoError(t, f.AddBlock("b", nil))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)
	require.Equal(t, "data_a\n\ndata_b\n", out)
}

func TestWriteDelimiterChoice(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"bare", Text("5.959"), "5.959"},
		{"space_single", Text("a b"), "'a b'"},
		{"apostrophe_double", Text("it's"), `"it's"`},
		{"empty_single", Text(""), "''"},
		{"leading_quote", Text("'leading"), `"'leading"`},
		{"stored_double", TextDelim("abc", DelimDouble), `"abc"`},
		{"stored_single", TextDelim("a b", DelimSingle), "'a b'"},
		{"reserved_word", Text("loop_"), "'loop_'"},
		{"data_prefix", Text("data_x"), "'data_x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFile()
			b := NewBlock()
			require.NoError(t, b.Set("_v", tt.v))
			require.NoError(t, f.AddBlock("x", b))

			out, err := WriteString(f, WriteOptions{Grammar: Grammar11})
			require.NoError(t, err)
			want := "#\\#CIF_1.1\n\ndata_x\n" + fmt.Sprintf("%-33s %s\n", "_v", tt.want)
			require.Equal(t, want, out)
		})
	}
}

func TestWriteStoredDelimiterDropsWhenInvalid(t *testing.T) {
	// The stored preference is abandoned once the content outgrows it.
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_v", TextDelim("has 'quote", DelimSingle)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar11})
	require.NoError(t, err)
	require.Contains(t, out, `"has 'quote"`)
}

func TestWriteSemicolonFallback(t *testing.T) {
	// Both quote characters plus a space leave only the text block form;
	// the automatic chain never reaches for triple quotes.
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_v", Text(`it's "quoted" here`)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar20})
	require.NoError(t, err)
	require.Contains(t, out, "_v\n;\nit's \"quoted\" here\n;\n")
}

func TestWriteTripleQuotePreference(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_v", TextDelim(`it's "quoted" here`, DelimTripleSingle)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar20})
	require.NoError(t, err)
	require.Contains(t, out, `'''it's "quoted" here'''`)

	// Grammars without triple quotes fall back to a text block.
	out, err = WriteString(f, WriteOptions{Grammar: Grammar11})
	require.NoError(t, err)
	require.Contains(t, out, "_v\n;\nit's \"quoted\" here\n;\n")
}

func TestWriteTextBlock(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_note", Text("line1\nline2")))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)
	require.Equal(t, "data_x\n_note\n;\nline1\nline2\n;\n", out)

	back, err := Parse(out)
	require.NoError(t, err)
	v, ok := back.FirstBlock().Get("_note")
	require.True(t, ok)
	require.Equal(t, "line1\nline2", v.Text())
}

func TestWriteLongValueFoldsAtHardLimit(t *testing.T) {
	text := strings.Repeat("x", 60)
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_v", Text(text)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar11, MaxLineLength: 40})
	require.NoError(t, err)
	require.Contains(t, out, ";\\\n")
	for _, l := range strings.Split(out, "\n") {
		require.LessOrEqual(t, len(l), 40, "line %q", l)
	}

	back, err := ParseWithOptions(out, ParseOptions{Grammar: Grammar11, MaxLineLength: 40})
	require.NoError(t, err)
	v, ok := back.FirstBlock().Get("_v")
	require.True(t, ok)
	require.Equal(t, text, v.Text())
}

func TestWriteHugeValueDefaultLengths(t *testing.T) {
	// A 3000-character value exceeds the default hard limit, so the writer
	// folds it inside a semicolon block at the soft wrap width.
	text := strings.Repeat("abcdefghij", 300)
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_long", Text(text)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{})
	require.NoError(t, err)
	require.Contains(t, out, ";\\\n")
	for _, l := range strings.Split(out, "\n") {
		require.LessOrEqual(t, len(l), DefaultWrapLength, "line %q", l)
	}

	back, err := Parse(out)
	require.NoError(t, err)
	v, ok := back.FirstBlock().Get("_long")
	require.True(t, ok)
	require.Equal(t, text, v.Text())
}

func TestWriteSoftWrapKeepsLongValuesInline(t *testing.T) {
	// Values between the soft wrap and the hard limit stay on one line;
	// only the hard limit forces a text block.
	text := strings.Repeat("x", 120)
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_v", Text(text)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar11})
	require.NoError(t, err)
	require.Contains(t, out, "_v\n"+text+"\n")
	require.NotContains(t, out, ";")
}

func TestWriteLoop(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_site_label", Texts("C1", "N2")))
	require.NoError(t, b.Set("_site_occ", Texts("1.0", "0.5")))
	_, err := b.CreateLoop([]string{"_site_label", "_site_occ"})
	require.NoError(t, err)
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)
	require.Equal(t, "data_x\nloop_\n  _site_label\n  _site_occ\nC1 1.0\nN2 0.5\n", out)
}

func TestWriteLoopRowWrapping(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	wide := strings.Repeat("a", 8)
	require.NoError(t, b.Set("_c1", Texts(wide)))
	require.NoError(t, b.Set("_c2", Texts(wide)))
	require.NoError(t, b.Set("_c3", Texts(wide)))
	_, err := b.CreateLoop([]string{"_c1", "_c2", "_c3"})
	require.NoError(t, err)
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10, WrapLength: 20})
	require.NoError(t, err)
	require.Equal(t, "data_x\nloop_\n  _c1\n  _c2\n  _c3\n"+wide+" "+wide+"\n"+wide+"\n", out)

	back, err := Parse(out)
	require.NoError(t, err)
	l, err := back.FirstBlock().GetLoop("_c2")
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
}

func TestWriteLoopWithTextBlock(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_a", Texts("short", "line1\nline2")))
	_, err := b.CreateLoop([]string{"_a"})
	require.NoError(t, err)
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)
	require.Equal(t, "data_x\nloop_\n  _a\nshort\n;\nline1\nline2\n;\n", out)

	back, err := Parse(out)
	require.NoError(t, err)
	col, err := back.FirstBlock().Column("_a")
	require.NoError(t, err)
	require.Equal(t, "line1\nline2", col[1].Text())
}

func TestWriteEmptyLoopSkipped(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_a", Texts()))
	_, err := b.CreateLoop([]string{"_a"})
	require.NoError(t, err)
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)
	require.Equal(t, "data_x\n", out)
}

func TestWriteComposites(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_l", List(Text("1"), Text("2"))))
	require.NoError(t, b.Set("_t", Table(
		TableEntry{Key: "k", Value: Text("v")},
		TableEntry{Key: "n", Value: List(Text("3"), Text("4"))},
	)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar20})
	require.NoError(t, err)
	require.Contains(t, out, fmt.Sprintf("%-33s %s\n", "_l", "[1 2]"))
	require.Contains(t, out, fmt.Sprintf("%-33s %s\n", "_t", "{'k':v 'n':[3 4]}"))

	out, err = WriteString(f, WriteOptions{Grammar: GrammarSTAR2})
	require.NoError(t, err)
	require.Contains(t, out, fmt.Sprintf("%-33s %s\n", "_l", "[1, 2]"))
	require.Contains(t, out, fmt.Sprintf("%-33s %s\n", "_t", "{'k':v, 'n':[3, 4]}"))
}

func TestWriteCompositesNeedGrammar(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_l", List(Text("1"))))
	require.NoError(t, f.AddBlock("x", b))

	for _, g := range []Grammar{Grammar10, Grammar11} {
		_, err := WriteString(f, WriteOptions{Grammar: g})
		require.ErrorIs(t, err, ErrGrammar, "grammar %s", g)
	}
}

func TestWriteStar2QuoteDoubling(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_v", TextDelim("it is Bob's", DelimSingle)))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: GrammarSTAR2})
	require.NoError(t, err)
	require.Contains(t, out, "'it is Bob''s'")

	back, err := ParseWithOptions(out, ParseOptions{Grammar: GrammarSTAR2})
	require.NoError(t, err)
	v, ok := back.FirstBlock().Get("_v")
	require.True(t, ok)
	require.Equal(t, "it is Bob's", v.Text())
}

func TestWriteCompositeMultiLine(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	long := List(
		Text(strings.Repeat("a", 30)),
		Text(strings.Repeat("b", 30)),
		Text(strings.Repeat("c", 30)),
	)
	require.NoError(t, b.Set("_big", long))
	require.NoError(t, f.AddBlock("x", b))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar20})
	require.NoError(t, err)
	want := "_big\n[\n  " + strings.Repeat("a", 30) + "\n  " + strings.Repeat("b", 30) +
		"\n  " + strings.Repeat("c", 30) + "\n]\n"
	require.Contains(t, out, want)

	back, err := Parse(out)
	require.NoError(t, err)
	v, ok := back.FirstBlock().Get("_big")
	require.True(t, ok)
	require.True(t, v.Equal(long))

	// STAR2 keeps its separators in the multi-line layout.
	out, err = WriteString(f, WriteOptions{Grammar: GrammarSTAR2})
	require.NoError(t, err)
	require.Contains(t, out, strings.Repeat("a", 30)+",\n")
	require.Contains(t, out, "\n  "+strings.Repeat("c", 30)+"\n]\n")
}

func TestWritePerBlockOutputLength(t *testing.T) {
	f := NewFile()
	narrow := NewBlock()
	require.NoError(t, narrow.Set("_v", Text("0123456789")))
	narrow.SetOutputLength(30, 0)
	require.NoError(t, f.AddBlock("narrow", narrow))

	wide := NewBlock()
	require.NoError(t, wide.Set("_v", Text("0123456789")))
	require.NoError(t, f.AddBlock("wide", wide))

	out, err := WriteString(f, WriteOptions{Grammar: Grammar10})
	require.NoError(t, err)

	// The 33-column layout exceeds the narrowed wrap, so the first block
	// puts the value on its own line; the second keeps one line.
	require.Contains(t, out, "data_narrow\n_v\n0123456789\n")
	require.Contains(t, out, "data_wide\n"+fmt.Sprintf("%-33s %s\n", "_v", "0123456789"))
}

func TestWriteToWriter(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddBlock("x", nil))

	var sb strings.Builder
	require.NoError(t, Write(&sb, f, WriteOptions{Grammar: Grammar10}))
	require.Equal(t, "data_x\n", sb.String())
}
