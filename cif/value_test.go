package cif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueZero(t *testing.T) {
	var v Value
	require.Equal(t, KindText, v.Kind())
	require.Equal(t, "", v.Text())
	require.Equal(t, DelimAuto, v.Delim())
	require.Equal(t, 0, v.Len())
}

func TestValueScalar(t *testing.T) {
	v := Text("5.959")
	require.Equal(t, KindText, v.Kind())
	require.Equal(t, "5.959", v.Text())
	require.Equal(t, DelimAuto, v.Delim())

	q := TextDelim("water", DelimDouble)
	require.Equal(t, DelimDouble, q.Delim())
	require.Equal(t, DelimSemicolon, q.WithDelim(DelimSemicolon).Delim())
	// WithDelim returns a copy; the original keeps its preference.
	require.Equal(t, DelimDouble, q.Delim())
}

func TestValueComposites(t *testing.T) {
	l := List(Text("1"), Texts("a", "b"))
	require.Equal(t, KindList, l.Kind())
	require.Equal(t, 2, l.Len())
	require.Equal(t, "", l.Text())
	require.Nil(t, l.Entries())
	require.Equal(t, KindList, l.Items()[1].Kind())

	tb := Table(
		TableEntry{Key: "x", Value: Text("1")},
		TableEntry{Key: "y", Value: Text("2")},
	)
	require.Equal(t, KindTable, tb.Kind())
	require.Equal(t, 2, tb.Len())
	v, ok := tb.Lookup("y")
	require.True(t, ok)
	require.Equal(t, "2", v.Text())

	// Table keys are case-sensitive, unlike datanames.
	_, ok = tb.Lookup("Y")
	require.False(t, ok)
	require.Nil(t, tb.Items())
}

func TestValueEqual(t *testing.T) {
	// Delimiter metadata never affects equality.
	require.True(t, Text("x").Equal(TextDelim("x", DelimSemicolon)))
	require.False(t, Text("x").Equal(Text("y")))
	require.False(t, Text("x").Equal(Texts("x")))
	require.True(t, Texts("a", "b").Equal(List(Text("a"), Text("b"))))
	require.False(t, Texts("a").Equal(Texts("a", "b")))

	a := Table(TableEntry{Key: "k", Value: Texts("1", "2")})
	b := Table(TableEntry{Key: "k", Value: Texts("1", "2")})
	c := Table(TableEntry{Key: "K", Value: Texts("1", "2")})
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestValueString(t *testing.T) {
	require.Equal(t, `"x"`, Text("x").String())
	require.Equal(t, `["1" "2"]`, Texts("1", "2").String())
	require.Equal(t, `{"k":"v"}`, Table(TableEntry{Key: "k", Value: Text("v")}).String())
}

func TestKindAndDelimiterNames(t *testing.T) {
	require.Equal(t, "text", KindText.String())
	require.Equal(t, "list", KindList.String())
	require.Equal(t, "table", KindTable.String())
	require.Equal(t, "auto", DelimAuto.String())
	require.Equal(t, "bare", DelimNone.String())
	require.Equal(t, "semicolon", DelimSemicolon.String())
	require.Equal(t, "triple-double", DelimTripleDouble.String())
}
