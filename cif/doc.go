// Package cif reads and writes CIF and STAR data files, the text format
// family used for crystallographic and general scientific data exchange.
//
// A file is an ordered set of named data blocks. A block holds datanames
// with values, either as standalone items or grouped into loops, which are
// tables whose columns are datanames and whose rows are packets. Datanames
// and block names match case-insensitively but keep the spelling they were
// first given.
//
// # Grammars
//
// Four syntax variants are supported: CIF 1.0, CIF 1.1, CIF 2.0 and STAR2.
// They differ in quoting rules, reserved characters, and whether list and
// table values exist. Parse detects the grammar by trying 2.0, then 1.1,
// then 1.0; ParseWithOptions pins one explicitly. STAR2 is never detected
// automatically.
//
//	f, err := cif.Parse(input)
//	b := f.FirstBlock()
//	v, _ := b.Get("_cell_length_a")
//
// # Values
//
// A Value is an untyped text scalar, a list, or a table. Scalars remember
// the delimiter they were read with, and the serializer keeps it whenever
// it remains valid for the content and output grammar, so a reformatting
// round trip is quiet. List and table values require grammar 2.0 or STAR2;
// writing them under 1.0 or 1.1 fails with ErrGrammar.
//
// # Long text
//
// Semicolon-delimited text blocks carry two reversible transport
// protocols. Line folding breaks overlong lines with trailing backslashes;
// line prefixing shields content lines that begin with a semicolon. The
// parser reverses both transparently, and the serializer applies them as
// needed, bounded by WrapLength and MaxLineLength.
//
// # Layout templates
//
// ParseTemplate reads a skeleton block whose dummy values show the desired
// layout: item order, the column values start in, their delimiters, and
// text indents. Passing the template in WriteOptions makes WriteString
// follow that layout for every dataname the template covers.
package cif
