package cif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileBlocks(t *testing.T) {
	f := NewFile()
	require.Equal(t, 0, f.Len())
	require.Nil(t, f.FirstBlock())
	require.Equal(t, GrammarAuto, f.Grammar())

	require.NoError(t, f.AddBlock("global", nil))
	b := NewBlock()
	require.NoError(t, b.Set("_title", Text("x")))
	require.NoError(t, f.AddBlock("Crystal", b))

	require.Equal(t, 2, f.Len())
	require.Equal(t, []string{"global", "Crystal"}, f.BlockNames())

	got, ok := f.Block("CRYSTAL")
	require.True(t, ok)
	require.True(t, got.Has("_title"))

	first := f.FirstBlock()
	require.NotNil(t, first)
	require.False(t, first.Has("_title"))

	err := f.AddBlock("cRYSTAL", nil)
	require.ErrorIs(t, err, ErrDuplicateBlock)
}

func TestFileBlockNameValidation(t *testing.T) {
	f := NewFile()
	require.Error(t, f.AddBlock("", nil))
	require.Error(t, f.AddBlock("has space", nil))
	require.Error(t, f.SetBlock("tab\there", nil))
}

func TestFileSetBlock(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddBlock("one", nil))
	require.NoError(t, f.AddBlock("two", nil))

	// Replacing keeps the display slot but adopts the new spelling.
	b := NewBlock()
	require.NoError(t, b.Set("_x", Text("1")))
	require.NoError(t, f.SetBlock("ONE", b))

	require.Equal(t, []string{"ONE", "two"}, f.BlockNames())
	got, ok := f.Block("one")
	require.True(t, ok)
	require.True(t, got.Has("_x"))

	require.NoError(t, f.SetBlock("three", nil))
	require.Equal(t, []string{"ONE", "two", "three"}, f.BlockNames())
}

func TestFileRemoveBlock(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.AddBlock("one", nil))
	require.NoError(t, f.AddBlock("two", nil))
	require.True(t, f.RemoveBlock("ONE"))
	require.False(t, f.RemoveBlock("one"))
	require.Equal(t, []string{"two"}, f.BlockNames())
}

func TestFileLock(t *testing.T) {
	f := NewFile()
	b := NewBlock()
	require.NoError(t, b.Set("_x", Text("1")))
	require.NoError(t, f.AddBlock("one", b))

	f.Lock()
	err := b.Set("_x", Text("2"))
	require.ErrorIs(t, err, ErrOverwrite)

	// Blocks added while locked start protected.
	require.NoError(t, f.AddBlock("two", nil))
	later, ok := f.Block("two")
	require.True(t, ok)
	require.NoError(t, later.Set("_y", Text("1")))
	err = later.Set("_y", Text("2"))
	require.ErrorIs(t, err, ErrOverwrite)

	f.Unlock()
	require.NoError(t, b.Set("_x", Text("2")))
	require.NoError(t, later.Set("_y", Text("2")))
}
