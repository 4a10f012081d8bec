package cif

import (
	"fmt"
	"strings"
)

// File is an ordered collection of named data blocks. Block names are
// looked up case-insensitively and keep the spelling they were added with.
//
// A File and everything in it belongs to one goroutine at a time; there is
// no internal locking. Lock and Unlock below are overwrite protection, not
// synchronization.
type File struct {
	blocks  map[string]*Block
	caseOf  map[string]string
	order   []string // lowercased block names in display order
	grammar Grammar
	locked  bool
}

// NewFile creates an empty file.
func NewFile() *File {
	return &File{
		blocks: make(map[string]*Block),
		caseOf: make(map[string]string),
	}
}

// Grammar returns the grammar the file was parsed under. Files built
// through the API report GrammarAuto until serialized under a concrete
// grammar.
func (f *File) Grammar() Grammar {
	return f.grammar
}

// Len returns the number of blocks.
func (f *File) Len() int {
	return len(f.order)
}

// Block returns the named block.
func (f *File) Block(name string) (*Block, bool) {
	b, ok := f.blocks[lower(name)]
	return b, ok
}

// FirstBlock returns the block in the first display slot, or nil for an
// empty file. Single-block files are common enough that skipping the name
// is worth a method.
func (f *File) FirstBlock() *Block {
	if len(f.order) == 0 {
		return nil
	}
	return f.blocks[f.order[0]]
}

// BlockNames returns the block names in display order, original case.
func (f *File) BlockNames() []string {
	out := make([]string, len(f.order))
	for i, key := range f.order {
		out[i] = f.caseOf[key]
	}
	return out
}

// AddBlock appends a block under a new name. A nil block adds a fresh empty
// one. Reusing a name, in any case combination, fails with
// ErrDuplicateBlock.
func (f *File) AddBlock(name string, b *Block) error {
	if err := checkBlockName(name); err != nil {
		return err
	}
	key := lower(name)
	if _, ok := f.blocks[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, name)
	}
	if b == nil {
		b = NewBlock()
	}
	if f.locked {
		b.SetOverwrite(false)
	}
	f.blocks[key] = b
	f.caseOf[key] = name
	f.order = append(f.order, key)
	return nil
}

// SetBlock adds or replaces a block. A replaced block keeps its display
// slot.
func (f *File) SetBlock(name string, b *Block) error {
	if err := checkBlockName(name); err != nil {
		return err
	}
	if b == nil {
		b = NewBlock()
	}
	if f.locked {
		b.SetOverwrite(false)
	}
	key := lower(name)
	if _, ok := f.blocks[key]; ok {
		f.blocks[key] = b
		f.caseOf[key] = name
		return nil
	}
	f.blocks[key] = b
	f.caseOf[key] = name
	f.order = append(f.order, key)
	return nil
}

// RemoveBlock deletes a block and reports whether it existed.
func (f *File) RemoveBlock(name string) bool {
	key := lower(name)
	if _, ok := f.blocks[key]; !ok {
		return false
	}
	delete(f.blocks, key)
	delete(f.caseOf, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true
}

// Lock turns overwrite protection on for every block, present and future:
// blocks added while locked start protected too.
func (f *File) Lock() {
	f.locked = true
	for _, b := range f.blocks {
		b.SetOverwrite(false)
	}
}

// Unlock turns overwrite protection back off for every block.
func (f *File) Unlock() {
	f.locked = false
	for _, b := range f.blocks {
		b.SetOverwrite(true)
	}
}

func checkBlockName(name string) error {
	if name == "" {
		return fmt.Errorf("cif: empty block name")
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("cif: block name %q contains whitespace", name)
	}
	return nil
}
