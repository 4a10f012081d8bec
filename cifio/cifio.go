// Package cifio retrieves CIF text from files and streams. It slurps
// regular files through a read-only memory map, transparently decompresses
// gzip input, and decodes the bytes to UTF-8, optionally accepting Latin-1
// as a fallback. The package hands finished text to the cif package and
// knows nothing about the grammar.
package cifio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"
)

// Options controls retrieval behavior.
type Options struct {
	// Permissive re-decodes input that is not valid UTF-8 as Latin-1
	// instead of failing. Archived CIF files predate the UTF-8 mandate
	// and frequently carry Latin-1 author names.
	Permissive bool
}

// ReadFile reads path and returns its decoded text. Regular files are
// memory-mapped; anything else (pipes, devices, empty files) falls back to
// buffered reads. Gzip-compressed content is detected by its magic bytes
// and decompressed.
func ReadFile(path string, opts Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() || fi.Size() == 0 {
		return ReadReader(f, opts)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// Some filesystems refuse to map; plain reads still work.
		return ReadReader(f, opts)
	}
	defer m.Unmap()

	return decodeRaw([]byte(m), opts)
}

// ReadReader drains r and returns its decoded text, decompressing gzip
// content when the stream starts with the gzip magic bytes.
func ReadReader(r io.Reader, opts Options) (string, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("cifio: read: %w", err)
	}

	var src io.Reader = br
	if isGzip(magic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("cifio: gunzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("cifio: read: %w", err)
	}
	return Decode(data, opts.Permissive)
}

// decodeRaw handles a fully loaded byte slice, gunzipping first if needed.
// The slice may alias a memory map; Decode copies before returning.
func decodeRaw(b []byte, opts Options) (string, error) {
	if isGzip(b) {
		gz, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return "", fmt.Errorf("cifio: gunzip: %w", err)
		}
		defer gz.Close()
		data, err := io.ReadAll(gz)
		if err != nil {
			return "", fmt.Errorf("cifio: gunzip: %w", err)
		}
		return Decode(data, opts.Permissive)
	}
	return Decode(b, opts.Permissive)
}

// Decode converts raw bytes to a string, verifying UTF-8. When permissive
// is set, input that fails validation is re-decoded as Latin-1, which maps
// every byte to a rune and therefore cannot fail.
func Decode(b []byte, permissive bool) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	if !permissive {
		return "", fmt.Errorf("cifio: input is not valid UTF-8 at byte %d", invalidOffset(b))
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("cifio: latin-1 decode: %w", err)
	}
	return string(out), nil
}

// isGzip reports whether b starts with the gzip magic bytes.
func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

// invalidOffset returns the byte offset of the first invalid UTF-8
// sequence, or -1 when b is valid.
func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
