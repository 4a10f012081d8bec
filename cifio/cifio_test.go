package cifio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/dewiedem/salmagundi/cif"
)

const sampleDoc = "data_quartz\n_cell_length_a 4.916\n"

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadFilePlain(t *testing.T) {
	path := writeFile(t, "plain.cif", []byte(sampleDoc))

	got, err := ReadFile(path, Options{})
	require.NoError(t, err)
	require.Equal(t, sampleDoc, got)
}

func TestReadFileGzip(t *testing.T) {
	path := writeFile(t, "doc.cif.gz", gzipBytes(t, sampleDoc))

	got, err := ReadFile(path, Options{})
	require.NoError(t, err)
	require.Equal(t, sampleDoc, got)
}

func TestReadFileEmpty(t *testing.T) {
	path := writeFile(t, "empty.cif", nil)

	got, err := ReadFile(path, Options{})
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "no-such-file.cif"), Options{})
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestReadFileLatin1(t *testing.T) {
	raw := []byte("data_x\n_journal_author 'M\xfcller'\n")
	path := writeFile(t, "latin1.cif", raw)

	_, err := ReadFile(path, Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid UTF-8 at byte 25")

	got, err := ReadFile(path, Options{Permissive: true})
	require.NoError(t, err)
	require.Equal(t, "data_x\n_journal_author 'Müller'\n", got)
}

func TestReadFileGzipLatin1(t *testing.T) {
	raw := "data_x\n_note 'caf\xe9'\n"
	path := writeFile(t, "latin1.cif.gz", gzipBytes(t, raw))

	got, err := ReadFile(path, Options{Permissive: true})
	require.NoError(t, err)
	require.Equal(t, "data_x\n_note 'café'\n", got)
}

func TestReadReaderPlain(t *testing.T) {
	got, err := ReadReader(strings.NewReader(sampleDoc), Options{})
	require.NoError(t, err)
	require.Equal(t, sampleDoc, got)
}

func TestReadReaderGzip(t *testing.T) {
	got, err := ReadReader(bytes.NewReader(gzipBytes(t, sampleDoc)), Options{})
	require.NoError(t, err)
	require.Equal(t, sampleDoc, got)
}

func TestReadReaderTruncatedGzip(t *testing.T) {
	full := gzipBytes(t, strings.Repeat(sampleDoc, 50))
	_, err := ReadReader(bytes.NewReader(full[:len(full)-8]), Options{})
	require.Error(t, err)
}

func TestReadReaderShort(t *testing.T) {
	got, err := ReadReader(strings.NewReader("x"), Options{})
	require.NoError(t, err)
	require.Equal(t, "x", got)

	got, err = ReadReader(strings.NewReader(""), Options{})
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestDecode(t *testing.T) {
	got, err := Decode([]byte("data_x\n_name 'Å'\n"), false)
	require.NoError(t, err)
	require.Equal(t, "data_x\n_name 'Å'\n", got)

	_, err = Decode([]byte("ab\xffcd"), false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "byte 2")

	got, err = Decode([]byte("90\xb0 angle"), true)
	require.NoError(t, err)
	require.Equal(t, "90° angle", got)
}

func TestReadFileFeedsParser(t *testing.T) {
	path := writeFile(t, "doc.cif.gz", gzipBytes(t, sampleDoc))

	text, err := ReadFile(path, Options{})
	require.NoError(t, err)

	f, err := cif.Parse(text)
	require.NoError(t, err)
	b, ok := f.Block("quartz")
	require.True(t, ok)
	v, ok := b.Get("_cell_length_a")
	require.True(t, ok)
	require.Equal(t, "4.916", v.Text())
}
