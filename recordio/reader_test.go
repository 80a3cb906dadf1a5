package recordio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan"
)

const sample = "1\t0\t0\n2\t0\t1.5\n\n3\t-10.25\t1e2\n"

var samplePoints = []dbscan.Point{
	{ID: 1, X: 0, Y: 0},
	{ID: 2, X: 0, Y: 1.5},
	{ID: 3, X: -10.25, Y: 100},
}

func TestReader_ReadAll(t *testing.T) {
	pts, err := NewReader(strings.NewReader(sample), 0).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, samplePoints, pts)
}

func TestReader_CustomDelimiter(t *testing.T) {
	pts, err := NewReader(strings.NewReader("7,1.5,2\n8, 3 ,4\r\n"), ',').ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []dbscan.Point{{ID: 7, X: 1.5, Y: 2}, {ID: 8, X: 3, Y: 4}}, pts)
}

func TestReader_ReadEOF(t *testing.T) {
	r := NewReader(strings.NewReader("1\t2\t3\n"), 0)
	_, err := r.Read()
	require.NoError(t, err)
	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Empty(t *testing.T) {
	pts, err := NewReader(strings.NewReader(""), 0).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestReader_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"too few fields", "1\t2\t3\n4\t5\n", 2},
		{"too many fields", "1\t2\t3\t4\n", 1},
		{"non-numeric id", "a\t2\t3\n", 1},
		{"fractional id", "1.5\t2\t3\n", 1},
		{"non-numeric x", "1\tx\t3\n", 1},
		{"non-numeric y", "1\t2\tnope\n", 1},
		{"wrong delimiter", "1,2,3\n", 1},
		{"nan x", "1\tNaN\t0\n", 1},
		{"inf y", "1\t0\tInf\n", 1},
		{"negative inf after valid line", "1\t0\t0\n2\t-Inf\t0\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, err := NewReader(strings.NewReader(tt.input), 0).ReadAll()
			require.Error(t, err)
			assert.Nil(t, pts, "no partial load")

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestReader_NonFiniteError(t *testing.T) {
	_, err := NewReader(strings.NewReader("1\tNaN\t0\n2\t0\t1\n"), 0).ReadAll()
	assert.ErrorIs(t, err, dbscan.ErrNonFinite)
}

func TestReader_FieldCountError(t *testing.T) {
	_, err := NewReader(strings.NewReader("1\t2\n"), 0).ReadAll()
	assert.ErrorIs(t, err, ErrFieldCount)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadFile_Plain(t *testing.T) {
	path := writeFile(t, "points.txt", []byte(sample))
	pts, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, samplePoints, pts)
}

func TestLoadFile_Zstd(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	path := writeFile(t, "points.txt.zst", buf.Bytes())
	pts, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, samplePoints, pts)
}

func TestLoadFile_LZ4(t *testing.T) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := writeFile(t, "points.txt.lz4", buf.Bytes())
	pts, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, samplePoints, pts)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_MalformedIncludesPath(t *testing.T) {
	path := writeFile(t, "bad.txt", []byte("1\t2\t3\nbroken\n"))
	_, err := LoadFile(path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "line 2")
}
