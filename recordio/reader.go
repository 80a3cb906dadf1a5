// Package recordio reads point records from delimited text and writes
// cluster membership lists back out.
//
// An input record is one line of the form
//
//	id<delim>x<delim>y
//
// where id is an integer and x, y are real numbers. The default delimiter
// is a tab. Any malformed record aborts the load.
package recordio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/TrevorS/dbscan"
)

// DefaultDelimiter separates record fields unless a Reader is told otherwise.
const DefaultDelimiter = '\t'

// recordFields is the number of fields in a record: id, x, y.
const recordFields = 3

// ErrFieldCount is wrapped by a ParseError when a record does not have
// exactly three fields.
var ErrFieldCount = errors.New("wrong field count")

// ParseError reports a malformed record.
type ParseError struct {
	Line int // 1-based line number
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("recordio: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader parses point records from a line-oriented text stream.
type Reader struct {
	sc    *bufio.Scanner
	delim string
	line  int
}

// NewReader returns a Reader splitting fields on delim. A zero delim means
// DefaultDelimiter.
func NewReader(r io.Reader, delim rune) *Reader {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc, delim: string(delim)}
}

// Read returns the next point. It returns io.EOF when the stream is
// exhausted. Blank lines are skipped.
func (r *Reader) Read() (dbscan.Point, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}
		p, err := parseRecord(text, r.delim)
		if err != nil {
			return dbscan.Point{}, &ParseError{Line: r.line, Err: err}
		}
		return p, nil
	}
	if err := r.sc.Err(); err != nil {
		return dbscan.Point{}, fmt.Errorf("recordio: line %d: %w", r.line+1, err)
	}
	return dbscan.Point{}, io.EOF
}

// ReadAll reads every remaining point.
func (r *Reader) ReadAll() ([]dbscan.Point, error) {
	var pts []dbscan.Point
	for {
		p, err := r.Read()
		if errors.Is(err, io.EOF) {
			return pts, nil
		}
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
}

func parseRecord(text, delim string) (dbscan.Point, error) {
	fields := strings.Split(text, delim)
	if len(fields) != recordFields {
		return dbscan.Point{}, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), recordFields)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return dbscan.Point{}, fmt.Errorf("id: %w", err)
	}
	x, err := parseCoord(fields[1])
	if err != nil {
		return dbscan.Point{}, fmt.Errorf("x: %w", err)
	}
	y, err := parseCoord(fields[2])
	if err != nil {
		return dbscan.Point{}, fmt.Errorf("y: %w", err)
	}
	return dbscan.Point{ID: id, X: x, Y: y}, nil
}

// parseCoord parses a coordinate field. NaN and infinities are rejected.
func parseCoord(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", dbscan.ErrNonFinite, field)
	}
	return v, nil
}

// Open opens path for reading, transparently decompressing ".zst" and
// ".lz4" files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recordio: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("recordio: zstd: %w", err)
		}
		return &decompressingFile{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	case ".lz4":
		return &decompressingFile{Reader: lz4.NewReader(f), close: f.Close}, nil
	default:
		return f, nil
	}
}

type decompressingFile struct {
	io.Reader
	close func() error
}

func (d *decompressingFile) Close() error { return d.close() }

// LoadFile reads every point from path. Any error is fatal for the run:
// no partial result is returned.
func LoadFile(path string, delim rune) ([]dbscan.Point, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	pts, err := NewReader(rc, delim).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pts, nil
}
