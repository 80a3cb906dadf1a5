package recordio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// compressedExts are stripped before the record extension when deriving
// an output stem.
var compressedExts = map[string]bool{".zst": true, ".lz4": true}

// StemFor derives the output stem for an input path by removing its
// compression extension (if any) and then its record extension:
// "data/points.txt.zst" becomes "data/points".
func StemFor(path string) string {
	if ext := filepath.Ext(path); compressedExts[strings.ToLower(ext)] {
		path = strings.TrimSuffix(path, ext)
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// ClusterFileName returns the file name for the cluster at rank.
func ClusterFileName(stem string, rank int) string {
	return stem + "_cluster_" + strconv.Itoa(rank) + ".txt"
}

// FileSink writes each exported cluster to its own file, one point ID per
// line. It implements dbscan.ClusterSink.
type FileSink struct {
	// Stem is the path prefix for output files, usually StemFor(input).
	Stem string

	// Dir, when set, replaces the directory part of Stem.
	Dir string

	written []string
}

// WriteCluster writes ids to Stem_cluster_<rank>.txt, truncating any
// existing file.
func (s *FileSink) WriteCluster(rank int, ids []int64) error {
	name := ClusterFileName(s.Stem, rank)
	if s.Dir != "" {
		name = filepath.Join(s.Dir, filepath.Base(name))
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("recordio: %w", err)
	}
	if err := writeIDs(f, ids); err != nil {
		_ = f.Close()
		return fmt.Errorf("recordio: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("recordio: close %s: %w", name, err)
	}
	s.written = append(s.written, name)
	return nil
}

// Written returns the paths written so far, in rank order.
func (s *FileSink) Written() []string { return s.written }

func writeIDs(w io.Writer, ids []int64) error {
	bw := bufio.NewWriter(w)
	for _, id := range ids {
		bw.WriteString(strconv.FormatInt(id, 10))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteStatus reports the noise counts of a run as plain text.
func WriteStatus(w io.Writer, noise, adjusted int) error {
	_, err := fmt.Fprintf(w, "Outlier count: %d\nAdjusted count: %d\nRemain count: %d\n",
		noise, adjusted, noise-adjusted)
	return err
}
