package dbscan

import (
	"golang.org/x/sync/errgroup"
)

// ParallelBruteIndex answers neighborhood queries with a linear scan split
// across worker goroutines. The scan only reads point coordinates, so it is
// safe to run while the expansion engine mutates visitation state.
//
// Results are identical to BruteIndex: each worker scans a contiguous range
// of positions and the partial results are concatenated in range order.
type ParallelBruteIndex struct {
	coords     []float64
	n          int
	numWorkers int
	minChunk   int
}

// parallelMinChunk is the smallest range worth handing to its own goroutine.
const parallelMinChunk = 256

// NewParallelBruteIndex builds a parallel brute-force index. If numWorkers
// is <= 1 every query falls back to a single sequential scan.
func NewParallelBruteIndex(store *PointStore, numWorkers int) *ParallelBruteIndex {
	return &ParallelBruteIndex{
		coords:     store.Coords(),
		n:          store.Len(),
		numWorkers: numWorkers,
		minChunk:   parallelMinChunk,
	}
}

func (p *ParallelBruteIndex) NumPoints() int { return p.n }

// Neighbors splits [0, n) into one contiguous range per worker.
func (p *ParallelBruteIndex) Neighbors(i int, eps float64) []int {
	r2 := radiusSquared(eps)

	workers := p.numWorkers
	if limit := (p.n + p.minChunk - 1) / p.minChunk; workers > limit {
		workers = limit
	}
	if workers <= 1 {
		return scanRange(p.coords, i, 0, p.n, r2, nil)
	}

	rowsPerWorker := (p.n + workers - 1) / workers
	parts := make([][]int, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, p.n)
		if start >= p.n {
			break
		}
		g.Go(func() error {
			parts[w] = scanRange(p.coords, i, start, end, r2, nil)
			return nil
		})
	}
	// Workers never fail; Wait is only a barrier.
	_ = g.Wait()

	total := 0
	for _, part := range parts {
		total += len(part)
	}
	out := make([]int, 0, total)
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}
