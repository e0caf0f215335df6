package store

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// FlatIndex is the in-memory vector index the engine searches. Vectors
// live in a position-ordered slice with no per-position delete: stale
// positions are retired by rebuilding the whole index, which is how the
// engine reconciles every change cycle. Exhaustive scan is exact and
// fast at vault scale.
type FlatIndex struct {
	mu      sync.RWMutex
	config  FlatIndexConfig
	vectors [][]float32
	closed  bool
}

// NewFlatIndex creates an empty index.
func NewFlatIndex(cfg FlatIndexConfig) (*FlatIndex, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("flat index requires positive dimensions, got %d", cfg.Dimensions)
	}
	switch cfg.Metric {
	case "":
		cfg.Metric = MetricCosine
	case MetricCosine, MetricL2:
	default:
		return nil, fmt.Errorf("unknown metric %q", cfg.Metric)
	}
	return &FlatIndex{config: cfg}, nil
}

// NewFlatIndexFromVectors creates an index pre-populated with vectors,
// used when restoring a snapshot.
func NewFlatIndexFromVectors(cfg FlatIndexConfig, vectors [][]float32) (*FlatIndex, error) {
	x, err := NewFlatIndex(cfg)
	if err != nil {
		return nil, err
	}
	if err := x.Rebuild(vectors); err != nil {
		return nil, err
	}
	return x, nil
}

// Add appends vectors to the end of the index. The first appended
// vector occupies position Size() as it was before the call.
func (x *FlatIndex) Add(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return fmt.Errorf("index is closed")
	}

	prepared, err := x.prepare(vectors)
	if err != nil {
		return err
	}
	x.vectors = append(x.vectors, prepared...)
	return nil
}

// Rebuild replaces the entire contents with vectors. The replacement
// is prepared before the swap, so a failed rebuild leaves the previous
// contents untouched.
func (x *FlatIndex) Rebuild(vectors [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return fmt.Errorf("index is closed")
	}

	prepared, err := x.prepare(vectors)
	if err != nil {
		return err
	}
	x.vectors = prepared
	return nil
}

// prepare validates dimensions and copies vectors, normalizing for the
// cosine metric. Callers hold the lock.
func (x *FlatIndex) prepare(vectors [][]float32) ([][]float32, error) {
	prepared := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		if len(v) != x.config.Dimensions {
			return nil, ErrDimensionMismatch{Expected: x.config.Dimensions, Got: len(v)}
		}
		vec := make([]float32, len(v))
		copy(vec, v)
		if x.config.Metric == MetricCosine {
			normalizeInPlace(vec)
		}
		prepared = append(prepared, vec)
	}
	return prepared, nil
}

// Search scans every position and returns the k nearest, best first.
func (x *FlatIndex) Search(query []float32, k int) ([]*FlatResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if len(query) != x.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: x.config.Dimensions, Got: len(query)}
	}
	if k <= 0 || len(x.vectors) == 0 {
		return []*FlatResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	if x.config.Metric == MetricCosine {
		normalizeInPlace(q)
	}

	results := make([]*FlatResult, len(x.vectors))
	for i, vec := range x.vectors {
		d := x.distance(q, vec)
		results[i] = &FlatResult{
			Position: i,
			Distance: d,
			Score:    distanceToScore(d, x.config.Metric),
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Position < results[j].Position
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (x *FlatIndex) distance(a, b []float32) float32 {
	switch x.config.Metric {
	case MetricL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return float32(math.Sqrt(sum))
	default:
		// Both vectors are unit length, so cosine distance is 1 - dot.
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return float32(1.0 - dot)
	}
}

// Size returns the number of positions in the index.
func (x *FlatIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Dimensions returns the configured vector width.
func (x *FlatIndex) Dimensions() int {
	return x.config.Dimensions
}

// Metric returns the configured distance metric.
func (x *FlatIndex) Metric() string {
	return x.config.Metric
}

// Vectors returns a copy of the index contents in position order, used
// when persisting a snapshot.
func (x *FlatIndex) Vectors() [][]float32 {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([][]float32, len(x.vectors))
	for i, v := range x.vectors {
		vec := make([]float32, len(v))
		copy(vec, v)
		out[i] = vec
	}
	return out
}

// Reset drops every vector.
func (x *FlatIndex) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = nil
}

// Close releases the index. Idempotent.
func (x *FlatIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	x.vectors = nil
	return nil
}

// normalizeInPlace scales v to unit length. Zero vectors are left
// unchanged.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// distanceToScore converts a distance into a similarity in [0, 1],
// higher is more similar. Cosine distance spans 0-2; L2 is unbounded.
func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case MetricL2:
		return 1.0 / (1.0 + distance)
	default:
		return 1.0 - distance/2.0
	}
}
