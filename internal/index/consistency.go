package index

import (
	"context"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
)

// ConsistencyReport is the outcome of a deep Verify pass.
type ConsistencyReport struct {
	// IDListLength and IndexSize are the two sides of the parallel
	// invariant; equal after every healthy cycle.
	IDListLength int `json:"id_list_length"`
	IndexSize    int `json:"index_size"`

	// Orphans are ids in the parallel list with no chunk row behind
	// them; their positions return results that cannot be resolved.
	Orphans []int64 `json:"orphans,omitempty"`

	// Missing are chunk rows with no index slot; they are invisible to
	// vector search until the next rebuild.
	Missing []int64 `json:"missing,omitempty"`
}

// Consistent reports whether no issue was found.
func (r *ConsistencyReport) Consistent() bool {
	return r.IDListLength == r.IndexSize && len(r.Orphans) == 0 && len(r.Missing) == 0
}

// consistentLength heals the cheap invariant before any read: the id
// list is truncated to the live index size when the two disagree.
// Reads keep serving; the row-level mismatch waits for the next
// rebuild. Returns the length reads may trust.
func (e *Engine) consistentLength() int {
	e.dataMu.Lock()
	defer e.dataMu.Unlock()

	size := e.index.Size()
	if len(e.chunkIDs) == size {
		return size
	}

	n := len(e.chunkIDs)
	if size < n {
		n = size
	}
	e.logger.Warn("chunk id list and index size disagree, truncating",
		"ids", len(e.chunkIDs), "index", size, "serving", n)
	e.chunkIDs = e.chunkIDs[:n]
	return n
}

// servedPair returns the index, id list, and trusted length for one
// read, after healing.
func (e *Engine) servedPair() (*store.FlatIndex, []int64, int) {
	n := e.consistentLength()
	e.dataMu.RLock()
	defer e.dataMu.RUnlock()
	return e.index, e.chunkIDs, n
}

// Verify runs the deep consistency check: the parallel list against
// the record store. It never mutates; pair Repair or the next rebuild
// with it.
func (e *Engine) Verify(ctx context.Context) (*ConsistencyReport, error) {
	e.dataMu.RLock()
	ids := append([]int64(nil), e.chunkIDs...)
	size := e.index.Size()
	e.dataMu.RUnlock()

	report := &ConsistencyReport{IDListLength: len(ids), IndexSize: size}

	records, err := e.store.ListAllChunks(ctx)
	if err != nil {
		return nil, glerrors.StoreError("list chunks for verification", err)
	}

	rows := make(map[int64]struct{}, len(records))
	for _, rec := range records {
		rows[rec.ID] = struct{}{}
	}
	indexed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		indexed[id] = struct{}{}
		if _, ok := rows[id]; !ok {
			report.Orphans = append(report.Orphans, id)
		}
	}
	for _, rec := range records {
		if _, ok := indexed[rec.ID]; !ok {
			report.Missing = append(report.Missing, rec.ID)
		}
	}

	return report, nil
}

// Repair applies the shallow heal and logs what Verify found.
// Row-level healing belongs to the next rebuild, which regenerates the
// pair from the store wholesale.
func (e *Engine) Repair(ctx context.Context) (*ConsistencyReport, error) {
	report, err := e.Verify(ctx)
	if err != nil {
		return nil, err
	}
	e.consistentLength()

	if !report.Consistent() {
		e.logger.Warn("consistency issues found; next rebuild will heal rows",
			"orphans", len(report.Orphans),
			"missing", len(report.Missing),
			"ids", report.IDListLength,
			"index", report.IndexSize)
	}
	return report, nil
}
