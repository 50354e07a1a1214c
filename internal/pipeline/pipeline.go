// Package pipeline provides the thin composition point (C8, spec.md §4.8)
// that exposes the CelestiaDA data source to the outer, out-of-scope
// attributes-building stage of the derivation pipeline, mirroring the
// OraclePipeline wiring idiom of the system this spec was distilled from.
package pipeline

import (
	"context"

	"github.com/opstack-da/celestia-fp/internal/source"
)

// DataSource is the capability this pipeline stage exposes upward: fetch
// the next batch of data for a given block and batcher address.
type DataSource interface {
	Next(ctx context.Context, ref source.BlockRef, batcherAddr [20]byte) ([]byte, error)
	Clear()
}

// CelestiaDAPipeline composes the DA source adapter into the shape the
// outer attributes builder expects. It holds no state of its own beyond the
// adapter; reorg handling and batch-stream composition live in the outer,
// out-of-scope pipeline (spec.md §1 Non-goals).
type CelestiaDAPipeline struct {
	source *source.DataSourceAdapter
}

// New wires a CelestiaDAPipeline over an already-constructed source
// adapter.
func New(adapter *source.DataSourceAdapter) *CelestiaDAPipeline {
	return &CelestiaDAPipeline{source: adapter}
}

// Next fetches the next batch of data for the given block/batcher, per
// spec.md §4.7.
func (p *CelestiaDAPipeline) Next(ctx context.Context, ref source.BlockRef, batcherAddr [20]byte) ([]byte, error) {
	return p.source.Next(ctx, ref, batcherAddr)
}

// Clear resets cached adapter state on a pipeline reset (reorg).
func (p *CelestiaDAPipeline) Clear() {
	p.source.Clear()
}
