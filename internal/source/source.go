// Package source implements the DA source adapter (C7, spec.md §4.7):
// it wraps the base settlement-chain data source and, for each pointer
// record, either returns ErrEndOfSource (non-CelestiaDA pointers) or
// resolves it through the oracle-backed provider (C6) for CelestiaDA
// pointers, caching the single resulting blob until the next call.
package source

import (
	"context"
	"encoding/binary"
	"fmt"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/provider"
)

// CelestiaDAMarker is the pointer-record byte (index 2) that identifies a
// CelestiaDA-backed batch, matching the teacher's
// CelestiaMessageHeaderFlag = 0x0c (das/celestia/celestia.go).
const CelestiaDAMarker = 0x0c

// pointerRecordLen is the fixed size of a CelestiaDA pointer record:
// [version:3][height_le:8][commitment:32].
const pointerRecordLen = 43

// BlockRef identifies the settlement-chain block the base source should
// read batcher data from.
type BlockRef struct {
	Number uint64
	Hash   [32]byte
}

// BaseSource is the outer, settlement-chain data source this adapter
// wraps; kept abstract per spec.md §1's "external collaborator" framing.
type BaseSource interface {
	Next(ctx context.Context, ref BlockRef, batcherAddr [20]byte) ([]byte, error)
}

// ErrEndOfSource signals "this pointer record is not ours" or "no more
// pointer records at this block" — a temporary, non-fatal condition the
// outer derivation pipeline retries on the next block (spec.md §4.7 step 2).
var ErrEndOfSource = daerr.ErrEndOfSource

// DataSourceAdapter bridges the base settlement-chain source to the
// CelestiaDA oracle-backed provider.
type DataSourceAdapter struct {
	Base     BaseSource
	Celestia *provider.OracleBackedProvider

	open       bool
	bytesQueue []byte
}

// New constructs a DataSourceAdapter.
func New(base BaseSource, celestia *provider.OracleBackedProvider) *DataSourceAdapter {
	return &DataSourceAdapter{Base: base, Celestia: celestia}
}

// Next implements the dispatch of spec.md §4.7: read one pointer record
// from the base source, and if it is a CelestiaDA pointer, resolve it
// (once) into its blob via the oracle-backed provider.
func (a *DataSourceAdapter) Next(ctx context.Context, ref BlockRef, batcherAddr [20]byte) ([]byte, error) {
	pointer, err := a.Base.Next(ctx, ref, batcherAddr)
	if err != nil {
		return nil, err
	}
	if len(pointer) < 3 || pointer[2] != CelestiaDAMarker {
		return nil, ErrEndOfSource
	}
	if len(pointer) != pointerRecordLen {
		return nil, fmt.Errorf("celestia-da pointer record length %d != %d: %w", len(pointer), pointerRecordLen, ErrEndOfSource)
	}

	height := binary.LittleEndian.Uint64(pointer[3:11])
	var commitment [32]byte
	copy(commitment[:], pointer[11:43])

	blob, err := a.Celestia.BlobGet(ctx, height, commitment)
	if err != nil {
		return nil, err
	}

	a.bytesQueue = blob
	a.open = true
	return blob, nil
}

// Clear drops all cached state on a pipeline reset (e.g. a settlement-chain
// reorg), per spec.md §4.7 step 5.
func (a *DataSourceAdapter) Clear() {
	a.bytesQueue = nil
	a.open = false
}
