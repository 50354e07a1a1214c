// Package provider implements the guest-side oracle-backed blob provider
// (C6, spec.md §4.6): it sends a hint, reads the resulting preimage, decodes
// it into an OraclePayload, and re-verifies every proof locally before
// handing the blob bytes to the caller. No network or filesystem access
// occurs here — everything flows through the injected oracle.CommsClient,
// matching spec.md §4.6's closing invariant.
package provider

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/opstack-da/celestia-fp/internal/blobstream"
	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/oracle"
)

// OracleBackedProvider fetches and re-verifies CelestiaDA blobs through a
// hint/preimage oracle channel.
type OracleBackedProvider struct {
	Comms oracle.CommsClient
}

// New constructs an OracleBackedProvider over the given hint/preimage
// channel.
func New(comms oracle.CommsClient) *OracleBackedProvider {
	return &OracleBackedProvider{Comms: comms}
}

// BlobGet fetches and fully re-verifies the blob at (height, commitment),
// per the 7 steps of spec.md §4.6.
func (p *OracleBackedProvider) BlobGet(ctx context.Context, height uint64, commitment [32]byte) ([]byte, error) {
	hintPayload := oracle.EncodeCelestiaDAPayload(height, commitment)

	hintWire := oracle.NewCelestiaDAHint().String() + " " + hex.EncodeToString(hintPayload)
	if err := p.Comms.WriteHint(ctx, hintWire); err != nil {
		return nil, fmt.Errorf("blob get height=%d: write hint: %w", height, err)
	}

	key := oracle.CelestiaDAPreimageKey(hintPayload)
	raw, err := p.Comms.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("blob get height=%d: read preimage: %w", height, err)
	}

	payload, err := oracle.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("blob get height=%d: %w", height, err)
	}

	if err := payload.ShareProof.Validate(payload.DataRoot); err != nil {
		return nil, fmt.Errorf("blob get height=%d: share proof: %w", height, err)
	}

	tuple := blobstream.EncodeDataRootTuple(height, payload.DataRoot)
	if err := payload.DataRootTupleProof.Verify(payload.DataCommitment, tuple[:]); err != nil {
		return nil, fmt.Errorf("blob get height=%d: data root tuple proof: %w", height, err)
	}

	if err := blobstream.VerifyDataCommitmentStorage(payload.StorageRoot, payload.StorageProof, payload.ProofNonce, payload.DataCommitment); err != nil {
		return nil, fmt.Errorf("blob get height=%d: data commitment storage proof: %w", height, err)
	}

	if len(payload.BlobBytes) == 0 {
		return nil, fmt.Errorf("blob get height=%d: empty blob: %w", height, daerr.ErrPayloadCorrupt)
	}
	return payload.BlobBytes, nil
}
