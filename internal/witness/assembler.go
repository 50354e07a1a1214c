// Package witness implements the host-side witness assembler (C4): given a
// Celestia blob's (height, commitment), it fetches every proof component the
// guest will later need and performs a full local re-verification before
// ever returning a payload, so a corrupt fetch can never leak into the
// preimage store. It is the generalization of the teacher's
// das/celestia/celestia.go Store/Verify pair — the teacher builds these
// proofs to publish a batch and then checks them against a live contract;
// here they are built once, ahead of time, into a self-contained bundle a
// guest can check with no network access at all.
package witness

import (
	"context"
	"fmt"

	"github.com/celestiaorg/nmt/namespace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/rollkit/celestia-openrpc/types/share"

	"github.com/opstack-da/celestia-fp/internal/blobstream"
	"github.com/opstack-da/celestia-fp/internal/celestiarpc"
	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/ethrpc"
	"github.com/opstack-da/celestia-fp/internal/oracle"
)

// Assembler builds and locally verifies OraclePayloads for the host's hint
// handler (C5).
type Assembler struct {
	Celestia    celestiarpc.Client
	Settlement  ethrpc.Client
	NamespaceID namespace.ID
}

// New constructs an Assembler over the given Celestia and settlement-chain
// clients.
func New(celestia celestiarpc.Client, settlement ethrpc.Client, namespaceID namespace.ID) *Assembler {
	return &Assembler{Celestia: celestia, Settlement: settlement, NamespaceID: namespaceID}
}

// AssembleWitness runs the 8 steps of the witness assembly (spec.md §4.4)
// for a single (height, commitment): fetch the blob and header, locate and
// fetch its share proof, find the L1 attestation that covers this height,
// fetch its data-root-tuple inclusion proof and its on-chain storage proof,
// verify every piece locally, and only then return the assembled payload.
//
// Every step's network failure surfaces as ErrUnavailable (the hint should
// be retried); every local verification failure is fatal (ErrProofInvalid)
// and must never produce a payload.
func (a *Assembler) AssembleWitness(ctx context.Context, height uint64, commitment [32]byte, blobstreamAddr common.Address) (*oracle.OraclePayload, error) {
	blob, err := a.Celestia.BlobGet(ctx, height, share.Namespace(a.NamespaceID), commitment[:])
	if err != nil {
		return nil, err
	}

	header, err := a.Celestia.HeaderGetByHeight(ctx, height)
	if err != nil {
		return nil, err
	}

	start, end, err := shareRange(blob.Index, blob.SharesLen, uint64(len(header.RowRoots)))
	if err != nil {
		return nil, err
	}

	shareProof, err := a.Celestia.ShareGetRangeForHeight(ctx, height, a.NamespaceID, start, end)
	if err != nil {
		return nil, err
	}
	if err := shareProof.Validate(header.DataRoot); err != nil {
		return nil, fmt.Errorf("assemble witness height=%d: share proof failed local verification: %w", height, err)
	}

	attestation, err := a.Settlement.FindAttestationForHeight(ctx, blobstreamAddr, height)
	if err != nil {
		return nil, err
	}

	dataRootTupleProof, err := a.Celestia.DataRootTupleInclusionProof(ctx, height, attestation.StartBlock, attestation.EndBlock)
	if err != nil {
		return nil, err
	}
	tuple := blobstream.EncodeDataRootTuple(height, header.DataRoot)
	if err := dataRootTupleProof.Verify(attestation.DataCommitment, tuple[:]); err != nil {
		return nil, fmt.Errorf("assemble witness height=%d: data root tuple proof failed local verification: %w", height, err)
	}

	slot := blobstream.CalculateMappingSlot(blobstream.DataCommitmentsSlot, attestation.ProofNonce)
	storageRoot, storageProof, err := a.Settlement.GetProof(ctx, blobstreamAddr, []common.Hash{slot}, attestation.AttestationBlock)
	if err != nil {
		return nil, err
	}
	if err := blobstream.VerifyDataCommitmentStorage(storageRoot, storageProof, attestation.ProofNonce, attestation.DataCommitment); err != nil {
		return nil, fmt.Errorf("assemble witness height=%d: data commitment storage proof failed local verification: %w", height, err)
	}

	log.Info("assembled celestia da witness", "height", height, "nonce", attestation.ProofNonce, "start", start, "end", end)

	return &oracle.OraclePayload{
		BlobBytes:          blob.Data,
		DataRoot:           header.DataRoot,
		DataCommitment:     attestation.DataCommitment,
		DataRootTupleProof: dataRootTupleProof,
		ShareProof:         shareProof,
		ProofNonce:         attestation.ProofNonce,
		StorageRoot:        storageRoot,
		StorageProof:       storageProof,
	}, nil
}

// shareRange locates a blob's shares by their extended-data-square grid
// coordinates (spec.md §4.4 step 3, resolved per spec.md §9): the
// extended data square has eds_size rows/cols, the original data square
// half that; a share's (row, col) is simply (index/eds_size,
// index%eds_size), so the first row the blob occupies is index/eds_size
// and its start offset into that row is index%eds_size.
func shareRange(index, sharesLen, edsSize uint64) (start, end uint64, err error) {
	if edsSize == 0 || edsSize%2 != 0 {
		return 0, 0, fmt.Errorf("share range: invalid extended square size %d: %w", edsSize, daerr.ErrPayloadCorrupt)
	}
	firstRow := index / edsSize
	start = index - firstRow*edsSize
	end = start + sharesLen
	return start, end, nil
}
