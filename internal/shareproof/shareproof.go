// Package shareproof bundles the Namespaced Merkle Tree proof that a
// contiguous range of shares belongs under a Celestia block's data root
// (spec.md §3, field 5: share_proof). It mirrors the shape of
// celestia-app's pkg/proof.ShareProof: per-row NMT inclusion proofs plus a
// proof that each spanned row root is itself included in the data root
// (the same row/column-root-to-data-root tree the teacher already queries
// indirectly via header.DAH in das/celestia/celestia.go's Read method).
package shareproof

import (
	"crypto/sha256"
	"fmt"

	"github.com/celestiaorg/nmt"
	"github.com/celestiaorg/nmt/namespace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tendermint/tendermint/crypto/merkle"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/nmttree"
)

// RowShareProof proves that a (possibly partial) row of shares hashes to a
// given row's NMT root.
type RowShareProof struct {
	RowRoot common.Hash
	Shares  [][]byte
	Proof   *nmt.Proof
}

// ShareProof is the self-contained inclusion witness for a blob's shares
// against a Celestia block's data root.
type ShareProof struct {
	NamespaceID namespace.ID
	Rows        []RowShareProof
	// RowRootProofs proves each Rows[i].RowRoot is included, at its
	// original position among all of the block's row+column roots, under
	// DataRoot — the same tendermint-style SHA-256 Merkle tree
	// DataAvailabilityHeader.Hash() builds.
	RowRootProofs []*merkle.Proof
}

// Validate re-derives both layers of the proof and checks they reconstruct
// dataRoot, per spec.md §3 invariant "share_proof.verify(data_root) = ok".
func (sp ShareProof) Validate(dataRoot common.Hash) error {
	if len(sp.Rows) == 0 {
		return fmt.Errorf("share proof: no rows: %w", daerr.ErrProofInvalid)
	}
	if len(sp.RowRootProofs) != len(sp.Rows) {
		return fmt.Errorf("share proof: %d row roots but %d row-root proofs: %w", len(sp.Rows), len(sp.RowRootProofs), daerr.ErrProofInvalid)
	}

	hasher := nmt.NewNmtHasher(sha256.New, namespace.IDSize(nmttree.NamespaceIDSize), true)

	for i, row := range sp.Rows {
		if row.Proof == nil {
			return fmt.Errorf("share proof: row %d missing nmt proof: %w", i, daerr.ErrProofInvalid)
		}
		if !row.Proof.VerifyInclusion(hasher, sp.NamespaceID, row.Shares, row.RowRoot.Bytes()) {
			return fmt.Errorf("share proof: row %d nmt inclusion failed: %w", i, daerr.ErrProofInvalid)
		}
		if err := sp.RowRootProofs[i].Verify(dataRoot.Bytes(), row.RowRoot.Bytes()); err != nil {
			return fmt.Errorf("share proof: row %d root-to-data-root proof failed: %w: %w", i, err, daerr.ErrProofInvalid)
		}
	}
	return nil
}

// Shares flattens the blob's shares across all proven rows, in order.
func (sp ShareProof) Shares() [][]byte {
	var out [][]byte
	for _, row := range sp.Rows {
		out = append(out, row.Shares...)
	}
	return out
}
