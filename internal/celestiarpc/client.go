// Package celestiarpc wraps the CelestiaDA JSON-RPC surfaces the host side
// needs (spec.md §6 "CelestiaDA RPC"): blob.Get, header.GetByHeight,
// share.GetRange, and blobstream.GetDataRootTupleInclusionProof. It adapts
// the teacher's das/celestia/celestia.go NewCelestiaDA/Read wiring — the
// same openrpc client plus a celestia-core tendermint RPC client for the
// data-root-tuple inclusion proof the teacher already fetches in its Verify
// method — generalized from "verify a batcher's own blob" to "fetch and
// locally verify witnesses for an arbitrary (height, commitment)".
package celestiarpc

import (
	"context"
	"fmt"

	"github.com/celestiaorg/nmt/namespace"
	"github.com/ethereum/go-ethereum/common"
	openrpc "github.com/rollkit/celestia-openrpc"
	"github.com/rollkit/celestia-openrpc/types/share"
	tmhttp "github.com/tendermint/tendermint/rpc/client/http"

	"github.com/opstack-da/celestia-fp/internal/blobstream"
	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/shareproof"
)

// Header is the subset of a Celestia block header the witness assembler
// needs: the data root and the extended-data-square row roots.
type Header struct {
	DataRoot [32]byte
	RowRoots [][]byte
}

// Blob is the subset of a fetched Celestia blob the witness assembler
// needs: its data, its global share index in the EDS, and its share count.
type Blob struct {
	Data      []byte
	Index     uint64
	SharesLen uint64
}

// Client is the CelestiaDA surface consumed by the host-side witness
// assembler (C4).
type Client interface {
	BlobGet(ctx context.Context, height uint64, ns share.Namespace, commitment []byte) (*Blob, error)
	HeaderGetByHeight(ctx context.Context, height uint64) (*Header, error)
	ShareGetRangeForHeight(ctx context.Context, height uint64, namespaceID namespace.ID, start, end uint64) (shareproof.ShareProof, error)
	DataRootTupleInclusionProof(ctx context.Context, height, rangeStart, rangeEnd uint64) (blobstream.BinaryMerkleProof, error)
}

// OnlineClient is the production Client, backed by the Celestia openrpc
// client (blob/header/share) and a celestia-core tendermint RPC client
// (data-root-tuple inclusion proof), exactly the two connections the
// teacher's NewCelestiaDA establishes.
type OnlineClient struct {
	rpc  *openrpc.Client
	trpc *tmhttp.HTTP
}

// NewOnlineClient dials the CelestiaDA JSON-RPC endpoint and the
// celestia-core tendermint RPC endpoint used for inclusion proofs.
func NewOnlineClient(ctx context.Context, rpcURL, authToken, tendermintRPC string) (*OnlineClient, error) {
	rpcClient, err := openrpc.NewClient(ctx, rpcURL, authToken)
	if err != nil {
		return nil, fmt.Errorf("celestia rpc dial: %w: %w", err, daerr.ErrUnavailable)
	}
	trpc, err := tmhttp.New(tendermintRPC, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("celestia tendermint rpc dial: %w: %w", err, daerr.ErrUnavailable)
	}
	if err := trpc.Start(); err != nil {
		return nil, fmt.Errorf("celestia tendermint rpc start: %w: %w", err, daerr.ErrUnavailable)
	}
	return &OnlineClient{rpc: rpcClient, trpc: trpc}, nil
}

func (c *OnlineClient) BlobGet(ctx context.Context, height uint64, ns share.Namespace, commitment []byte) (*Blob, error) {
	b, err := c.rpc.Blob.Get(ctx, height, ns, commitment)
	if err != nil {
		return nil, fmt.Errorf("blob.Get height=%d: %w: %w", height, err, daerr.ErrUnavailable)
	}
	if b.Index == nil {
		return nil, fmt.Errorf("blob.Get height=%d: missing share index: %w", height, daerr.ErrUnavailable)
	}
	return &Blob{
		Data:      b.Data,
		Index:     uint64(*b.Index),
		SharesLen: uint64(b.SharesUsed(share.RawShareSize)),
	}, nil
}

func (c *OnlineClient) HeaderGetByHeight(ctx context.Context, height uint64) (*Header, error) {
	h, err := c.rpc.Header.GetByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("header.GetByHeight height=%d: %w: %w", height, err, daerr.ErrUnavailable)
	}
	hdr := &Header{}
	copy(hdr.DataRoot[:], h.DataHash.Bytes())
	hdr.RowRoots = make([][]byte, len(h.DAH.RowRoots))
	for i, r := range h.DAH.RowRoots {
		hdr.RowRoots[i] = []byte(r)
	}
	return hdr, nil
}

// ShareGetRangeForHeight fetches the shares and proof spanning [start, end)
// of the extended data square at `height`, assembling our self-contained
// shareproof.ShareProof from the server's per-row NMT proofs and row-root
// audit paths. It re-fetches the header itself (rather than accepting our
// Header type) because share.GetRange needs the concrete openrpc header
// value, not just its data root and row roots.
func (c *OnlineClient) ShareGetRangeForHeight(ctx context.Context, height uint64, namespaceID namespace.ID, start, end uint64) (shareproof.ShareProof, error) {
	rpcHeader, err := c.rpc.Header.GetByHeight(ctx, height)
	if err != nil {
		return shareproof.ShareProof{}, fmt.Errorf("header.GetByHeight height=%d: %w: %w", height, err, daerr.ErrUnavailable)
	}
	rangeResult, err := c.rpc.Share.GetRange(ctx, rpcHeader, start, end)
	if err != nil {
		return shareproof.ShareProof{}, fmt.Errorf("share.GetRange height=%d [%d,%d): %w: %w", height, start, end, err, daerr.ErrUnavailable)
	}

	return buildShareProof(namespaceID, rangeResult)
}

// buildShareProof converts the openrpc share-range result (shares + a row
// proof against the header's row roots, plus the row roots' own audit path
// into the data root) into our self-contained shareproof.ShareProof.
func buildShareProof(namespaceID namespace.ID, rangeResult *share.GetRangeResult) (shareproof.ShareProof, error) {
	sp := shareproof.ShareProof{NamespaceID: namespaceID}

	rowProof := rangeResult.Proof.RowProof
	if len(rowProof.RowRoots) != len(rangeResult.Proof.ShareProofs) {
		return sp, fmt.Errorf("share proof: %d row roots but %d per-row nmt proofs: %w", len(rowProof.RowRoots), len(rangeResult.Proof.ShareProofs), daerr.ErrPayloadCorrupt)
	}

	shareCursor := 0
	for i, rowRoot := range rowProof.RowRoots {
		nmtProof := rangeResult.Proof.ShareProofs[i]
		rowSpan := nmtProof.End() - nmtProof.Start()
		if shareCursor+rowSpan > len(rangeResult.Shares) {
			return sp, fmt.Errorf("share proof: row %d exceeds fetched shares: %w", i, daerr.ErrPayloadCorrupt)
		}
		rowShares := rangeResult.Shares[shareCursor : shareCursor+rowSpan]
		shareCursor += rowSpan

		var root common.Hash
		copy(root[:], rowRoot)
		sp.Rows = append(sp.Rows, shareproof.RowShareProof{
			RowRoot: root,
			Shares:  rowShares,
			Proof:   nmtProof,
		})
		sp.RowRootProofs = append(sp.RowRootProofs, rowProof.Proofs[i])
	}
	return sp, nil
}

// DataRootTupleInclusionProof fetches the Merkle inclusion proof of
// (height, data_root) in the Blobstream range commitment tree for
// [rangeStart, rangeEnd), via the celestia-core tendermint RPC, exactly as
// the teacher's Verify method does with Trpc.DataRootInclusionProof.
func (c *OnlineClient) DataRootTupleInclusionProof(ctx context.Context, height, rangeStart, rangeEnd uint64) (blobstream.BinaryMerkleProof, error) {
	resp, err := c.trpc.DataRootInclusionProof(ctx, int64(height), rangeStart, rangeEnd)
	if err != nil {
		return blobstream.BinaryMerkleProof{}, fmt.Errorf("DataRootInclusionProof height=%d: %w: %w", height, err, daerr.ErrUnavailable)
	}
	sideNodes := make([]common.Hash, len(resp.Proof.Aunts))
	for i, aunt := range resp.Proof.Aunts {
		sideNodes[i] = common.BytesToHash(aunt)
	}
	return blobstream.BinaryMerkleProof{
		SideNodes: sideNodes,
		Key:       uint64(resp.Proof.Index),
		NumLeaves: uint64(resp.Proof.Total),
	}, nil
}
