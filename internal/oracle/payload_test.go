package oracle

import (
	"crypto/sha256"
	"testing"

	"github.com/celestiaorg/nmt"
	"github.com/celestiaorg/nmt/namespace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto/merkle"

	"github.com/opstack-da/celestia-fp/internal/blobstream"
	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/nmttree"
	"github.com/opstack-da/celestia-fp/internal/shareproof"
)

func namespacedShare(nsByte byte, data string) []byte {
	id := make([]byte, nmttree.NamespaceIDSize)
	id[len(id)-1] = nsByte
	padded := data
	for len(padded) < 64 {
		padded += "0"
	}
	return append(id, []byte(padded)...)
}

func buildTestShareProof(t *testing.T) (common.Hash, shareproof.ShareProof) {
	t.Helper()
	nsID := make(namespace.ID, nmttree.NamespaceIDSize)
	nsID[len(nsID)-1] = 3

	shares := [][]byte{
		namespacedShare(3, "share-a"),
		namespacedShare(3, "share-b"),
	}

	tree := nmt.New(sha256.New(), nmt.NamespaceIDSize(nmttree.NamespaceIDSize), nmt.IgnoreMaxNamespace(true))
	for _, s := range shares {
		require.NoError(t, tree.Push(s))
	}
	root, err := tree.Root()
	require.NoError(t, err)
	proof, err := tree.ProveRange(0, len(shares))
	require.NoError(t, err)

	rowRoot := common.BytesToHash(root)
	items := [][]byte{rowRoot.Bytes(), []byte("sibling-row-root")}
	dataRoot, auditProofs := merkle.ProofsFromByteSlices(items)

	sp := shareproof.ShareProof{
		NamespaceID: nsID,
		Rows: []shareproof.RowShareProof{{
			RowRoot: rowRoot,
			Shares:  shares,
			Proof:   &proof,
		}},
		RowRootProofs: []*merkle.Proof{auditProofs[0]},
	}
	return common.BytesToHash(dataRoot), sp
}

func TestOraclePayloadRoundTrip(t *testing.T) {
	dataRoot, sp := buildTestShareProof(t)

	var commitment [32]byte
	for i := range commitment {
		commitment[i] = byte(i + 1)
	}

	payload := &OraclePayload{
		BlobBytes:      []byte("the blob contents"),
		DataRoot:       dataRoot,
		DataCommitment: commitment,
		DataRootTupleProof: blobstream.BinaryMerkleProof{
			SideNodes: []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
			Key:       3,
			NumLeaves: 9,
		},
		ShareProof:   sp,
		ProofNonce:   uint256.NewInt(42),
		StorageRoot:  common.HexToHash("0xbeef"),
		StorageProof: [][]byte{[]byte("node-0"), []byte("node-1"), []byte("node-2")},
	}

	encoded, err := payload.ToBytes()
	require.NoError(t, err)

	decoded, err := FromBytes(encoded)
	require.NoError(t, err)

	require.Equal(t, payload.BlobBytes, decoded.BlobBytes)
	require.Equal(t, payload.DataRoot, decoded.DataRoot)
	require.Equal(t, payload.DataCommitment, decoded.DataCommitment)
	require.Equal(t, payload.DataRootTupleProof, decoded.DataRootTupleProof)
	require.Equal(t, payload.StorageRoot, decoded.StorageRoot)
	require.Equal(t, payload.StorageProof, decoded.StorageProof)
	require.True(t, payload.ProofNonce.Eq(decoded.ProofNonce))

	require.Equal(t, sp.NamespaceID, decoded.ShareProof.NamespaceID)
	require.Len(t, decoded.ShareProof.Rows, 1)
	require.Equal(t, sp.Rows[0].RowRoot, decoded.ShareProof.Rows[0].RowRoot)
	require.Equal(t, sp.Rows[0].Shares, decoded.ShareProof.Rows[0].Shares)
	require.NoError(t, decoded.ShareProof.Validate(dataRoot))
}

func TestOraclePayloadRoundTripEmptyBlob(t *testing.T) {
	dataRoot, sp := buildTestShareProof(t)
	payload := &OraclePayload{
		DataRoot:    dataRoot,
		ShareProof:  sp,
		ProofNonce:  new(uint256.Int),
		StorageRoot: common.Hash{},
	}
	encoded, err := payload.ToBytes()
	require.NoError(t, err)
	decoded, err := FromBytes(encoded)
	require.NoError(t, err)
	require.Empty(t, decoded.BlobBytes)
	require.Empty(t, decoded.StorageProof)
}

func TestFromBytesEmptyInput(t *testing.T) {
	_, err := FromBytes(nil)
	require.ErrorIs(t, err, daerr.ErrPayloadCorrupt)
}

func TestFromBytesVersionMismatch(t *testing.T) {
	_, err := FromBytes([]byte{0xff, 0x00})
	require.ErrorIs(t, err, daerr.ErrPayloadCorrupt)
}

func TestFromBytesTrailingBytes(t *testing.T) {
	_, sp := buildTestShareProof(t)
	payload := &OraclePayload{
		ShareProof:  sp,
		ProofNonce:  new(uint256.Int),
		StorageRoot: common.Hash{},
	}
	encoded, err := payload.ToBytes()
	require.NoError(t, err)
	_, err = FromBytes(append(encoded, 0x01, 0x02))
	require.ErrorIs(t, err, daerr.ErrPayloadCorrupt)
}
