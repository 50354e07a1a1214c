package ethrpc

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
)

func TestDecodeDataCommitmentStoredRoundTrip(t *testing.T) {
	var commitment [32]byte
	commitment[0] = 0xab

	data, err := dataCommitmentStoredArgs.Pack(big.NewInt(7), uint64(100), uint64(200), commitment)
	require.NoError(t, err)

	log := types.Log{Data: data, BlockNumber: 555}
	att, err := decodeDataCommitmentStored(log)
	require.NoError(t, err)

	require.True(t, att.ProofNonce.Eq(uint256.NewInt(7)))
	require.Equal(t, uint64(100), att.StartBlock)
	require.Equal(t, uint64(200), att.EndBlock)
	require.Equal(t, common.Hash(commitment), att.DataCommitment)
	require.Equal(t, uint64(555), att.AttestationBlock)
}

func TestDecodeDataCommitmentStoredMalformedData(t *testing.T) {
	log := types.Log{Data: []byte{0x01, 0x02, 0x03}}
	_, err := decodeDataCommitmentStored(log)
	require.ErrorIs(t, err, daerr.ErrPayloadCorrupt)
}

func TestDataCommitmentStoredEventSignature(t *testing.T) {
	require.NotEqual(t, common.Hash{}, dataCommitmentStoredSig)
}
