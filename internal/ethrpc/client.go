// Package ethrpc wraps the two L1 surfaces the witness assembler needs
// (spec.md §6 "L1 RPC"): scanning Blobstream's DataCommitmentStored events
// to find the attestation range covering a height, and fetching an
// eth_getProof storage proof for state_dataCommitments[nonce]. It
// generalizes the teacher's das/celestia/celestia.go Verify method, which
// polls StateEventNonce and calls the Blobstream contract's VerifyAttestation
// view function on-chain; here the witness is meant to be checked later,
// offline, in the guest, so we instead capture the raw event log and storage
// proof needed to reconstruct that check without a live connection.
package ethrpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
)

// dataCommitmentStoredSig is the event topic0 for Blobstream's
// DataCommitmentStored(uint256,uint64,uint64,bytes32), computed the same
// way generated contract bindings compute an event's ID.
var dataCommitmentStoredSig = crypto.Keccak256Hash([]byte("DataCommitmentStored(uint256,uint64,uint64,bytes32)"))

// scanWindow bounds each eth_getLogs call; L1 providers commonly cap the
// block range of a single filter request around this size.
const scanWindow = 5000

// AttestationRange is a decoded DataCommitmentStored event: the nonce that
// attests the Celestia block height range [startBlock, endBlock) (end
// exclusive) and its data commitment.
type AttestationRange struct {
	ProofNonce       *uint256.Int
	StartBlock       uint64
	EndBlock         uint64
	DataCommitment   common.Hash
	AttestationBlock uint64
}

// Client is the L1 surface consumed by the witness assembler.
type Client interface {
	FindAttestationForHeight(ctx context.Context, blobstreamAddr common.Address, height uint64) (AttestationRange, error)
	GetProof(ctx context.Context, account common.Address, storageKeys []common.Hash, blockNumber uint64) (storageRoot common.Hash, proof [][]byte, err error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// EthClient is the production Client, backed by go-ethereum's ethclient and
// its raw RPC client (for eth_getProof, which ethclient does not expose).
type EthClient struct {
	eth *ethclient.Client
	rpc rpcCaller
}

// rpcCaller is the subset of *rpc.Client used here, so tests can fake it.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Dial connects to an L1 JSON-RPC endpoint.
func Dial(ctx context.Context, rawurl string) (*EthClient, error) {
	eth, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("eth rpc dial: %w: %w", err, daerr.ErrUnavailable)
	}
	return &EthClient{eth: eth, rpc: eth.Client()}, nil
}

func (c *EthClient) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w: %w", err, daerr.ErrUnavailable)
	}
	return n, nil
}

// FindAttestationForHeight walks backward from the chain head in
// scanWindow-sized log filters, looking for the most recent
// DataCommitmentStored event whose [StartBlock, EndBlock) range covers
// `height`. It gives up at block 0 with ErrNotYetAttested, matching
// spec.md §4.4 step 5 and §7's policy for that error (retry later; this is
// not necessarily fatal).
func (c *EthClient) FindAttestationForHeight(ctx context.Context, blobstreamAddr common.Address, height uint64) (AttestationRange, error) {
	head, err := c.BlockNumber(ctx)
	if err != nil {
		return AttestationRange{}, err
	}

	windowEnd := head
	for {
		var windowStart uint64
		if windowEnd > scanWindow {
			windowStart = windowEnd - scanWindow
		} else {
			windowStart = 0
		}

		logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(windowStart),
			ToBlock:   new(big.Int).SetUint64(windowEnd),
			Addresses: []common.Address{blobstreamAddr},
			Topics:    [][]common.Hash{{dataCommitmentStoredSig}},
		})
		if err != nil {
			return AttestationRange{}, fmt.Errorf("eth_getLogs [%d,%d]: %w: %w", windowStart, windowEnd, err, daerr.ErrUnavailable)
		}

		// Scan this window's logs most-recent-first so the first covering
		// attestation found is the most recent one.
		for i := len(logs) - 1; i >= 0; i-- {
			att, err := decodeDataCommitmentStored(logs[i])
			if err != nil {
				return AttestationRange{}, err
			}
			if height >= att.StartBlock && height < att.EndBlock {
				return att, nil
			}
		}

		if windowStart == 0 {
			return AttestationRange{}, fmt.Errorf("no attestation covers Celestia height %d in blocks [0,%d]: %w", height, head, daerr.ErrNotYetAttested)
		}
		windowEnd = windowStart - 1
	}
}

// dataCommitmentStoredArgs mirrors the ABI-encoded non-indexed fields of
// Blobstream's DataCommitmentStored event.
var dataCommitmentStoredArgs = abi.Arguments{
	{Name: "proofNonce", Type: mustType("uint256")},
	{Name: "startBlock", Type: mustType("uint64")},
	{Name: "endBlock", Type: mustType("uint64")},
	{Name: "dataCommitment", Type: mustType("bytes32")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func decodeDataCommitmentStored(l types.Log) (AttestationRange, error) {
	values, err := dataCommitmentStoredArgs.Unpack(l.Data)
	if err != nil {
		return AttestationRange{}, fmt.Errorf("decode DataCommitmentStored log at block %d: %w: %w", l.BlockNumber, err, daerr.ErrPayloadCorrupt)
	}
	nonceBig, ok := values[0].(*big.Int)
	if !ok {
		return AttestationRange{}, fmt.Errorf("decode DataCommitmentStored: proofNonce field type: %w", daerr.ErrPayloadCorrupt)
	}
	nonce, overflow := uint256.FromBig(nonceBig)
	if overflow {
		return AttestationRange{}, fmt.Errorf("decode DataCommitmentStored: proofNonce overflow: %w", daerr.ErrPayloadCorrupt)
	}
	commitmentBytes, ok := values[3].([32]byte)
	if !ok {
		return AttestationRange{}, fmt.Errorf("decode DataCommitmentStored: dataCommitment field type: %w", daerr.ErrPayloadCorrupt)
	}
	return AttestationRange{
		ProofNonce:       nonce,
		StartBlock:       values[1].(uint64),
		EndBlock:         values[2].(uint64),
		DataCommitment:   common.Hash(commitmentBytes),
		AttestationBlock: l.BlockNumber,
	}, nil
}

// ethGetProofResult is the subset of eth_getProof's response this package
// needs.
type ethGetProofResult struct {
	StorageHash  common.Hash       `json:"storageHash"`
	StorageProof []storageProofRPC `json:"storageProof"`
}

type storageProofRPC struct {
	Proof []string `json:"proof"`
}

// GetProof calls eth_getProof for `storageKeys` at `blockNumber`, returning
// the account's storage root and the MPT proof nodes for the first key only
// — the raw material for blobstream.VerifyDataCommitmentStorage.
func (c *EthClient) GetProof(ctx context.Context, account common.Address, storageKeys []common.Hash, blockNumber uint64) (common.Hash, [][]byte, error) {
	var result ethGetProofResult
	blockTag := fmt.Sprintf("0x%x", blockNumber)
	keys := make([]string, len(storageKeys))
	for i, k := range storageKeys {
		keys[i] = k.Hex()
	}
	if err := c.rpc.CallContext(ctx, &result, "eth_getProof", account, keys, blockTag); err != nil {
		return common.Hash{}, nil, fmt.Errorf("eth_getProof account=%s block=%d: %w: %w", account, blockNumber, err, daerr.ErrUnavailable)
	}
	if len(result.StorageProof) == 0 {
		return common.Hash{}, nil, fmt.Errorf("eth_getProof account=%s block=%d: empty storageProof: %w", account, blockNumber, daerr.ErrUnavailable)
	}
	proof := make([][]byte, len(result.StorageProof[0].Proof))
	for i, hexNode := range result.StorageProof[0].Proof {
		node := common.FromHex(hexNode)
		proof[i] = node
	}
	return result.StorageHash, proof, nil
}
