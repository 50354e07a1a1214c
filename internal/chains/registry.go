// Package chains implements the chain-id -> Blobstream contract address
// registry (C9 of spec.md §4.8): a fixed constant table, not a mutable
// singleton, per spec.md §9 "Global registry" design note.
package chains

import "github.com/ethereum/go-ethereum/common"

// Well-known settlement chain IDs this registry recognizes.
const (
	Mainnet uint64 = 1
	Sepolia uint64 = 11155111
)

// blobstreamAddresses maps a settlement chain-id to its deployed Blobstream
// (SP1Blobstream) contract address.
var blobstreamAddresses = map[uint64]common.Address{
	Mainnet: common.HexToAddress("0x7Cf3876F681Dbb6EdA8f6FfC45D66B996Df08fAe"),
	Sepolia: common.HexToAddress("0xF0c6429ebAB2e7DC6e05DaFB61128bE21f13cb1e"),
}

// BlobstreamAddress returns the Blobstream contract address for a known
// chain-id. Unknown IDs return ok=false; callers must fail startup with
// ErrUnknownChain (spec.md §4.8, §7).
func BlobstreamAddress(chainID uint64) (common.Address, bool) {
	addr, ok := blobstreamAddresses[chainID]
	return addr, ok
}
