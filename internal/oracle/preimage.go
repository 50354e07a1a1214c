package oracle

import (
	"context"

	"github.com/ethereum/go-ethereum/crypto"
)

// PreimageKeyType tags the namespace a PreimageKey belongs to, mirroring the
// fault-proof VM's preimage oracle key types (local, keccak256-global,
// generic-global, ...). Only GlobalGeneric is used by this extension;
// spec.md §3: "tagged with the GlobalGeneric preimage namespace."
type PreimageKeyType byte

const (
	_ PreimageKeyType = iota
	LocalKeyType
	Keccak256KeyType
	GlobalGenericKeyType
)

// PreimageKey addresses a single preimage: a 32-byte digest plus its
// namespace tag, encoded the way the base fault-proof oracle expects — the
// type byte replaces the digest's first byte, matching the convention used
// throughout op-style preimage oracles (the high byte of the 32-byte key
// space is reserved for the type tag).
type PreimageKey [32]byte

// NewPreimageKey tags `digest` with `typ`.
func NewPreimageKey(digest [32]byte, typ PreimageKeyType) PreimageKey {
	key := digest
	key[0] = byte(typ)
	return PreimageKey(key)
}

// CelestiaDAPreimageKey derives the preimage key for a CelestiaDA hint
// payload: key = keccak256(hint_payload), tagged GlobalGeneric
// (spec.md §3).
func CelestiaDAPreimageKey(hintPayload []byte) PreimageKey {
	digest := crypto.Keccak256Hash(hintPayload)
	return NewPreimageKey([32]byte(digest), GlobalGenericKeyType)
}

// HintWriter sends an advisory hint string to the host, over the Hint
// channel of spec.md §6.
type HintWriter interface {
	WriteHint(ctx context.Context, hint string) error
}

// PreimageOracle reads the preimage bound to a key, over the Preimage
// channel of spec.md §6.
type PreimageOracle interface {
	Get(ctx context.Context, key PreimageKey) ([]byte, error)
}

// CommsClient is the combination of both channels a guest-side provider
// needs, matching the host<->guest channel pair of spec.md §6.
type CommsClient interface {
	HintWriter
	PreimageOracle
}
