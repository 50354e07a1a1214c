package oracle

import (
	"fmt"
	"strings"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
)

// CelestiaDAHintToken is the reserved printable token for the CelestiaDA
// hint variant. It must never collide with any token of the base single-
// chain hint alphabet (spec.md §3).
const CelestiaDAHintToken = "celestia-da"

// CelestiaDAPayloadLen is the fixed length of a CelestiaDA hint payload:
// 8-byte little-endian height + 32-byte commitment (spec.md §3).
const CelestiaDAPayloadLen = 40

// BaseHintParser recognizes a token of the base (externally owned) hint
// alphabet. It returns ok=false for anything it doesn't recognize so
// ParseHintWrapper can fall through to the celestia-da extension, per
// spec.md §4.3: "Parsing attempts base hints first, then the extension,
// then fails with UnknownHint."
type BaseHintParser func(s string) (base string, ok bool)

// Kind distinguishes the two HintWrapper variants.
type Kind uint8

const (
	// KindStandard wraps a hint belonging to the base single-chain alphabet.
	KindStandard Kind = iota
	// KindCelestiaDA is the celestia-da extension hint.
	KindCelestiaDA
)

// HintWrapper is the abstract enum {Standard(S) | CelestiaDA} of spec.md §3.
type HintWrapper struct {
	Kind     Kind
	Standard string // valid iff Kind == KindStandard; the unchanged base token
}

// NewStandardHint wraps a base-alphabet hint token unchanged.
func NewStandardHint(base string) HintWrapper {
	return HintWrapper{Kind: KindStandard, Standard: base}
}

// NewCelestiaDAHint constructs the celestia-da hint variant.
func NewCelestiaDAHint() HintWrapper {
	return HintWrapper{Kind: KindCelestiaDA}
}

// String renders the hint to its wire form. For HintWrapper this is just the
// type token; callers append the hex payload themselves (the payload is
// carried alongside the hint, not encoded into this string, matching the
// host<->guest hint-channel framing in spec.md §6).
func (h HintWrapper) String() string {
	switch h.Kind {
	case KindCelestiaDA:
		return CelestiaDAHintToken
	default:
		return h.Standard
	}
}

// ParseHintWrapper parses the textual hint type prefix. parseBase recognizes
// the externally-owned base alphabet; CelestiaDA is attempted only after
// parseBase reports no match, preserving forward compatibility as the base
// alphabet grows (spec.md §4.3).
func ParseHintWrapper(s string, parseBase BaseHintParser) (HintWrapper, error) {
	s = strings.TrimSpace(s)
	if parseBase != nil {
		if base, ok := parseBase(s); ok {
			return NewStandardHint(base), nil
		}
	}
	if s == CelestiaDAHintToken {
		return NewCelestiaDAHint(), nil
	}
	return HintWrapper{}, fmt.Errorf("%q: %w", s, daerr.ErrUnknownHint)
}

// EncodeCelestiaDAPayload builds the 40-byte CelestiaDA hint payload:
// height_le(8) || commitment(32).
func EncodeCelestiaDAPayload(height uint64, commitment [32]byte) []byte {
	buf := make([]byte, CelestiaDAPayloadLen)
	for i := 0; i < 8; i++ {
		buf[i] = byte(height >> (8 * i))
	}
	copy(buf[8:], commitment[:])
	return buf
}

// DecodeCelestiaDAPayload parses the 40-byte CelestiaDA hint payload. Any
// other length is invalid (spec.md §3).
func DecodeCelestiaDAPayload(payload []byte) (height uint64, commitment [32]byte, err error) {
	if len(payload) != CelestiaDAPayloadLen {
		return 0, commitment, fmt.Errorf("hint payload length %d != %d: %w", len(payload), CelestiaDAPayloadLen, daerr.ErrPayloadCorrupt)
	}
	for i := 0; i < 8; i++ {
		height |= uint64(payload[i]) << (8 * i)
	}
	copy(commitment[:], payload[8:40])
	return height, commitment, nil
}
