// Package hosthandler implements the host-side hint dispatch (C5, spec.md
// §4.5): a state machine over oracle.HintWrapper that routes Standard hints
// to an injected base handler and CelestiaDA hints to the witness
// assembler, writing the resulting payload into the shared key-value store.
package hosthandler

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/kvstore"
	"github.com/opstack-da/celestia-fp/internal/oracle"
	"github.com/opstack-da/celestia-fp/internal/witness"
)

// BaseHintHandler fetches a preimage for a non-CelestiaDA hint; it is the
// outer host's existing single-chain hint handler, kept abstract per
// spec.md §1's "external collaborator" framing.
type BaseHintHandler func(ctx context.Context, hint string, kv kvstore.Store) error

// Handler dispatches hints of both kinds to their respective fetchers.
type Handler struct {
	Base           BaseHintHandler
	Assembler      *witness.Assembler
	BlobstreamAddr common.Address
	Store          kvstore.Store
}

// New constructs a Handler.
func New(base BaseHintHandler, assembler *witness.Assembler, blobstreamAddr common.Address, store kvstore.Store) *Handler {
	return &Handler{Base: base, Assembler: assembler, BlobstreamAddr: blobstreamAddr, Store: store}
}

// FetchHint parses and dispatches a single wire-format hint: a type token,
// a space, and the hex-encoded payload (spec.md §3's "printable form" names
// only the token; the payload rides alongside it on the hint channel).
func (h *Handler) FetchHint(ctx context.Context, hint string) error {
	token, payloadHex, _ := strings.Cut(strings.TrimSpace(hint), " ")

	wrapper, err := oracle.ParseHintWrapper(token, func(s string) (string, bool) {
		// No base alphabet is statically known here; any token that isn't
		// the reserved CelestiaDA token is treated as a standard hint and
		// handed to the base handler unchanged.
		if s == oracle.CelestiaDAHintToken {
			return "", false
		}
		return s, true
	})
	if err != nil {
		return err
	}

	switch wrapper.Kind {
	case oracle.KindStandard:
		return h.Base(ctx, hint, h.Store)
	case oracle.KindCelestiaDA:
		return h.fetchCelestiaDA(ctx, payloadHex)
	default:
		return fmt.Errorf("fetch hint: unrecognized hint kind %d: %w", wrapper.Kind, daerr.ErrUnknownHint)
	}
}

// fetchCelestiaDA decodes a CelestiaDA hint payload, runs the witness
// assembler, and stores the serialized payload under
// keccak256(hint_payload) (spec.md §4.5).
func (h *Handler) fetchCelestiaDA(ctx context.Context, payloadHex string) error {
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return fmt.Errorf("fetch hint: celestia-da payload is not hex: %w: %w", err, daerr.ErrPayloadCorrupt)
	}
	if len(payload) != oracle.CelestiaDAPayloadLen {
		return fmt.Errorf("fetch hint: celestia-da payload length %d != %d: %w", len(payload), oracle.CelestiaDAPayloadLen, daerr.ErrPayloadCorrupt)
	}
	height, commitment, err := oracle.DecodeCelestiaDAPayload(payload)
	if err != nil {
		return err
	}

	oraclePayload, err := h.Assembler.AssembleWitness(ctx, height, commitment, h.BlobstreamAddr)
	if err != nil {
		return err
	}
	encoded, err := oraclePayload.ToBytes()
	if err != nil {
		return fmt.Errorf("fetch hint: encode oracle payload: %w", err)
	}

	key := oracle.CelestiaDAPreimageKey(payload)
	if err := h.Store.Set(ctx, key, encoded); err != nil {
		return fmt.Errorf("fetch hint: store celestia-da preimage: %w", err)
	}
	log.Debug("stored celestia-da preimage", "height", height, "key", key)
	return nil
}
