// Package daerrors holds the sentinel error kinds shared across the
// CelestiaDA derivation pipeline, matching the error table in spec.md §7.
// It is a leaf package (no internal imports) so every other package here can
// depend on it without creating import cycles.
package daerrors

import "errors"

// Sentinel error kinds, matching the table in spec.md §7. Components wrap
// one of these with fmt.Errorf("...: %w", Err...) so callers can branch with
// errors.Is without string matching, the same convention go-ethereum uses
// for its own sentinel errors (e.g. core/types.ErrInvalidSig).
var (
	// ErrConfigInvalid marks a missing/malformed CLI arg or unknown chain-id.
	// Policy: abort startup.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrUnavailable marks a transient upstream failure (RPC error, missing
	// blob, event not yet indexed). Policy: the guest may retry via the
	// driver on the next origin advance.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrProofInvalid marks a local verification failure, host or guest
	// side. Policy: fatal for the current derivation step. The host must
	// never write a payload after this; the guest aborts with non-zero
	// status.
	ErrProofInvalid = errors.New("proof invalid")

	// ErrPayloadCorrupt marks a decode failure, length mismatch, or field
	// contradiction. Policy: fatal, never retried.
	ErrPayloadCorrupt = errors.New("payload corrupt")

	// ErrUnknownHint marks a hint string that fails to parse against both
	// the base alphabet and the celestia-da extension. Policy: fatal for
	// the current hint.
	ErrUnknownHint = errors.New("unknown hint")

	// ErrNotYetAttested marks a DataCommitmentStored log scan that reached
	// block 0 without finding a range covering the requested height.
	// Policy: surfaced as ErrUnavailable; caller may wait and retry.
	ErrNotYetAttested = errors.New("height not yet attested by blobstream")

	// ErrEndOfSource marks a pointer record whose DA-version byte is not
	// 0x0c. Policy: recoverable signal to the derivation pipeline.
	ErrEndOfSource = errors.New("end of source")

	// ErrUnknownChain marks a settlement chain-id absent from the
	// Blobstream registry (C9).
	ErrUnknownChain = errors.New("unknown chain id")
)
