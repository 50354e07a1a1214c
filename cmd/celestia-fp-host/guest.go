package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/source"
)

// decodeGuestCommitment parses the --guest-commitment flag: empty decodes
// to the zero commitment (a harmless default for --guest-height=0), a
// non-empty value must be exactly 32 bytes of hex.
func decodeGuestCommitment(hexStr string) ([32]byte, error) {
	var commitment [32]byte
	if hexStr == "" {
		return commitment, nil
	}
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return commitment, fmt.Errorf("guest commitment is not hex: %w: %w", err, daerr.ErrPayloadCorrupt)
	}
	if len(raw) != 32 {
		return commitment, fmt.Errorf("guest commitment length %d != 32: %w", len(raw), daerr.ErrPayloadCorrupt)
	}
	copy(commitment[:], raw)
	return commitment, nil
}

// staticPointerSource is the BaseSource the in-process guest mode drives:
// the real settlement-chain data source is an external collaborator
// (spec.md §1), so this hands back exactly one CelestiaDA pointer record
// built from the --guest-* flags and then ends the batch with io.EOF,
// matching BaseSource's contract of one record per call.
type staticPointerSource struct {
	height     uint64
	commitment [32]byte
	served     bool
}

func (s *staticPointerSource) Next(ctx context.Context, ref source.BlockRef, batcherAddr [20]byte) ([]byte, error) {
	if s.served {
		return nil, io.EOF
	}
	s.served = true

	record := make([]byte, 3+8+32)
	record[2] = source.CelestiaDAMarker
	binary.LittleEndian.PutUint64(record[3:11], s.height)
	copy(record[11:43], s.commitment[:])
	return record, nil
}
