package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/celestiaorg/nmt/namespace"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/nmttree"
)

// decodeNamespace parses the --celestia-namespace hex string into a v0
// namespace ID, left-padding with zero bytes the way the Celestia "v0"
// namespace constructor does when given fewer than the full 29 bytes.
func decodeNamespace(hexStr string) (namespace.ID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode namespace hex: %w: %w", err, daerr.ErrConfigInvalid)
	}
	if len(raw) > nmttree.NamespaceIDSize {
		return nil, fmt.Errorf("namespace too long: %d > %d: %w", len(raw), nmttree.NamespaceIDSize, daerr.ErrConfigInvalid)
	}
	id := make(namespace.ID, nmttree.NamespaceIDSize)
	copy(id[nmttree.NamespaceIDSize-len(raw):], raw)
	return id, nil
}
