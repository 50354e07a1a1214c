package daerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{
		ErrConfigInvalid, ErrUnavailable, ErrProofInvalid, ErrPayloadCorrupt,
		ErrUnknownHint, ErrNotYetAttested, ErrEndOfSource, ErrUnknownChain,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			require.NotErrorIs(t, a, b)
		}
	}
}

func TestWrappedSentinelMatchesErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("fetching blob: %w", ErrUnavailable)
	require.True(t, errors.Is(wrapped, ErrUnavailable))
	require.False(t, errors.Is(wrapped, ErrProofInvalid))
}
