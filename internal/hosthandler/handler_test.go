package hosthandler

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/kvstore"
	"github.com/opstack-da/celestia-fp/internal/oracle"
)

func TestFetchHintDispatchesStandardToBase(t *testing.T) {
	var gotHint string
	base := func(_ context.Context, hint string, _ kvstore.Store) error {
		gotHint = hint
		return nil
	}
	h := New(base, nil, common.Address{}, kvstore.NewMemory())

	err := h.FetchHint(context.Background(), "l1-block-header deadbeef")
	require.NoError(t, err)
	require.Equal(t, "l1-block-header deadbeef", gotHint)
}

func TestFetchHintCelestiaDAWrongPayloadLength(t *testing.T) {
	base := func(_ context.Context, _ string, _ kvstore.Store) error { return nil }
	h := New(base, nil, common.Address{}, kvstore.NewMemory())

	shortPayload := hex.EncodeToString(make([]byte, 32)) // spec requires 40 bytes
	hint := oracle.CelestiaDAHintToken + " " + shortPayload

	err := h.FetchHint(context.Background(), hint)
	require.ErrorIs(t, err, daerr.ErrPayloadCorrupt)
}

func TestFetchHintCelestiaDANotHex(t *testing.T) {
	base := func(_ context.Context, _ string, _ kvstore.Store) error { return nil }
	h := New(base, nil, common.Address{}, kvstore.NewMemory())

	err := h.FetchHint(context.Background(), oracle.CelestiaDAHintToken+" not-hex-zz")
	require.ErrorIs(t, err, daerr.ErrPayloadCorrupt)
}

func TestFetchHintBaseHandlerError(t *testing.T) {
	base := func(_ context.Context, _ string, _ kvstore.Store) error {
		return daerr.ErrUnavailable
	}
	h := New(base, nil, common.Address{}, kvstore.NewMemory())

	err := h.FetchHint(context.Background(), "some-standard-hint abcd")
	require.ErrorIs(t, err, daerr.ErrUnavailable)
}
