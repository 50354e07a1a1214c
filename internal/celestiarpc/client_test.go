package celestiarpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// OnlineClient wraps two live RPC connections (the Celestia openrpc client
// and a celestia-core tendermint RPC client) and is exercised by the
// witness assembler's tests through the Client interface with fakes
// instead; there is no local way to stand up those servers here. These
// tests cover the plain data types this package exposes to callers.

func TestHeaderZeroValue(t *testing.T) {
	var h Header
	require.Equal(t, [32]byte{}, h.DataRoot)
	require.Nil(t, h.RowRoots)
}

func TestBlobZeroValue(t *testing.T) {
	var b Blob
	require.Equal(t, uint64(0), b.Index)
	require.Equal(t, uint64(0), b.SharesLen)
	require.Nil(t, b.Data)
}
