package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opstack-da/celestia-fp/internal/oracle"
)

func testKey(b byte) oracle.PreimageKey {
	var k oracle.PreimageKey
	k[len(k)-1] = b
	return k
}

func TestMemoryGetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := testKey(1)

	_, err := m.Get(ctx, key)
	require.Error(t, err)

	require.NoError(t, m.Set(ctx, key, []byte("value")))
	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestMemorySetIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := testKey(2)
	require.NoError(t, m.Set(ctx, key, []byte("value")))
	require.NoError(t, m.Set(ctx, key, []byte("value")))
	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestMemorySetOverwritesDifferentValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := testKey(3)
	require.NoError(t, m.Set(ctx, key, []byte("v1")))
	require.NoError(t, m.Set(ctx, key, []byte("v2")))
	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}

func TestDiskGetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := NewDisk(t.TempDir())
	key := testKey(4)

	_, err := d.Get(ctx, key)
	require.Error(t, err)

	require.NoError(t, d.Set(ctx, key, []byte("disk value")))
	got, err := d.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("disk value"), got)
}

func TestDiskSetIdempotent(t *testing.T) {
	ctx := context.Background()
	d := NewDisk(t.TempDir())
	key := testKey(5)
	require.NoError(t, d.Set(ctx, key, []byte("v")))
	require.NoError(t, d.Set(ctx, key, []byte("v")))
	got, err := d.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

func TestSplitReadsLocalFirstAndPopulatesOnMiss(t *testing.T) {
	ctx := context.Background()
	local := NewMemory()
	backing := NewMemory()
	split := NewSplit(local, backing)
	key := testKey(6)

	require.NoError(t, backing.Set(ctx, key, []byte("from backing")))

	got, err := split.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("from backing"), got)

	localGot, err := local.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("from backing"), localGot)
}

func TestSplitSetWritesThroughBoth(t *testing.T) {
	ctx := context.Background()
	local := NewMemory()
	backing := NewMemory()
	split := NewSplit(local, backing)
	key := testKey(7)

	require.NoError(t, split.Set(ctx, key, []byte("v")))

	localGot, err := local.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("v"), localGot)

	backingGot, err := backing.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("v"), backingGot)
}
