package source

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opstack-da/celestia-fp/internal/oracle"
	"github.com/opstack-da/celestia-fp/internal/provider"
)

type fakeBaseSource struct {
	next func(ctx context.Context, ref BlockRef, batcherAddr [20]byte) ([]byte, error)
}

func (f *fakeBaseSource) Next(ctx context.Context, ref BlockRef, batcherAddr [20]byte) ([]byte, error) {
	return f.next(ctx, ref, batcherAddr)
}

type fakeComms struct {
	preimages map[oracle.PreimageKey][]byte
}

func (f *fakeComms) WriteHint(context.Context, string) error { return nil }

func (f *fakeComms) Get(_ context.Context, key oracle.PreimageKey) ([]byte, error) {
	v, ok := f.preimages[key]
	if !ok {
		return nil, errors.New("preimage not found")
	}
	return v, nil
}

func buildCelestiaDAPointer(height uint64, commitment [32]byte) []byte {
	pointer := make([]byte, pointerRecordLen)
	pointer[2] = CelestiaDAMarker
	binary.LittleEndian.PutUint64(pointer[3:11], height)
	copy(pointer[11:43], commitment[:])
	return pointer
}

func TestNextNonCelestiaDAPointerReturnsEndOfSource(t *testing.T) {
	base := &fakeBaseSource{next: func(context.Context, BlockRef, [20]byte) ([]byte, error) {
		return []byte{0x00, 0x00, 0x01}, nil
	}}
	celestia := provider.New(&fakeComms{})
	a := New(base, celestia)

	_, err := a.Next(context.Background(), BlockRef{}, [20]byte{})
	require.ErrorIs(t, err, ErrEndOfSource)
}

func TestNextShortPointerReturnsEndOfSource(t *testing.T) {
	base := &fakeBaseSource{next: func(context.Context, BlockRef, [20]byte) ([]byte, error) {
		return []byte{0x00, 0x00, CelestiaDAMarker}, nil
	}}
	celestia := provider.New(&fakeComms{})
	a := New(base, celestia)

	_, err := a.Next(context.Background(), BlockRef{}, [20]byte{})
	require.ErrorIs(t, err, ErrEndOfSource)
}

func TestNextPropagatesBaseSourceError(t *testing.T) {
	wantErr := errors.New("base source down")
	base := &fakeBaseSource{next: func(context.Context, BlockRef, [20]byte) ([]byte, error) {
		return nil, wantErr
	}}
	celestia := provider.New(&fakeComms{})
	a := New(base, celestia)

	_, err := a.Next(context.Background(), BlockRef{}, [20]byte{})
	require.ErrorIs(t, err, wantErr)
}

func TestNextDispatchesCelestiaDAPointer(t *testing.T) {
	var commitment [32]byte
	commitment[0] = 0x42
	const height = uint64(99)
	pointer := buildCelestiaDAPointer(height, commitment)

	base := &fakeBaseSource{next: func(context.Context, BlockRef, [20]byte) ([]byte, error) {
		return pointer, nil
	}}

	hintPayload := oracle.EncodeCelestiaDAPayload(height, commitment)
	key := oracle.CelestiaDAPreimageKey(hintPayload)
	comms := &fakeComms{preimages: map[oracle.PreimageKey][]byte{}}
	_ = key // the real preimage round trip is exercised in internal/provider; here we only verify dispatch wiring

	celestia := provider.New(comms)
	a := New(base, celestia)

	_, err := a.Next(context.Background(), BlockRef{}, [20]byte{})
	require.Error(t, err) // no preimage registered, but confirms the CelestiaDA path was taken, not ErrEndOfSource
	require.NotErrorIs(t, err, ErrEndOfSource)
}

func TestClearResetsState(t *testing.T) {
	a := New(&fakeBaseSource{}, provider.New(&fakeComms{}))
	a.bytesQueue = []byte("stale")
	a.open = true
	a.Clear()
	require.Nil(t, a.bytesQueue)
	require.False(t, a.open)
}
