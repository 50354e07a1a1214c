package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/opstack-da/celestia-fp/internal/hosthandler"
	"github.com/opstack-da/celestia-fp/internal/oracle"
	"github.com/opstack-da/celestia-fp/internal/pipeline"
	"github.com/opstack-da/celestia-fp/internal/provider"
	"github.com/opstack-da/celestia-fp/internal/source"
)

// hintFD and preimageFD are the pre-opened file descriptors --server
// attaches to, matching the fault-proof VM's client-program convention of
// handing the host two already-open duplex streams rather than letting it
// open its own sockets (spec.md §6 "Host↔guest channels").
const (
	hintFD     = 3
	preimageFD = 4
)

// serveFileDescriptors attaches to the pre-opened hint/preimage file
// descriptors and serves requests until the guest closes them or ctx is
// canceled.
func serveFileDescriptors(ctx context.Context, handler *hosthandler.Handler) error {
	hintFile := os.NewFile(hintFD, "hint")
	preimageFile := os.NewFile(preimageFD, "preimage")
	if hintFile == nil || preimageFile == nil {
		return fmt.Errorf("serve: pre-opened hint/preimage file descriptors not available")
	}
	return serve(ctx, handler, hintFile, preimageFile)
}

// serve reads newline-delimited hints off hintRW (fire-and-forget: the
// host fetches the witness and stores it, sending no reply) and preimage
// requests off preimageRW (a bare 32-byte key in, a 4-byte big-endian
// length plus that many bytes of preimage out), per
// spec.md §6's channel framing.
func serve(ctx context.Context, handler *hosthandler.Handler, hintRW, preimageRW io.ReadWriter) error {
	errc := make(chan error, 2)
	go func() { errc <- serveHints(ctx, handler, hintRW) }()
	go func() { errc <- servePreimages(ctx, handler, preimageRW) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errc:
		return err
	}
}

func serveHints(ctx context.Context, handler *hosthandler.Handler, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		hint := scanner.Text()
		if hint == "" {
			continue
		}
		if err := handler.FetchHint(ctx, hint); err != nil {
			log.Warn("fetch hint failed", "hint", hint, "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serve hints: %w", err)
	}
	return io.EOF
}

func servePreimages(ctx context.Context, handler *hosthandler.Handler, rw io.ReadWriter) error {
	for {
		var key oracle.PreimageKey
		if _, err := io.ReadFull(rw, key[:]); err != nil {
			if err == io.EOF {
				return io.EOF
			}
			return fmt.Errorf("serve preimages: read key: %w", err)
		}
		value, err := handler.Store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("serve preimages: key %x not found: %w", key, err)
		}
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(value)))
		if _, err := rw.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("serve preimages: write length: %w", err)
		}
		if _, err := rw.Write(value); err != nil {
			return fmt.Errorf("serve preimages: write value: %w", err)
		}
	}
}

// GuestRequest is the single batch-read this package's in-process guest
// mode drives through the pipeline once, standing in for whatever block the
// real fault-proof VM's derivation loop would currently be stepping through.
type GuestRequest struct {
	Block       source.BlockRef
	BatcherAddr [20]byte
}

// runInProcessGuest spawns three in-process pipes standing in for the
// hint channel (one pipe) and the preimage channel (one pipe per
// direction), runs the host's serving loop on one end, and
// on the other drives an actual guest-side pipeline (C6 provider, C7
// source adapter, C8 pipeline) through a single GuestRequest — the
// fault-proof VM's own derivation logic is out of scope here (spec.md §1),
// but the channel round trip it would drive is exercised for real instead
// of left dangling.
func runInProcessGuest(ctx context.Context, handler *hosthandler.Handler, base source.BaseSource, req GuestRequest) error {
	hintR, hintW := io.Pipe()
	keyR, keyW := io.Pipe()
	valR, valW := io.Pipe()

	hostPreimageRW := &pipeReadWriter{r: keyR, w: valW}
	guestPreimageRW := &pipeReadWriter{r: valR, w: keyW}
	guestComms := &pipeGuestComms{hintW: hintW, preimage: guestPreimageRW}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := serve(gctx, handler, hintR, hostPreimageRW)
		// Unblock the guest goroutine if it's mid read/write on either
		// pipe: the host side ending (cleanly or not) means there is
		// nothing left to serve the guest's next call.
		hintR.CloseWithError(err)
		keyR.CloseWithError(err)
		valW.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		err := runGuestPipeline(gctx, guestComms, base, req)
		hintW.CloseWithError(err)
		keyW.CloseWithError(err)
		valR.CloseWithError(err)
		return err
	})

	err := g.Wait()
	if errors.Is(err, io.EOF) || errors.Is(err, source.ErrEndOfSource) {
		return nil
	}
	return err
}

// runGuestPipeline wires the oracle-backed provider (C6), DA source adapter
// (C7), and pipeline composition (C8) over guestComms and drives a single
// Next call for req, logging the resulting batch or the error that stopped
// it — the production analogue of what this package's tests exercise
// against fakes.
func runGuestPipeline(ctx context.Context, guestComms oracle.CommsClient, base source.BaseSource, req GuestRequest) error {
	adapter := source.New(base, provider.New(guestComms))
	p := pipeline.New(adapter)

	data, err := p.Next(ctx, req.Block, req.BatcherAddr)
	if err != nil {
		return fmt.Errorf("guest pipeline: %w", err)
	}
	log.Info("guest pipeline fetched batch", "block", req.Block.Number, "bytes", len(data))
	return nil
}

// pipeGuestComms implements oracle.CommsClient over an in-process pipe
// pair: WriteHint sends a newline-terminated hint (matching serveHints'
// scanner framing) and Get writes the 32-byte key and reads back a
// length-prefixed preimage (matching servePreimages' framing), the guest-side counterpart to this
// file's host serving loop.
type pipeGuestComms struct {
	hintW    io.Writer
	preimage io.ReadWriter
}

func (c *pipeGuestComms) WriteHint(ctx context.Context, hint string) error {
	_, err := io.WriteString(c.hintW, hint+"\n")
	return err
}

func (c *pipeGuestComms) Get(ctx context.Context, key oracle.PreimageKey) ([]byte, error) {
	if _, err := c.preimage.Write(key[:]); err != nil {
		return nil, fmt.Errorf("guest comms: write preimage key: %w", err)
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.preimage, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("guest comms: read preimage length: %w", err)
	}
	value := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(c.preimage, value); err != nil {
		return nil, fmt.Errorf("guest comms: read preimage value: %w", err)
	}
	return value, nil
}

// pipeReadWriter adapts a pair of unidirectional pipe ends to io.ReadWriter
// for servePreimages's symmetric protocol.
type pipeReadWriter struct {
	r io.Reader
	w io.Writer
}

func (p *pipeReadWriter) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeReadWriter) Write(b []byte) (int, error) { return p.w.Write(b) }
