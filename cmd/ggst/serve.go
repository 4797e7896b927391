// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/luxfi/ggst"
	"github.com/luxfi/ggst/gateway"
)

const defaultListenAddr = "127.0.0.1:8765"

// fatalGuard stops the server when the backend reports a fatal-class
// failure, so the process exits and its supervisor restarts it.
type fatalGuard struct {
	gateway.Backend
	cancel context.CancelCauseFunc
}

func (g fatalGuard) check(err error) error {
	if ggst.IsFatal(err) {
		g.cancel(err)
	}
	return err
}

func (g fatalGuard) PlayerStats(ctx context.Context, playerID string) (string, error) {
	stats, err := g.Backend.PlayerStats(ctx, playerID)
	return stats, g.check(err)
}

func (g fatalGuard) PlayerAvatar(ctx context.Context, playerID string) ([]byte, error) {
	png, err := g.Backend.PlayerAvatar(ctx, playerID)
	return png, g.check(err)
}

func (g fatalGuard) Replays(ctx context.Context) ([]ggst.Replay, error) {
	replays, err := g.Backend.Replays(ctx)
	return replays, g.check(err)
}

func runServe(ctx context.Context, backend gateway.Backend, args []string, logger *slog.Logger, stderr io.Writer) error {
	return runServeWith(ctx, backend, args, logger, stderr, nil)
}

// runServeWith is runServe with a hook called once the listener is bound.
func runServeWith(ctx context.Context, backend gateway.Backend, args []string, logger *slog.Logger, stderr io.Writer, listening func(addr string)) error {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	listen := flags.String("listen", defaultListenAddr, "address to listen on")
	transport := flags.String("transport", gateway.DefaultTransport, "gateway transport: json or grpc")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if !gateway.HasTransport(*transport) {
		return fmt.Errorf("unknown transport %s; available: %s", *transport, strings.Join(gateway.AvailableTransports(), ", "))
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	server, err := gateway.Listen(*listen, fatalGuard{Backend: backend, cancel: cancel},
		gateway.WithServerTransport(*transport),
		gateway.WithServerLogger(logger),
	)
	if err != nil {
		return err
	}
	logger.Info("gateway listening", "addr", server.Addr(), "transport", *transport)
	if listening != nil {
		listening(server.Addr())
	}

	if err := server.Serve(ctx); err != nil {
		return err
	}
	if cause := context.Cause(ctx); ggst.IsFatal(cause) {
		return cause
	}
	logger.Info("gateway stopped")
	return nil
}
