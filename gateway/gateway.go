// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/luxfi/ggst"
)

// Backend is the set of read operations the gateway exposes.
// *ggst.Client satisfies it.
type Backend interface {
	PlayerStats(ctx context.Context, playerID string) (string, error)
	PlayerAvatar(ctx context.Context, playerID string) ([]byte, error)
	Replays(ctx context.Context) ([]ggst.Replay, error)
}

// Client is a gateway client. Every transport returns the same interface.
type Client interface {
	Backend

	// Close closes the connection
	Close() error
}

// Server serves a Backend over one transport.
type Server interface {
	// Serve starts serving requests (blocks until context cancelled)
	Serve(ctx context.Context) error

	// Close stops the server
	Close() error

	// Addr returns the server's listen address
	Addr() string
}

// PlayerArgs selects a player.
type PlayerArgs struct {
	PlayerID string `json:"player_id"`
}

// StatsReply carries the statistics JSON document.
type StatsReply struct {
	JSON string `json:"json"`
}

// AvatarReply carries the avatar image.
type AvatarReply struct {
	PNG []byte `json:"png"`
}

// ReplaysArgs is empty; replay retrieval takes no parameters.
type ReplaysArgs struct{}

// ReplaysReply carries the concatenated replay pages.
type ReplaysReply struct {
	Replays []ggst.Replay `json:"replays"`
}

// RemoteError is a backend failure reported by the gateway server.
type RemoteError struct {
	Method  string
	Message string
	Fatal   bool
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Method, e.Message)
}

// DialOption configures client connections
type DialOption func(*dialOptions)

type dialOptions struct {
	transport  string
	httpClient *http.Client
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithHTTPClient sets the HTTP client used by the JSON transport
func WithHTTPClient(c *http.Client) DialOption {
	return func(o *dialOptions) { o.httpClient = c }
}

// ServerOption configures servers
type ServerOption func(*serverOptions)

type serverOptions struct {
	transport string
	logger    *slog.Logger
}

// WithServerTransport explicitly sets the transport type for the server
func WithServerTransport(t string) ServerOption {
	return func(o *serverOptions) { o.transport = t }
}

// WithServerLogger sets the logger for backend failures
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = l }
}

// Dial connects to a gateway using the default transport (JSON-RPC).
func Dial(ctx context.Context, addr string, opts ...DialOption) (Client, error) {
	o := &dialOptions{transport: DefaultTransport}
	for _, opt := range opts {
		opt(o)
	}
	entry, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	return entry.dial(ctx, addr, o)
}

// Listen binds addr and returns a server for backend. Call Serve to start
// handling requests.
func Listen(addr string, backend Backend, opts ...ServerOption) (Server, error) {
	o := &serverOptions{transport: DefaultTransport}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	entry, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	return entry.listen(addr, backend, o)
}
