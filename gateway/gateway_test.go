// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/luxfi/ggst"
)

type stubBackend struct {
	stats   map[string]string
	avatars map[string][]byte
	replays []ggst.Replay
	err     error
}

func (b *stubBackend) PlayerStats(_ context.Context, playerID string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	stats, ok := b.stats[playerID]
	if !ok {
		return "", ggst.ErrStatsUnavailable
	}
	return stats, nil
}

func (b *stubBackend) PlayerAvatar(_ context.Context, playerID string) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	png, ok := b.avatars[playerID]
	if !ok {
		return nil, ggst.ErrAvatarUnavailable
	}
	return png, nil
}

func (b *stubBackend) Replays(context.Context) ([]ggst.Replay, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.replays, nil
}

func startGateway(t *testing.T, transport string, backend Backend) Client {
	t.Helper()
	server, err := Listen("127.0.0.1:0", backend,
		WithServerTransport(transport),
		WithServerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})

	client, err := Dial(context.Background(), server.Addr(), WithTransport(transport))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGatewayRoundTrip(t *testing.T) {
	backend := &stubBackend{
		stats:   map[string]string{"1001": `{"rating":1500}`},
		avatars: map[string][]byte{"1001": {0x89, 'P', 'N', 'G', 0, 1, 2}},
		replays: []ggst.Replay{
			{ID: 1, Floor: 10, Player1: ggst.ReplayPlayer{ID: "a", Name: "Sol"}, Winner: 1},
			{ID: 2, Floor: 99, Player2: ggst.ReplayPlayer{ID: "b", Name: "Ky"}, Winner: 2},
		},
	}

	for _, transport := range AvailableTransports() {
		t.Run(transport, func(t *testing.T) {
			client := startGateway(t, transport, backend)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			stats, err := client.PlayerStats(ctx, "1001")
			if err != nil {
				t.Fatalf("PlayerStats: %v", err)
			}
			if stats != backend.stats["1001"] {
				t.Errorf("stats = %q", stats)
			}

			png, err := client.PlayerAvatar(ctx, "1001")
			if err != nil {
				t.Fatalf("PlayerAvatar: %v", err)
			}
			if !bytes.Equal(png, backend.avatars["1001"]) {
				t.Errorf("avatar = %x", png)
			}

			replays, err := client.Replays(ctx)
			if err != nil {
				t.Fatalf("Replays: %v", err)
			}
			if !reflect.DeepEqual(replays, backend.replays) {
				t.Errorf("replays = %+v, want %+v", replays, backend.replays)
			}
		})
	}
}

func TestGatewayRemoteErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{
			name: "recoverable",
			err:  ggst.ErrStatsUnavailable,
		},
		{
			name:  "fatal",
			err:   &ggst.CallError{Op: ggst.OpReplays, Endpoint: ggst.EndpointReplays, Err: ggst.ErrAuthentication},
			fatal: true,
		},
	}

	for _, transport := range AvailableTransports() {
		for _, tt := range tests {
			t.Run(transport+"/"+tt.name, func(t *testing.T) {
				client := startGateway(t, transport, &stubBackend{err: tt.err})
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				_, err := client.Replays(ctx)
				var remote *RemoteError
				if !errors.As(err, &remote) {
					t.Fatalf("got %T %v, want *RemoteError", err, err)
				}
				if remote.Fatal != tt.fatal {
					t.Errorf("Fatal = %v, want %v", remote.Fatal, tt.fatal)
				}
				if remote.Method != "Replays" {
					t.Errorf("Method = %q", remote.Method)
				}
				if remote.Message != tt.err.Error() {
					t.Errorf("Message = %q, want %q", remote.Message, tt.err.Error())
				}
			})
		}
	}
}

func TestAvailableTransports(t *testing.T) {
	want := []string{TransportGRPC, TransportJSON}
	if got := AvailableTransports(); !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableTransports() = %v, want %v", got, want)
	}
	if !HasTransport(DefaultTransport) {
		t.Error("default transport not registered")
	}
	if HasTransport("zap") {
		t.Error("unexpected transport zap")
	}
}

func TestUnknownTransport(t *testing.T) {
	if _, err := Dial(context.Background(), "127.0.0.1:1", WithTransport("carrier-pigeon")); err == nil {
		t.Error("Dial: expected error")
	}
	if _, err := Listen("127.0.0.1:0", &stubBackend{}, WithServerTransport("carrier-pigeon")); err == nil {
		t.Error("Listen: expected error")
	}
}
