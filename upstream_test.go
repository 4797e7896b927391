// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"bytes"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeUpstream speaks the real envelope protocol so the client can be
// exercised end to end without the game server.
type fakeUpstream struct {
	t        *testing.T
	envelope *Envelope
	server   *httptest.Server

	logins atomic.Int32

	mu          sync.Mutex
	token       string
	stats       map[string]string
	avatars     map[string][]byte
	pages       [][]Replay
	requested   []int
	tokensSeen  []string
	lastHeader  http.Header
	failPage    int
	failMode    string
	failOn      map[string]string
	loginBlock  chan struct{}
	loginCalled chan struct{}
}

// Failure modes for fakeUpstream.failOn / failMode.
const (
	failGarbage   = "garbage"   // bytes that don't authenticate
	failMalformed = "malformed" // authenticates, wrong shape
	failStatus    = "status"    // HTTP 500
)

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	key, err := hex.DecodeString(DefaultKeyHex)
	if err != nil {
		t.Fatalf("decode key: %v", err)
	}
	envelope, err := NewEnvelope(key)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	up := &fakeUpstream{
		t:        t,
		envelope: envelope,
		token:    "tok-abc",
		stats:    map[string]string{},
		avatars:  map[string][]byte{},
		failPage: -1,
		failOn:   map[string]string{},
	}
	up.server = httptest.NewServer(http.HandlerFunc(up.handle))
	t.Cleanup(up.server.Close)
	return up
}

func (up *fakeUpstream) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data := r.PostForm.Get("data")

	up.mu.Lock()
	up.lastHeader = r.Header.Clone()
	mode := up.failOn[r.URL.Path]
	up.mu.Unlock()

	switch r.URL.Path {
	case EndpointStats:
		var req Request[StatsRequest]
		up.decode(data, &req)
		up.mu.Lock()
		body := StatsBody{JSON: up.stats[req.Body.PlayerID]}
		up.mu.Unlock()
		up.reply(w, mode, ResponseHeader{}, body)

	case EndpointAvatar:
		var req Request[AvatarRequest]
		up.decode(data, &req)
		up.mu.Lock()
		body := AvatarBody{PNG: up.avatars[req.Body.PlayerID]}
		up.mu.Unlock()
		up.reply(w, mode, ResponseHeader{}, body)

	case EndpointLogin:
		var req Request[LoginRequest]
		up.decode(data, &req)
		up.logins.Add(1)
		up.mu.Lock()
		block, called, token := up.loginBlock, up.loginCalled, up.token
		up.mu.Unlock()
		if called != nil {
			select {
			case called <- struct{}{}:
			default:
			}
		}
		if block != nil {
			<-block
		}
		up.reply(w, mode, ResponseHeader{Token: token}, LoginBody{PlayerID: req.Body.SteamID})

	case EndpointReplays:
		var req Request[ReplayRequest]
		up.decode(data, &req)
		up.mu.Lock()
		up.requested = append(up.requested, req.Body.Index)
		up.tokensSeen = append(up.tokensSeen, req.Header.Token)
		if req.Body.Index == up.failPage {
			mode = up.failMode
		}
		var page []Replay
		if req.Body.Index < len(up.pages) {
			page = up.pages[req.Body.Index]
		}
		up.mu.Unlock()
		up.reply(w, mode, ResponseHeader{}, ReplaysBody{Index: req.Body.Index, Replays: page})

	default:
		http.NotFound(w, r)
	}
}

func (up *fakeUpstream) decode(data string, v interface{}) {
	if err := up.envelope.DecodeString(data, v); err != nil {
		up.t.Errorf("upstream could not decode request: %v", err)
	}
}

func (up *fakeUpstream) reply(w http.ResponseWriter, mode string, header ResponseHeader, body interface{}) {
	var payload interface{} = Response[any]{Header: header, Body: body}
	switch mode {
	case failStatus:
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
		return
	case failGarbage:
		w.Write(bytes.Repeat([]byte{0x5a}, 64))
		return
	case failMalformed:
		payload = "not a response"
	}
	sealed, err := up.envelope.Encode(payload)
	if err != nil {
		up.t.Errorf("upstream could not encode response: %v", err)
		return
	}
	w.Write(sealed)
}

func (up *fakeUpstream) requestedPages() []int {
	up.mu.Lock()
	defer up.mu.Unlock()
	return append([]int(nil), up.requested...)
}

// testLogger returns a logger writing into a buffer the test can inspect.
func testLogger() (*slog.Logger, *lockedBuffer) {
	buf := &lockedBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestClient(t *testing.T, up *fakeUpstream, opts ...Option) (*Client, *lockedBuffer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = up.server.URL
	cfg.TokenStore.Kind = TokenStoreNone
	cfg.Credentials = Credentials{SteamID: "76561198000000000", SteamHex: "110000100000000"}

	logger, logs := testLogger()
	client, err := New(cfg, append([]Option{WithLogger(logger)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, logs
}

// configure mutates upstream state under its lock.
func (up *fakeUpstream) configure(fn func(up *fakeUpstream)) {
	up.mu.Lock()
	defer up.mu.Unlock()
	fn(up)
}
