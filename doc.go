// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ggst is a client for the game's private statistics API.
//
// # Wire protocol
//
// Every request is a msgpack payload sealed with AES-256-GCM under a fixed
// shared key, framed as nonce || ciphertext || tag, base64url-encoded and
// posted as the "data" field of a form. Responses come back as raw
// nonce || ciphertext || tag and decode into a header plus an
// endpoint-specific body.
//
// The server only accepts an all-zero nonce. Nonce reuse under one key
// weakens GCM for every message sent with it; see ZeroNonce.
//
// # Usage
//
//	cfg := ggst.DefaultConfig()
//	cfg.ApplyEnv(os.Getenv)
//
//	client, err := ggst.New(cfg, ggst.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	stats, err := client.PlayerStats(ctx, "210611080104954497")
//	if errors.Is(err, ggst.ErrStatsUnavailable) {
//	    // degrade gracefully
//	}
//
//	replays, err := client.Replays(ctx)
//	if ggst.IsFatal(err) {
//	    // login or replay retrieval failed; restart or back off
//	}
//
// # Architecture
//
//   - codec.go: Codec interface and the Envelope framing
//   - msgpack.go: payload codecs
//   - token.go: TokenCache, one shared in-flight login
//   - tokenstore.go: best-effort token persistence (file, redis)
//   - client.go: Client and the per-endpoint operations
//   - http.go: form POST Transport
//   - replays.go: sequential, fail-fast replay pagination
//
// Login and replay failures are reported as *CallError values for which
// IsFatal is true. Deciding whether that means restarting the process is
// left to the caller.
package ggst
