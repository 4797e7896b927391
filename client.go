// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Client talks to the game's statistics API. A Client owns its token
// cache; share one Client between goroutines rather than creating many.
type Client struct {
	envelope    *Envelope
	transport   Transport
	tokens      *TokenCache
	credentials Credentials
	appVersion  string
	platform    int
	logger      *slog.Logger
	closeStore  func() error
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	transport  Transport
	logger     *slog.Logger
	store      TokenStore
	codec      Codec
}

// WithHTTPClient sets the HTTP client used by the default transport
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithTransport replaces the HTTP transport entirely
func WithTransport(t Transport) Option {
	return func(o *clientOptions) { o.transport = t }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithTokenStore overrides the store built from Config.TokenStore
func WithTokenStore(s TokenStore) Option {
	return func(o *clientOptions) { o.store = s }
}

// WithPayloadCodec sets the codec used inside the envelope
func WithPayloadCodec(c Codec) Option {
	return func(o *clientOptions) { o.codec = c }
}

// New validates cfg and builds a Client. The token store is built from
// cfg.TokenStore unless WithTokenStore is given.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.codec == nil {
		o.codec = Msgpack
	}
	closeStore := func() error { return nil }
	if o.store == nil {
		store, closer, err := NewTokenStore(cfg.TokenStore)
		if err != nil {
			return nil, err
		}
		o.store, closeStore = store, closer
	}
	if o.transport == nil {
		hc := o.httpClient
		if hc == nil {
			hc = &http.Client{Timeout: cfg.Timeout}
		}
		o.transport = NewHTTPTransport(hc, cfg.BaseURL, cfg.UserAgent, cfg.ClientVersion)
	}

	key, err := cfg.KeyBytes()
	if err != nil {
		closeStore()
		return nil, err
	}
	envelope, err := NewEnvelope(key, WithEnvelopePayloadCodec(o.codec))
	if err != nil {
		closeStore()
		return nil, err
	}

	c := &Client{
		envelope:    envelope,
		transport:   o.transport,
		credentials: cfg.Credentials,
		appVersion:  cfg.AppVersion,
		platform:    cfg.Platform,
		logger:      o.logger,
		closeStore:  closeStore,
	}
	c.tokens = NewTokenCache(c.Login, o.store, o.logger)
	return c, nil
}

// Close releases the token store connection, if any.
func (c *Client) Close() error {
	return c.closeStore()
}

// Tokens exposes the client's token cache.
func (c *Client) Tokens() *TokenCache {
	return c.tokens
}

// Token returns the session token, logging in on first use.
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.tokens.Get(ctx)
}

func (c *Client) header(token string) RequestHeader {
	return RequestHeader{
		Token:         token,
		Int1:          2,
		ClientVersion: c.appVersion,
		Platform:      c.platform,
	}
}

// call runs one encode → exchange → decode cycle.
func (c *Client) call(ctx context.Context, endpoint string, request, response interface{}) error {
	logger := c.logger.With("call_id", uuid.NewString(), "endpoint", endpoint)

	data, err := c.envelope.EncodeString(request)
	if err != nil {
		return err
	}

	body, err := c.transport.Exchange(ctx, endpoint, data)
	if err != nil {
		logger.Error("exchange failed", "error", err)
		return err
	}

	if err := c.envelope.Decode(body, response); err != nil {
		var malformed *MalformedPayloadError
		if errors.As(err, &malformed) {
			logger.Error("error in received msgpack", "error", err, "raw", malformed.Hex())
		} else {
			logger.Error("decrypting response failed", "error", err, "bytes", len(body))
		}
		return err
	}
	logger.Debug("call completed", "bytes", len(body))
	return nil
}

// PlayerStats returns the player's statistics document as a JSON string.
// Failures are recoverable and match ErrStatsUnavailable.
func (c *Client) PlayerStats(ctx context.Context, playerID string) (string, error) {
	request := Request[StatsRequest]{
		Header: c.header(""),
		Body: StatsRequest{
			PlayerID: playerID,
			Type:     1,
			SetType:  -1,
			Page:     -1,
			Season:   -1,
			Filter:   -1,
		},
	}
	var response Response[StatsBody]
	if err := c.call(ctx, EndpointStats, &request, &response); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStatsUnavailable, &CallError{Op: OpStats, Endpoint: EndpointStats, Err: err})
	}
	return response.Body.JSON, nil
}

// PlayerAvatar returns the player's avatar image bytes.
// Failures are recoverable and match ErrAvatarUnavailable.
func (c *Client) PlayerAvatar(ctx context.Context, playerID string) ([]byte, error) {
	request := Request[AvatarRequest]{
		Header: c.header(""),
		Body: AvatarRequest{
			PlayerID: playerID,
			Slot:     6,
		},
	}
	var response Response[AvatarBody]
	if err := c.call(ctx, EndpointAvatar, &request, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAvatarUnavailable, &CallError{Op: OpAvatar, Endpoint: EndpointAvatar, Err: err})
	}
	return response.Body.PNG, nil
}

// Login performs a login exchange and returns the issued token. It does
// not touch the token cache; use Token for cached access. Failures are
// fatal-class (see IsFatal).
func (c *Client) Login(ctx context.Context) (string, error) {
	request := Request[LoginRequest]{
		Header: c.header(""),
		Body: LoginRequest{
			Int1:     1,
			SteamID:  c.credentials.SteamID,
			SteamHex: c.credentials.SteamHex,
			Int2:     256,
		},
	}
	var response Response[LoginBody]
	if err := c.call(ctx, EndpointLogin, &request, &response); err != nil {
		return "", &CallError{Op: OpLogin, Endpoint: EndpointLogin, Err: err}
	}
	return response.Header.Token, nil
}

// ReplayPage fetches one page of the replay catalog with the given token.
// Failures are fatal-class (see IsFatal).
func (c *Client) ReplayPage(ctx context.Context, token string, index, size int) ([]Replay, error) {
	request := Request[ReplayRequest]{
		Header: c.header(token),
		Body: ReplayRequest{
			Int1:    1,
			Index:   index,
			PerPage: size,
			Query:   DefaultReplayQuery(),
		},
	}
	var response Response[ReplaysBody]
	if err := c.call(ctx, EndpointReplays, &request, &response); err != nil {
		return nil, &CallError{Op: OpReplays, Endpoint: EndpointReplays, Err: fmt.Errorf("page %d: %w", index, err)}
	}
	return response.Body.Replays, nil
}
