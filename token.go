// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoginFunc performs one login exchange and returns the issued token.
type LoginFunc func(ctx context.Context) (string, error)

// TokenCache lazily acquires a session token and holds it for the life of
// its owner. Once populated it never empties.
//
// Concurrent callers that find the cache empty share one in-flight login.
type TokenCache struct {
	mu    sync.RWMutex
	token string

	group  singleflight.Group
	login  LoginFunc
	store  TokenStore
	logger *slog.Logger
}

// NewTokenCache creates an empty cache. A nil store disables persistence;
// a nil logger uses slog.Default.
func NewTokenCache(login LoginFunc, store TokenStore, logger *slog.Logger) *TokenCache {
	if store == nil {
		store = nopTokenStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenCache{
		login:  login,
		store:  store,
		logger: logger,
	}
}

// Peek returns the cached token without blocking on the network.
func (c *TokenCache) Peek() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.token != ""
}

// Get returns the cached token, logging in first if the cache is empty.
// A failed login leaves the cache empty; every waiter sees the same error.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	if token, ok := c.Peek(); ok {
		c.logger.Debug("already have a session token")
		return token, nil
	}

	// The shared login must not die with whichever caller started it.
	loginCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("token", func() (interface{}, error) {
		if token, ok := c.Peek(); ok {
			return token, nil
		}
		return c.populate(loginCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *TokenCache) populate(ctx context.Context) (string, error) {
	c.logger.Warn("acquiring session token")
	token, err := c.login(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: login returned an empty token", ErrTokenUnavailable)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.logger.Info("session token acquired")

	if err := c.store.Save(ctx, token); err != nil {
		c.logger.Debug("persisting session token failed", "error", err)
	}
	return token, nil
}
