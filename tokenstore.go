// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNoStoredToken is returned by TokenStore.Load when nothing was saved.
var ErrNoStoredToken = errors.New("ggst: no stored token")

// TokenStore persists acquired session tokens as a side channel for other
// tools. The TokenCache only ever writes to it.
type TokenStore interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
}

// FileTokenStore writes the token verbatim to a local file.
type FileTokenStore struct {
	Path string
}

func (s FileTokenStore) Save(_ context.Context, token string) error {
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

func (s FileTokenStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoStoredToken
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoStoredToken
	}
	return token, nil
}

// RedisTokenStore publishes the token under a single key so several
// processes can observe the current session.
type RedisTokenStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisTokenStore wraps an existing redis client.
func NewRedisTokenStore(client redis.UniversalClient, key string) *RedisTokenStore {
	return &RedisTokenStore{client: client, key: key}
}

func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoStoredToken
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return token, nil
}

type nopTokenStore struct{}

func (nopTokenStore) Save(context.Context, string) error { return nil }

func (nopTokenStore) Load(context.Context) (string, error) { return "", ErrNoStoredToken }

// NewTokenStore builds the store selected by cfg. The returned close
// function releases any connection the store holds.
func NewTokenStore(cfg TokenStoreConfig) (TokenStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Kind {
	case TokenStoreFile, "":
		path := cfg.Path
		if path == "" {
			path = DefaultTokenFile
		}
		return FileTokenStore{Path: path}, noop, nil
	case TokenStoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		return NewRedisTokenStore(client, cfg.RedisKey), client.Close, nil
	case TokenStoreNone:
		return nopTokenStore{}, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store kind: %s", cfg.Kind)
	}
}
