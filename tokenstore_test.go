// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestFileTokenStore(t *testing.T) {
	ctx := context.Background()
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "token.txt")}

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoStoredToken) {
		t.Fatalf("Load on missing file: got %v, want ErrNoStoredToken", err)
	}
	if err := store.Save(ctx, "tok-abc"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(store.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "tok-abc" {
		t.Errorf("file holds %q, want the bare token", data)
	}
	info, err := os.Stat(store.Path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode %o, want 600", perm)
	}

	if err := store.Save(ctx, "tok-def"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	token, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if token != "tok-def" {
		t.Errorf("got %q, want tok-def", token)
	}
}

func TestFileTokenStoreTrimsNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := os.WriteFile(path, []byte("tok-abc\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	token, err := FileTokenStore{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("got %q", token)
	}
}

func TestRedisTokenStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisTokenStore(client, DefaultRedisTokenKey)
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoStoredToken) {
		t.Fatalf("Load on empty redis: got %v, want ErrNoStoredToken", err)
	}
	if err := store.Save(ctx, "tok-abc"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, err := mr.Get(DefaultRedisTokenKey); err != nil || got != "tok-abc" {
		t.Errorf("redis holds %q (%v), want tok-abc", got, err)
	}
	token, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("got %q, want tok-abc", token)
	}
}

func TestRedisTokenStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	store := NewRedisTokenStore(client, DefaultRedisTokenKey)
	err := store.Save(context.Background(), "tok-abc")
	if err == nil || errors.Is(err, ErrNoStoredToken) {
		t.Fatalf("got %v, want a connection error", err)
	}
}

func TestNewTokenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     TokenStoreConfig
		want    interface{}
		wantErr bool
	}{
		{name: "file", cfg: TokenStoreConfig{Kind: TokenStoreFile, Path: "x.txt"}, want: FileTokenStore{Path: "x.txt"}},
		{name: "default", cfg: TokenStoreConfig{}, want: FileTokenStore{Path: DefaultTokenFile}},
		{name: "none", cfg: TokenStoreConfig{Kind: TokenStoreNone}, want: nopTokenStore{}},
		{name: "redis", cfg: TokenStoreConfig{Kind: TokenStoreRedis, RedisAddr: mr.Addr(), RedisKey: "k"}},
		{name: "unknown", cfg: TokenStoreConfig{Kind: "s3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeStore, err := NewTokenStore(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTokenStore: %v", err)
			}
			defer closeStore()

			if tt.want != nil && store != tt.want {
				t.Errorf("got %#v, want %#v", store, tt.want)
			}
			if _, ok := store.(*RedisTokenStore); tt.cfg.Kind == TokenStoreRedis && !ok {
				t.Errorf("got %T, want *RedisTokenStore", store)
			}
		})
	}
}

func TestClientPublishesTokenToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	up := newFakeUpstream(t)

	cfg := DefaultConfig()
	cfg.BaseURL = up.server.URL
	cfg.TokenStore = TokenStoreConfig{Kind: TokenStoreRedis, RedisAddr: mr.Addr(), RedisKey: "ggst:test"}
	logger, _ := testLogger()
	client, err := New(cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if _, err := client.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if got, err := mr.Get("ggst:test"); err != nil || got != "tok-abc" {
		t.Errorf("redis holds %q (%v), want tok-abc", got, err)
	}
}
