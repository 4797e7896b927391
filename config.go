// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the public game server.
const (
	DefaultBaseURL       = "https://ggst-game.guiltygear.com"
	DefaultKeyHex        = "EEBC1F57487F51921C0465665F8AE6D1658BB26DE6F8A069A3520293A572078F"
	DefaultUserAgent     = "GGST/Steam"
	DefaultClientVersion = "1"
	DefaultAppVersion    = "0.3.3"
	DefaultTokenFile     = "token.txt"
	DefaultRedisTokenKey = "ggst:token"
)

// Token store kinds.
const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
	TokenStoreNone  = "none"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvConfig   = "GGST_CONFIG"
	EnvBaseURL  = "GGST_BASE_URL"
	EnvSteamID  = "GGST_STEAM_ID"
	EnvSteamHex = "GGST_STEAM_HEX"
)

// Config holds everything a Client needs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// BaseURL is the API origin, without a trailing path.
	BaseURL string `yaml:"base_url"`

	// Key is the hex-encoded 256-bit envelope key shared with the server.
	Key string `yaml:"key"`

	// UserAgent identifies the client in the User-Agent header.
	UserAgent string `yaml:"user_agent"`

	// ClientVersion is sent in the x-client-version header.
	ClientVersion string `yaml:"client_version"`

	// AppVersion is sent inside every request header payload.
	AppVersion string `yaml:"app_version"`

	// Platform is the platform id reported in request headers.
	Platform int `yaml:"platform"`

	// Timeout bounds each HTTP exchange. Zero leaves the transport default
	// (no timeout).
	Timeout time.Duration `yaml:"timeout"`

	Credentials Credentials      `yaml:"credentials"`
	TokenStore  TokenStoreConfig `yaml:"token_store"`
}

// Credentials are the platform identity used for login.
type Credentials struct {
	SteamID  string `yaml:"steam_id"`
	SteamHex string `yaml:"steam_hex"`
}

// TokenStoreConfig selects where acquired tokens are persisted.
type TokenStoreConfig struct {
	// Kind is "file" (default), "redis" or "none".
	Kind string `yaml:"kind"`

	// Path is the token file for kind "file".
	Path string `yaml:"path"`

	// RedisAddr, RedisDB and RedisKey configure kind "redis".
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	RedisKey  string `yaml:"redis_key"`
}

// DefaultConfig returns a configuration for the public server.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Key:           DefaultKeyHex,
		UserAgent:     DefaultUserAgent,
		ClientVersion: DefaultClientVersion,
		AppVersion:    DefaultAppVersion,
		Platform:      PlatformPC,
		TokenStore: TokenStoreConfig{
			Kind:     TokenStoreFile,
			Path:     DefaultTokenFile,
			RedisKey: DefaultRedisTokenKey,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Unknown keys are
// rejected so typos don't silently fall back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := ParseConfig(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML into cfg, leaving unspecified fields untouched.
func ParseConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

// ApplyEnv overrides fields from GGST_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvSteamID); v != "" {
		c.Credentials.SteamID = v
	}
	if v := getenv(EnvSteamHex); v != "" {
		c.Credentials.SteamHex = v
	}
}

// Validate checks that the configuration can build a Client.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url %q: scheme must be http or https", c.BaseURL)
	}
	if _, err := c.KeyBytes(); err != nil {
		return err
	}
	if c.UserAgent == "" {
		return errors.New("user_agent must not be empty")
	}
	if c.ClientVersion == "" {
		return errors.New("client_version must not be empty")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	switch c.TokenStore.Kind {
	case TokenStoreFile:
		if c.TokenStore.Path == "" {
			return errors.New("token_store.path is required for kind file")
		}
	case TokenStoreRedis:
		if c.TokenStore.RedisAddr == "" {
			return errors.New("token_store.redis_addr is required for kind redis")
		}
		if c.TokenStore.RedisKey == "" {
			return errors.New("token_store.redis_key must not be empty")
		}
	case TokenStoreNone:
	default:
		return fmt.Errorf("token_store.kind %q: must be file, redis or none", c.TokenStore.Kind)
	}
	return nil
}

// KeyBytes decodes the hex envelope key.
func (c Config) KeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.Key)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key: must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}
