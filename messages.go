// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

// API endpoints, relative to the configured base URL.
const (
	EndpointStats   = "/api/statistics/get"
	EndpointAvatar  = "/api/tus/read"
	EndpointLogin   = "/api/user/login"
	EndpointReplays = "/api/catalog/get_replay"
)

// Platform identifiers used in request headers and replay records.
const (
	PlatformPS  = 1
	PlatformXB  = 2
	PlatformPC  = 3
	PlatformAny = 4
)

// Request is the envelope payload sent to every endpoint.
type Request[T any] struct {
	_msgpack struct{} `msgpack:",as_array"`

	Header RequestHeader
	Body   T
}

// RequestHeader identifies the caller. Token is empty for endpoints that
// don't require authentication.
type RequestHeader struct {
	_msgpack struct{} `msgpack:",as_array"`

	PlayerID      string
	Token         string
	Int1          int
	ClientVersion string
	Platform      int
}

// StatsRequest asks for one player's statistics document.
type StatsRequest struct {
	_msgpack struct{} `msgpack:",as_array"`

	PlayerID string
	Type     int
	SetType  int
	Page     int
	Season   int
	Filter   int
}

// AvatarRequest asks for a player's avatar image.
type AvatarRequest struct {
	_msgpack struct{} `msgpack:",as_array"`

	PlayerID string
	Slot     int
}

// LoginRequest exchanges platform credentials for a session token.
type LoginRequest struct {
	_msgpack struct{} `msgpack:",as_array"`

	Int1     int
	SteamID  string
	SteamHex string
	Int2     int
	String1  string
}

// ReplayRequest asks for one page of the replay catalog.
type ReplayRequest struct {
	_msgpack struct{} `msgpack:",as_array"`

	Int1    int
	Index   int
	PerPage int
	Query   ReplayQuery
}

// ReplayQuery filters the replay catalog. The zero-ish defaults from
// DefaultReplayQuery return every recent replay.
type ReplayQuery struct {
	_msgpack struct{} `msgpack:",as_array"`

	Int1           int
	PlayerSearch   int
	MinFloor       int
	MaxFloor       int
	Seq            []int
	Character1     int
	Character2     int
	BestBout       int
	Int2           int
	PrioritizeSelf int
}

// DefaultReplayQuery returns the unfiltered catalog query.
func DefaultReplayQuery() ReplayQuery {
	return ReplayQuery{
		Int1:       -1,
		MinFloor:   1,
		MaxFloor:   99,
		Seq:        []int{},
		Character1: -1,
		Character2: -1,
		Int2:       1,
	}
}

// Response is the decrypted payload of every endpoint's reply.
type Response[T any] struct {
	_msgpack struct{} `msgpack:",as_array"`

	Header ResponseHeader
	Body   T
}

// ResponseHeader carries status metadata. Token is set on login replies.
type ResponseHeader struct {
	_msgpack struct{} `msgpack:",as_array"`

	Token    string
	Status   int
	Date     string
	Version1 string
	Version2 string
	Version3 string
	String1  string
	String2  string
}

// StatsBody holds the statistics document as a JSON string.
type StatsBody struct {
	_msgpack struct{} `msgpack:",as_array"`

	Int1 int
	JSON string
}

// AvatarBody holds the raw avatar image.
type AvatarBody struct {
	_msgpack struct{} `msgpack:",as_array"`

	Int1 int
	PNG  []byte
}

// LoginBody describes the logged-in account.
type LoginBody struct {
	_msgpack struct{} `msgpack:",as_array"`

	Int1     int
	PlayerID string
	Name     string
	Platform int
}

// ReplaysBody is one page of the replay catalog.
type ReplaysBody struct {
	_msgpack struct{} `msgpack:",as_array"`

	Int1    int
	Index   int
	Total   int
	Replays []Replay
}

// Replay is one catalog entry.
type Replay struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID         uint64       `json:"id"`
	Int2       int          `json:"-"`
	Floor      int          `json:"floor"`
	Character1 int          `json:"character1"`
	Character2 int          `json:"character2"`
	Player1    ReplayPlayer `json:"player1"`
	Player2    ReplayPlayer `json:"player2"`
	Winner     int          `json:"winner"`
	Time       string       `json:"time"`
	Int7       int          `json:"-"`
	Views      int          `json:"views"`
	Int8       int          `json:"-"`
	Likes      int          `json:"likes"`
}

// ReplayPlayer is one side of a replay.
type ReplayPlayer struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID       string `json:"id"`
	Name     string `json:"name"`
	String1  string `json:"-"`
	String2  string `json:"-"`
	Platform int    `json:"platform"`
}
