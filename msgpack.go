// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackCodec is the payload codec the upstream API speaks. Message types
// are declared with `msgpack:",as_array"` so they travel as positional
// arrays.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackCodec) Decode(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// Msgpack is the default payload codec
var Msgpack Codec = MsgpackCodec{}

// JSONCodec is a JSON-based codec, used for the stats document and by the
// gateway wire formats.
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// JSON is the shared JSONCodec value
var JSON Codec = JSONCodec{}
