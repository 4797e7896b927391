// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// Codec encodes/decodes API messages
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// NonceSize is the length of the nonce prefixed to every envelope.
const NonceSize = 12

// KeySize is the AES-256 key length.
const KeySize = 32

// ZeroNonce is the nonce the upstream server expects on every request.
//
// Reusing one nonce under a fixed key voids GCM's confidentiality and
// integrity guarantees across messages. The server rejects anything else,
// so it stays until the protocol changes.
var ZeroNonce = [NonceSize]byte{}

// Envelope is the authenticated-encryption framing used on the wire:
// nonce || AES-256-GCM(payload). Envelope holds no per-call state and is
// safe for concurrent use.
type Envelope struct {
	aead    cipher.AEAD
	nonce   [NonceSize]byte
	payload Codec
}

// EnvelopeOption configures an Envelope
type EnvelopeOption func(*Envelope)

// WithEnvelopePayloadCodec replaces the msgpack payload codec
func WithEnvelopePayloadCodec(c Codec) EnvelopeOption {
	return func(e *Envelope) { e.payload = c }
}

// NewEnvelope builds an envelope codec for the given 32-byte key. A bad
// key is the only way construction fails; sealing never fails afterwards.
func NewEnvelope(key []byte, opts ...EnvelopeOption) (*Envelope, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("envelope key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("envelope cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope gcm: %w", err)
	}
	e := &Envelope{
		aead:    aead,
		nonce:   ZeroNonce,
		payload: Msgpack,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Encode serializes v and returns nonce || ciphertext || tag.
func (e *Envelope) Encode(v interface{}) ([]byte, error) {
	plain, err := e.payload.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := make([]byte, NonceSize, NonceSize+len(plain)+e.aead.Overhead())
	copy(out, e.nonce[:])
	return e.aead.Seal(out, e.nonce[:], plain, nil), nil
}

// EncodeString returns the unpadded base64url form carried in the "data"
// form field.
func (e *Envelope) EncodeString(v interface{}) (string, error) {
	sealed, err := e.Encode(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens an envelope and deserializes its payload into v.
// Integrity failures return ErrAuthentication; payloads that decrypt but
// don't match v return a *MalformedPayloadError carrying the plaintext.
func (e *Envelope) Decode(data []byte, v interface{}) error {
	if len(data) < NonceSize+e.aead.Overhead() {
		return fmt.Errorf("%w: envelope is %d bytes", ErrAuthentication, len(data))
	}
	plain, err := e.aead.Open(nil, data[:NonceSize], data[NonceSize:], nil)
	if err != nil {
		return ErrAuthentication
	}
	if err := e.payload.Decode(plain, v); err != nil {
		return &MalformedPayloadError{Raw: plain, Err: err}
	}
	return nil
}

// DecodeString reverses EncodeString.
func (e *Envelope) DecodeString(wire string, v interface{}) error {
	data, err := base64.RawURLEncoding.DecodeString(wire)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return e.Decode(data, v)
}
