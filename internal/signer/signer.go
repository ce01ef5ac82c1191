// Package signer builds and checks the HMAC signatures that bind gateway
// payloads to the merchant secret.
//
// A payload is first encoded: serialized to compact JSON and base64-encoded.
// The signature is the lowercase hex HMAC-SHA256 of the encoded string.
// Both sides must produce the same encoded bytes for the same logical
// payload, so serialization is deterministic: struct fields keep their
// declaration order, map keys are sorted, and raw JSON is compacted with
// its key order preserved.
package signer

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashendes/payplus-connector/internal/apperrors"
)

// Envelope is a payload together with its encoding and signature
type Envelope struct {
	Payload        []byte
	EncodedPayload string
	Signature      string
}

// Signer signs and verifies payloads with one merchant secret
type Signer struct {
	secret []byte
}

// New returns a Signer for secret. An empty secret is a configuration error.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, apperrors.Configuration("merchant secret is not configured")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Encode serializes payload to canonical JSON and base64-encodes it
func Encode(payload any) (string, error) {
	raw, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Sign returns the lowercase hex HMAC-SHA256 of encodedPayload keyed by secret
func Sign(encodedPayload, secret string) (string, error) {
	s, err := New(secret)
	if err != nil {
		return "", err
	}
	return s.Sign(encodedPayload), nil
}

// Verify reports whether signature matches encodedPayload under secret
func Verify(encodedPayload, signature, secret string) (bool, error) {
	s, err := New(secret)
	if err != nil {
		return false, err
	}
	return s.Verify(encodedPayload, signature), nil
}

// Encode is the method form of the package-level Encode
func (s *Signer) Encode(payload any) (string, error) {
	return Encode(payload)
}

// Sign returns the lowercase hex HMAC-SHA256 of encodedPayload
func (s *Signer) Sign(encodedPayload string) string {
	return hex.EncodeToString(s.mac(encodedPayload))
}

// Verify recomputes the signature and compares in constant time.
// Hex case in the presented signature is ignored.
func (s *Signer) Verify(encodedPayload, signature string) bool {
	presented, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(s.mac(encodedPayload), presented)
}

// Seal encodes and signs payload in one step
func (s *Signer) Seal(payload any) (Envelope, error) {
	raw, err := canonicalJSON(payload)
	if err != nil {
		return Envelope{}, err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return Envelope{
		Payload:        raw,
		EncodedPayload: encoded,
		Signature:      s.Sign(encoded),
	}, nil
}

func (s *Signer) mac(encodedPayload string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(encodedPayload))
	return m.Sum(nil)
}

func canonicalJSON(payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
