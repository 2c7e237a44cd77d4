package core

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32

	ivSize  = 12
	tagSize = 16

	// TokenSize is the decoded envelope length: iv || tag || ciphertext.
	TokenSize = ivSize + tagSize + PayloadSize
)

// Cipher performs authenticated encryption of payloads into transportable
// token strings and back. Tokens are base64 raw-URL encoded so they survive
// QR rendering and URL transport unescaped.
//
// Envelope layout is iv (12) || authTag (16) || ciphertext (10). A fresh
// random IV is generated per encryption; reuse under one key would break
// GCM confidentiality and integrity.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// NewCipherFromHex creates a cipher from an operator-supplied hex key.
func NewCipherFromHex(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return NewCipher(key)
}

// NewSessionKey generates an ephemeral 32-byte key. A session key never
// leaves the issuing session's memory; tokens minted under it cannot be
// verified after the session ends.
func NewSessionKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}
	return key, nil
}

// Encrypt seals a payload into a token string.
func (c *Cipher) Encrypt(p Payload) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating IV: %w", err)
	}

	// Seal emits ciphertext || tag; the envelope wants iv || tag || ciphertext.
	sealed := c.aead.Seal(nil, iv, p.Encode(), nil)
	ct, tag := sealed[:PayloadSize], sealed[PayloadSize:]

	envelope := make([]byte, 0, TokenSize)
	envelope = append(envelope, iv...)
	envelope = append(envelope, tag...)
	envelope = append(envelope, ct...)

	return base64.RawURLEncoding.EncodeToString(envelope), nil
}

// Decrypt opens a token string back into its payload. Returns
// ErrMalformedToken when the encoding or length is wrong and
// ErrTokenAuthFailed when the authentication tag does not verify.
func (c *Cipher) Decrypt(token string) (Payload, error) {
	envelope, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if len(envelope) != TokenSize {
		return Payload{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedToken, TokenSize, len(envelope))
	}

	iv := envelope[:ivSize]
	tag := envelope[ivSize : ivSize+tagSize]
	ct := envelope[ivSize+tagSize:]

	// Reassemble the ciphertext || tag order Open expects.
	sealed := make([]byte, 0, PayloadSize+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return Payload{}, ErrTokenAuthFailed
	}

	return DecodePayload(plain)
}
