package core

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// PayloadSize is the fixed wire size of an encoded payload.
const PayloadSize = 10

// Payload is the plaintext carried inside a presence token.
//
// Wire layout (10 bytes, positionally fixed):
//
//	offset 0: version (uint8)
//	offset 1: low 32 bits of the millisecond epoch timestamp, big-endian
//	offset 5: room code (uint8)
//	offset 6: 4 random nonce bytes
//
// The timestamp field wraps every ~49.7 days; callers compare tokens
// only within a single generator session, well inside the wrap period.
type Payload struct {
	Version     uint8
	TimestampMs uint32
	RoomCode    uint8
	Nonce       [4]byte
}

// NewPayload builds a payload for the given mint time. Only the low 32
// bits of timestampMs are retained. The nonce is drawn from crypto/rand.
func NewPayload(version uint8, timestampMs int64, roomCode uint8) (Payload, error) {
	p := Payload{
		Version:     version,
		TimestampMs: uint32(uint64(timestampMs)),
		RoomCode:    roomCode,
	}
	if _, err := rand.Read(p.Nonce[:]); err != nil {
		return Payload{}, fmt.Errorf("generating payload nonce: %w", err)
	}
	return p, nil
}

// Encode serializes the payload into its fixed 10-byte layout.
func (p Payload) Encode() []byte {
	buf := make([]byte, PayloadSize)
	buf[0] = p.Version
	binary.BigEndian.PutUint32(buf[1:5], p.TimestampMs)
	buf[5] = p.RoomCode
	copy(buf[6:], p.Nonce[:])
	return buf
}

// DecodePayload parses a 10-byte payload.
func DecodePayload(data []byte) (Payload, error) {
	if len(data) != PayloadSize {
		return Payload{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedPayload, PayloadSize, len(data))
	}

	p := Payload{
		Version:     data[0],
		TimestampMs: binary.BigEndian.Uint32(data[1:5]),
		RoomCode:    data[5],
	}
	copy(p.Nonce[:], data[6:])
	return p, nil
}
