// Package teacrypt implements the pad-indexed authenticated-encryption codec
// ("Teacrypt") that the session core uses for every datagram it sends or
// receives. It is a pure function of (payload bytes, pad bytes): no I/O, no
// state, no retained keys.
package teacrypt

import (
	"crypto/rand"
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

const (
	nonceLen = 8
	sigLen   = 8
	// minPayloadLen is the smallest a decryptable payload can be: at least
	// one message byte besides the signature and nonce, so anything of
	// nonce+signature length (16 bytes) or shorter is rejected outright.
	minPayloadLen = nonceLen + sigLen + 1
)

// Encrypt draws a fresh random nonce, derives a keystream and seed from it
// and the pad, signs message with SHA3-256, and returns ciphertext‖nonce
// ready to put on the wire. message is the already-timestamped plaintext
// (body‖timestamp8); Encrypt itself is agnostic to that structure. It fails
// only if the system random source is unavailable.
func Encrypt(message []byte, pad []byte) ([]byte, error) {
	var nonce [8]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	key, seed := keygen(nonce, pad, len(message)+sigLen)
	sigFull := sha3.Sum256(concat(seed[:], message, key))
	sig := sigFull[:sigLen]

	plain := concat(message, sig)
	cipher := xorBytes(plain, key)

	out := make([]byte, 0, len(cipher)+nonceLen)
	out = append(out, cipher...)
	out = append(out, nonce[:]...)
	return out, nil
}

// Decrypt never rejects on structure unless the payload is shorter than
// minPayloadLen; it always returns a plaintext message (body‖timestamp8,
// still combined) and a validity flag, leaving the policy decision (log,
// drop, NAK) to the caller.
func Decrypt(payload []byte, pad []byte) (valid bool, plaintext []byte) {
	if len(payload) < minPayloadLen {
		return false, nil
	}

	nonceStart := len(payload) - nonceLen
	var nonce [8]byte
	copy(nonce[:], payload[nonceStart:])
	cipher := payload[:nonceStart]
	keysize := len(cipher)

	key, seed := keygen(nonce, pad, keysize)
	plain := xorBytes(cipher, key)

	sigStart := len(plain) - sigLen
	receivedSig := plain[sigStart:]
	message := plain[:sigStart]

	trueSigFull := sha3.Sum256(concat(seed[:], message, key))
	trueSig := trueSigFull[:sigLen]

	return constTimeEqual(receivedSig, trueSig), message
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func constTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// AppendTimestamp appends an 8-byte little-endian signed millisecond
// timestamp to body, matching the wire format every outbound message body
// carries before encryption.
func AppendTimestamp(body []byte, unixMillis int64) []byte {
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(unixMillis))
	return append(append([]byte{}, body...), ts[:]...)
}

// SplitTimestamp reverses AppendTimestamp, separating the trailing 8-byte
// millisecond timestamp from the message body.
func SplitTimestamp(message []byte) (body []byte, unixMillis int64, ok bool) {
	if len(message) < 8 {
		return nil, 0, false
	}
	split := len(message) - 8
	ts := int64(binary.LittleEndian.Uint64(message[split:]))
	return message[:split], ts, true
}
