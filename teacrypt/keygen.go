package teacrypt

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// seedRounds is the fixed number of hash-chain iterations used to derive the
// 8-byte seed from the nonce. This is a protocol constant, not a tunable.
const seedRounds = 8

// keygen derives a keystream of length keysize and the 8-byte seed used for
// signing, from an 8-byte nonce and the shared pad. Both chains index into
// the pad by truncating the SHA3-256 digest to its first 8 bytes and only
// then taking the modulus against the pad length — computing the modulus of
// the full 32-byte digest yields a different, incompatible index, so this
// order must never change.
func keygen(nonce [8]byte, pad []byte, keysize int) (key []byte, seed [8]byte) {
	seednonce := nonce
	for i := 0; i < seedRounds; i++ {
		var prev []byte
		if i >= 1 {
			prev = []byte{seed[i-1]}
		}
		h := sha3.Sum256(concat(nonce[:], seednonce[:], prev))
		seednonce = truncate8(h)
		idx := padIndex(seednonce, len(pad))
		seed[i] = pad[idx]
	}

	key = make([]byte, 0, keysize)
	keynonce := seed
	for i := 0; i < keysize; i++ {
		var prev []byte
		if i >= 1 {
			prev = []byte{key[i-1]}
		}
		h := sha3.Sum256(concat(seed[:], keynonce[:], prev))
		keynonce = truncate8(h)
		idx := padIndex(keynonce, len(pad))
		key = append(key, pad[idx])
	}

	return key, seed
}

func truncate8(h [32]byte) [8]byte {
	var out [8]byte
	copy(out[:], h[:8])
	return out
}

func padIndex(nonce [8]byte, padLen int) uint64 {
	return binary.LittleEndian.Uint64(nonce[:]) % uint64(padLen)
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
