// Package dedup implements the session's replay/duplicate filter: a bounded
// FIFO of recently-seen ciphertexts used to drop exact-byte retransmissions.
// Two encryptions of the same plaintext produce different payloads (fresh
// random nonce), so exact byte equality only ever occurs for true
// retransmissions or replays, never for a user resending the same command.
package dedup

const maxEntries = 32

// Filter is an insertion-ordered sequence of up to maxEntries raw ciphertext
// byte strings, evicting the oldest entry on overflow. It is not safe for
// concurrent use; the session core is single-threaded and owns it
// exclusively.
type Filter struct {
	order []string
	seen  map[string]struct{}
}

func New() *Filter {
	return &Filter{
		seen: make(map[string]struct{}, maxEntries),
	}
}

// Admit reports whether payload has not been seen before and, if so, records
// it. A false return means the caller must drop the datagram without
// decoding it.
func (f *Filter) Admit(payload []byte) bool {
	key := string(payload)
	if _, dup := f.seen[key]; dup {
		return false
	}

	f.order = append(f.order, key)
	f.seen[key] = struct{}{}

	if len(f.order) > maxEntries {
		oldest := f.order[0]
		f.order = f.order[1:]
		delete(f.seen, oldest)
	}

	return true
}

// Len reports the current number of retained entries, for tests and metrics.
func (f *Filter) Len() int {
	return len(f.order)
}
