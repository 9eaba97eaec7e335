package teacrypt

import (
	"bytes"
	"testing"
)

func testPad(n int) []byte {
	pad := make([]byte, n)
	for i := range pad {
		pad[i] = byte(i)
	}
	return pad
}

func TestRoundTrip(t *testing.T) {
	pad := testPad(4096)
	bodies := [][]byte{
		[]byte(""),
		[]byte("ping"),
		[]byte("a"),
		bytes.Repeat([]byte("x"), 200),
	}
	for _, body := range bodies {
		// Every message on the wire is body‖timestamp8, so even an empty body
		// yields a payload above the 16-byte rejection threshold.
		message := AppendTimestamp(body, 1234567890)
		payload, err := Encrypt(message, pad)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		valid, plain := Decrypt(payload, pad)
		if !valid {
			t.Fatalf("expected valid signature for body %q", body)
		}
		if !bytes.Equal(plain, message) {
			t.Fatalf("round trip mismatch: got %q want %q", plain, message)
		}
	}
}

func TestAuthenticationLawDifferentPads(t *testing.T) {
	padA := testPad(4096)
	padB := testPad(4097)
	payload, err := Encrypt([]byte("ping"), padA)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	valid, _ := Decrypt(payload, padB)
	if valid {
		t.Fatalf("expected invalid signature when pads differ")
	}
}

func TestNonceFreshness(t *testing.T) {
	pad := testPad(4096)
	p1, _ := Encrypt([]byte("ping"), pad)
	p2, _ := Encrypt([]byte("ping"), pad)
	n1 := p1[len(p1)-8:]
	n2 := p2[len(p2)-8:]
	if bytes.Equal(n1, n2) {
		t.Fatalf("two encryptions produced identical nonces")
	}
}

func TestKeystreamSensitivity(t *testing.T) {
	pad := testPad(4096)
	payload, _ := Encrypt([]byte("ping"), pad)
	for i := 0; i < len(payload)-8; i++ {
		mutated := append([]byte{}, payload...)
		mutated[i] ^= 0x01
		valid, _ := Decrypt(mutated, pad)
		if valid {
			t.Fatalf("flipping byte %d of body/signature still validated", i)
		}
	}
}

func TestSizeGate(t *testing.T) {
	pad := testPad(4096)
	valid, _ := Decrypt(make([]byte, 16), pad)
	if valid {
		t.Fatalf("payload shorter than 17 bytes must never validate")
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	body := AppendTimestamp([]byte("ping"), 1234567890)
	stripped, ts, ok := SplitTimestamp(body)
	if !ok {
		t.Fatalf("SplitTimestamp failed")
	}
	if string(stripped) != "ping" {
		t.Fatalf("got body %q", stripped)
	}
	if ts != 1234567890 {
		t.Fatalf("got timestamp %d", ts)
	}
}
