package session

import (
	"net"
	"testing"
	"time"

	"github.com/diodelass/Teamech-Desktop/application"
	"github.com/diodelass/Teamech-Desktop/teacrypt"
)

func testPad(n int) []byte {
	pad := make([]byte, n)
	for i := range pad {
		pad[i] = byte(i)
	}
	return pad
}

type fakeTransport struct {
	sent [][]byte
}

func (f *fakeTransport) Send(payload []byte, _ *net.UDPAddr) error {
	f.sent = append(f.sent, append([]byte{}, payload...))
	return nil
}

func (f *fakeTransport) Receive([]byte) (int, *net.UDPAddr, error) {
	return 0, nil, nil
}

func (f *fakeTransport) Close() error { return nil }

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeSink struct{ lines []string }

func (s *fakeSink) PushLine(line string) { s.lines = append(s.lines, line) }

type fakeSource struct{ events []application.UIEvent }

func (s *fakeSource) NextEvent() (application.UIEvent, bool) {
	if len(s.events) == 0 {
		return application.UIEvent{}, false
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, true
}

type fakeRecorder struct {
	sent, ackOne, duplicate, invalid, outdated, future int
	lastFan                                            uint16
	lastState                                          string
}

func (r *fakeRecorder) SetState(s string)       { r.lastState = s }
func (r *fakeRecorder) IncSent()                { r.sent++ }
func (r *fakeRecorder) IncAckOne()              { r.ackOne++ }
func (r *fakeRecorder) IncAckFan(n uint16)      { r.lastFan = n }
func (r *fakeRecorder) IncDuplicate()           { r.duplicate++ }
func (r *fakeRecorder) IncInvalid()             { r.invalid++ }
func (r *fakeRecorder) IncOutdated()            { r.outdated++ }
func (r *fakeRecorder) IncFuture()              { r.future++ }

func newTestSession(pad []byte, clock application.Clock) (*Session, *fakeTransport, *fakeSink, *fakeRecorder) {
	transport := &fakeTransport{}
	sink := &fakeSink{}
	recorder := &fakeRecorder{}
	s := New(Config{
		ServerAddr: &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000},
		Pad:        pad,
		Name:       "human",
		Class:      "supervisor",
	}, transport, clock, nil, sink, &fakeSource{}, recorder)
	return s, transport, sink, recorder
}

func encryptedIngress(pad []byte, body []byte, when time.Time) []byte {
	msg := teacrypt.AppendTimestamp(body, when.UnixMilli())
	payload, err := teacrypt.Encrypt(msg, pad)
	if err != nil {
		panic(err)
	}
	return payload
}

func TestHandleIngressMessageAck(t *testing.T) {
	pad := testPad(4096)
	now := time.UnixMilli(1_700_000_000_000)
	s, transport, sink, recorder := newTestSession(pad, fakeClock{now: now})

	s.acks.push([]byte("ping"))

	payload := encryptedIngress(pad, []byte{ctrlAckOrNotice, 0x00, 0x03}, now)
	next, recovering := s.handleIngress(payload)
	if recovering || next != stateOperating {
		t.Fatalf("expected to remain Operating, got %v recovering=%v", next, recovering)
	}
	if recorder.lastFan != 3 {
		t.Fatalf("expected fanout count 3, got %d", recorder.lastFan)
	}
	if s.acks.len() != 0 {
		t.Fatalf("expected ack queue popped, len=%d", s.acks.len())
	}
	if len(sink.lines) != 1 {
		t.Fatalf("expected one reported line, got %v", sink.lines)
	}
	_ = transport
}

func TestHandleIngressSingleAckDoesNotPop(t *testing.T) {
	pad := testPad(4096)
	now := time.UnixMilli(1_700_000_000_000)
	s, _, _, recorder := newTestSession(pad, fakeClock{now: now})
	s.acks.push([]byte("ping"))

	payload := encryptedIngress(pad, []byte{ctrlAckOrNotice}, now)
	next, recovering := s.handleIngress(payload)
	if recovering || next != stateOperating {
		t.Fatalf("expected to remain Operating")
	}
	if recorder.ackOne != 1 {
		t.Fatalf("expected ackOne counted once")
	}
	if s.acks.len() != 1 {
		t.Fatalf("single-recipient ack must not pop the ack queue, len=%d", s.acks.len())
	}
}

func TestHandleIngressExpiryTriggersRecovering(t *testing.T) {
	pad := testPad(4096)
	now := time.UnixMilli(1_700_000_000_000)
	s, _, _, _ := newTestSession(pad, fakeClock{now: now})

	payload := encryptedIngress(pad, []byte{ctrlSubFull}, now)
	next, recovering := s.handleIngress(payload)
	if !recovering || next != stateRecovering {
		t.Fatalf("expected transition to Recovering, got %v recovering=%v", next, recovering)
	}
}

func TestHandleIngressFutureFlag(t *testing.T) {
	pad := testPad(4096)
	now := time.UnixMilli(1_700_000_000_000)
	msgTime := now.Add(30 * time.Second)
	s, _, sink, recorder := newTestSession(pad, fakeClock{now: now})

	payload := encryptedIngress(pad, []byte("kitchen online"), msgTime)
	next, recovering := s.handleIngress(payload)
	if recovering || next != stateOperating {
		t.Fatalf("a skewed-clock user message must not suppress processing")
	}
	if recorder.future != 1 {
		t.Fatalf("expected future flag counted")
	}
	if len(sink.lines) != 1 {
		t.Fatalf("expected the message to still be displayed, got %v", sink.lines)
	}
}

func TestHandleIngressInvalidSignatureSendsNak(t *testing.T) {
	padA := testPad(4096)
	padB := testPad(4097)
	now := time.UnixMilli(1_700_000_000_000)
	s, transport, sink, recorder := newTestSession(padA, fakeClock{now: now})
	s.sleep = func(time.Duration) {}

	payload := encryptedIngress(padB, []byte("anything"), now)
	next, recovering := s.handleIngress(payload)
	if !recovering || next != stateRecovering {
		t.Fatalf("invalid signature must force Recovering")
	}
	if recorder.invalid != 1 {
		t.Fatalf("expected invalid-signature counted")
	}
	if len(sink.lines) != 1 || sink.lines[0] != "[INVALID SIGNATURE]" {
		t.Fatalf("expected invalid-signature flag on sink, got %v", sink.lines)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected a NAK to be sent, got %d sends", len(transport.sent))
	}
}

func TestHandleIngressFlaggedExpireFallsThroughToDisplay(t *testing.T) {
	pad := testPad(4096)
	now := time.UnixMilli(1_700_000_000_000)
	msgTime := now.Add(-30 * time.Second)
	s, transport, sink, recorder := newTestSession(pad, fakeClock{now: now})

	payload := encryptedIngress(pad, []byte{ctrlSubFull}, msgTime)
	next, recovering := s.handleIngress(payload)
	if recovering || next != stateOperating {
		t.Fatalf("a stale control byte must not drive a control transition, got %v recovering=%v", next, recovering)
	}
	if recorder.outdated != 1 {
		t.Fatalf("expected outdated flag counted")
	}
	if len(sink.lines) != 1 {
		t.Fatalf("expected the flagged message to be displayed instead, got %v", sink.lines)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected an ack to be sent for the displayed message, got %d sends", len(transport.sent))
	}
}

func TestHandleIngressFlaggedAckFanDoesNotPop(t *testing.T) {
	pad := testPad(4096)
	now := time.UnixMilli(1_700_000_000_000)
	msgTime := now.Add(30 * time.Second)
	s, _, sink, recorder := newTestSession(pad, fakeClock{now: now})
	s.acks.push([]byte("ping"))

	payload := encryptedIngress(pad, []byte{ctrlAckOrNotice, 0x00, 0x03}, msgTime)
	next, recovering := s.handleIngress(payload)
	if recovering || next != stateOperating {
		t.Fatalf("expected to remain Operating")
	}
	if recorder.future != 1 {
		t.Fatalf("expected future flag counted")
	}
	if s.acks.len() != 1 {
		t.Fatalf("a flagged ack-shaped message must not pop the ack queue, len=%d", s.acks.len())
	}
	if len(sink.lines) != 1 {
		t.Fatalf("expected the flagged message to be displayed instead, got %v", sink.lines)
	}
}

func TestReplayDroppedByDuplicateFilter(t *testing.T) {
	pad := testPad(4096)
	now := time.UnixMilli(1_700_000_000_000)
	s, _, _, recorder := newTestSession(pad, fakeClock{now: now})

	payload := encryptedIngress(pad, []byte("kitchen ping"), now)
	if !s.filter.Admit(payload) {
		t.Fatalf("first admission should succeed")
	}
	if s.filter.Admit(payload) {
		t.Fatalf("replayed payload should be dropped")
	}
	_ = recorder
}
