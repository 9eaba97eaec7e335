// Package session drives the subscription/session state machine: the
// Authenticating → Identifying → Operating → Recovering progression (the
// socket is bound before a Session is constructed) that carries authentication, identification, message
// send/receive, acknowledgement bookkeeping, deauth-triggered
// re-subscription, and timestamp-validity flagging. It is single-threaded
// and cooperatively scheduled; it owns the transport, the pad, the
// duplicate filter, and the ack queue exclusively.
package session

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/diodelass/Teamech-Desktop/application"
	"github.com/diodelass/Teamech-Desktop/dedup"
	"github.com/diodelass/Teamech-Desktop/network"
	"github.com/diodelass/Teamech-Desktop/teacrypt"
)

// maxDatagramLen bounds the receive buffer; the protocol never sends
// anything close to this, it's just a generous ceiling against garbage
// traffic on the bound port.
const maxDatagramLen = 65507

// Config is the fully-resolved set of parameters the session needs to run.
type Config struct {
	ServerAddr *net.UDPAddr
	Pad        []byte
	Name       string
	Class      string
	ShowHex    bool
}

// Session is the core state machine. Construct with New and drive with Run.
type Session struct {
	transport application.Transport
	serverAddr *net.UDPAddr
	pad        []byte
	name       string
	class      string
	showHex    bool

	clock    application.Clock
	logger   application.Logger
	sink     application.LineSink
	source   application.LineSource
	recorder application.Recorder

	filter *dedup.Filter
	acks   ackQueue
	state  state
	sleep  func(time.Duration)
}

// New constructs a Session ready to Run. clock, logger, sink, source, and
// recorder are all required collaborators; transport is the bound UDP
// socket adapter.
func New(cfg Config, transport application.Transport, clock application.Clock, logger application.Logger, sink application.LineSink, source application.LineSource, recorder application.Recorder) *Session {
	return &Session{
		transport:  transport,
		serverAddr: cfg.ServerAddr,
		pad:        cfg.Pad,
		name:       cfg.Name,
		class:      cfg.Class,
		showHex:    cfg.ShowHex,
		clock:      clock,
		logger:     logger,
		sink:       sink,
		source:     source,
		recorder:   recorder,
		filter:     dedup.New(),
		state:      stateAuthenticating,
		sleep:      time.Sleep,
	}
}

// Run drives the state machine until ctx is cancelled or a clean ESCAPE
// shutdown occurs, returning nil on clean shutdown.
func (s *Session) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.recorder.SetState(s.state.String())

		var next state
		var err error
		switch s.state {
		case stateAuthenticating:
			next, err = s.authenticate(ctx)
		case stateIdentifying:
			next, err = s.identify()
		case stateOperating:
			next, err = s.operate(ctx)
		case stateRecovering:
			next, err = stateAuthenticating, nil
		default:
			return fmt.Errorf("session: unreachable state %v", s.state)
		}

		if err != nil {
			return err
		}
		s.state = next
		if s.state == stateDone {
			return nil
		}
	}
}

func (s *Session) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

// sendRaw encrypts rawBody with an appended timestamp and transmits it to
// the server.
func (s *Session) sendRaw(rawBody []byte) error {
	msg := teacrypt.AppendTimestamp(rawBody, s.clock.Now().UnixMilli())
	payload, err := teacrypt.Encrypt(msg, s.pad)
	if err != nil {
		return fmt.Errorf("encrypting outbound message: %w", err)
	}
	if err := s.transport.Send(payload, s.serverAddr); err != nil {
		return fmt.Errorf("sending outbound message: %w", err)
	}
	return nil
}

func addrEqual(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return false
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}

// authenticate implements the Authenticating state: emit an encrypted empty
// probe, poll up to authPollCount times at authPollInterval ms for a
// 25-byte signed reply from the server, and act on its status byte.
func (s *Session) authenticate(ctx context.Context) (state, error) {
	buf := make([]byte, maxDatagramLen)

	for {
		if ctx.Err() != nil {
			return stateDone, ctx.Err()
		}

		if err := s.sendRaw(nil); err != nil {
			s.logf("authenticate: send failed: %v", err)
			s.sleep(authRetryWaitMs * time.Millisecond)
			continue
		}

		accepted := false

		for i := 0; i < authPollCount; i++ {
			n, from, err := s.transport.Receive(buf)
			if err == network.ErrWouldBlock {
				s.sleep(authPollInterval * time.Millisecond)
				continue
			}
			if err != nil {
				s.logf("authenticate: receive error: %v", err)
				continue
			}
			if !addrEqual(from, s.serverAddr) {
				continue
			}
			if n != authReplyLen {
				continue
			}

			payload := append([]byte{}, buf[:n]...)
			valid, plaintext := teacrypt.Decrypt(payload, s.pad)
			if !valid {
				s.logf("authenticate: pad file incorrect or invalid")
				break
			}

			body, _, ok := teacrypt.SplitTimestamp(plaintext)
			if !ok || len(body) == 0 {
				continue
			}

			switch body[0] {
			case ctrlSubAccept:
				accepted = true
			case ctrlSubFull:
				s.logf("authenticate: subscription full/rejected")
			default:
				s.logf("authenticate: unknown status 0x%02x", body[0])
			}
			break
		}

		if accepted {
			return stateIdentifying, nil
		}

		// Covers both a definitive non-accept reply and no reply within
		// the poll window — either way the outer attempt waits 5s before
		// restarting the authenticate cycle.
		s.sleep(authRetryWaitMs * time.Millisecond)
	}
}

// identify implements the Identifying state: send name and class control
// messages, then move straight to Operating.
func (s *Session) identify() (state, error) {
	nameBody := append([]byte{ctrlIdentifyName}, []byte(s.name)...)
	classBody := append([]byte{ctrlIdentifyClass}, []byte(s.class)...)

	if err := s.sendRaw(nameBody); err != nil {
		s.logf("identify: sending name failed: %v", err)
		return stateRecovering, nil
	}
	if err := s.sendRaw(classBody); err != nil {
		s.logf("identify: sending class failed: %v", err)
		return stateRecovering, nil
	}

	return stateOperating, nil
}

// operate implements the Operating state: drain ingress to would-block,
// then process exactly one UI event, each tick.
func (s *Session) operate(ctx context.Context) (state, error) {
	buf := make([]byte, maxDatagramLen)

	for {
		if ctx.Err() != nil {
			return stateDone, ctx.Err()
		}

		for {
			n, from, err := s.transport.Receive(buf)
			if err == network.ErrWouldBlock {
				break
			}
			if err != nil {
				s.logf("operate: receive error: %v", err)
				break
			}
			if !addrEqual(from, s.serverAddr) {
				continue
			}
			if n <= minIngressLen {
				continue
			}

			payload := append([]byte{}, buf[:n]...)
			if !s.filter.Admit(payload) {
				s.recorder.IncDuplicate()
				continue
			}

			next, recovering := s.handleIngress(payload)
			if recovering {
				return next, nil
			}
		}

		if evt, ok := s.source.NextEvent(); ok {
			switch evt.Kind {
			case application.UIEventEscape:
				_ = s.sendRaw([]byte{ctrlCancel})
				return stateDone, nil
			case application.UIEventLine:
				if err := s.sendRaw([]byte(evt.Line)); err != nil {
					s.logf("operate: send failed: %v", err)
				} else {
					s.acks.push([]byte(evt.Line))
					s.recorder.IncSent()
				}
			}
		}

		s.sleep(operatingTickMs * time.Millisecond)
	}
}

// handleIngress decrypts and classifies one admitted datagram, applying the
// reply taxonomy and send-path validation-failure handling from the spec. It
// returns (nextState, true) if the session must transition out of Operating.
func (s *Session) handleIngress(payload []byte) (state, bool) {
	valid, plaintext := teacrypt.Decrypt(payload, s.pad)
	if !valid {
		s.recorder.IncInvalid()
		s.sink.PushLine(s.annotate("[INVALID SIGNATURE]", payload))
		if err := s.sendRaw([]byte{ctrlNak}); err != nil {
			s.logf("operate: sending NAK failed: %v", err)
		}
		s.sleep(nakWaitMs * time.Millisecond)
		return stateRecovering, true
	}

	body, msgTime, ok := teacrypt.SplitTimestamp(plaintext)
	if !ok {
		if err := s.sendRaw([]byte{ctrlSubstitute}); err != nil {
			s.logf("operate: sending SUBSTITUTE failed: %v", err)
		}
		return stateOperating, false
	}

	now := s.clock.Now().UnixMilli()
	reply := classifyBody(body)
	reply.Outdated = now-msgTime > timestampSkewMs
	reply.Future = msgTime-now > timestampSkewMs

	if reply.Outdated {
		s.recorder.IncOutdated()
	}
	if reply.Future {
		s.recorder.IncFuture()
	}

	// A control-byte interpretation only applies to a message that passed
	// the freshness check; a flagged message always falls through to the
	// user-display-and-ack path instead, whatever its first byte looks like.
	if reply.Outdated || reply.Future {
		sender, contents := splitSenderContents(body)
		reply.Kind = KindUser
		reply.Sender = sender
		reply.Contents = contents
	}

	switch reply.Kind {
	case KindExpire:
		return stateRecovering, true
	case KindReIdentify:
		nameBody := append([]byte{ctrlIdentifyName}, []byte(s.name)...)
		classBody := append([]byte{ctrlIdentifyClass}, []byte(s.class)...)
		_ = s.sendRaw(nameBody)
		_ = s.sendRaw(classBody)
		if head, ok := s.acks.peek(); ok {
			_ = s.sendRaw(head)
		}
	case KindAckOne:
		s.recorder.IncAckOne()
	case KindAckFan:
		s.recorder.IncAckFan(reply.FanoutCount)
		if head, ok := s.acks.pop(); ok {
			s.sink.PushLine(fmt.Sprintf("%s [fanout: %d]", string(head), reply.FanoutCount))
		}
	case KindNotice:
		s.sink.PushLine(s.annotate(string(reply.Contents), payload))
	case KindUser:
		line := fmt.Sprintf("%s%s: %s", reply.Sender, flagSuffix(reply), string(reply.Contents))
		s.sink.PushLine(s.annotate(line, payload))
		if err := s.sendRaw([]byte{ctrlAckOrNotice}); err != nil {
			s.logf("operate: sending ack failed: %v", err)
		}
	}

	return stateOperating, false
}

func flagSuffix(r Reply) string {
	switch {
	case r.Outdated:
		return "[OUTDATED]"
	case r.Future:
		return "[FUTURE]"
	default:
		return ""
	}
}

func (s *Session) annotate(line string, payload []byte) string {
	if !s.showHex {
		return line
	}
	return fmt.Sprintf("%s %x", line, payload)
}
