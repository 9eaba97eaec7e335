// Package metrics tracks process-local accounting counters for the session
// core: messages sent, acks received, duplicates dropped, invalid-signature
// datagrams, and timestamp-skew flags, plus the current session state as a
// label. This is a desktop console, not a server, so the registry is read
// in-process by the terminal UI's status line rather than scraped over
// HTTP — but it is still built on the same client library the rest of the
// example corpus uses for process instrumentation.
package metrics

import (
	"sync"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

var knownStates = []string{"binding", "authenticating", "identifying", "operating", "recovering", "done"}

// Registry implements application.Recorder against a private prometheus
// registry (never the global default registry, to keep this package safe to
// construct more than once, e.g. in tests).
type Registry struct {
	reg *prometheus.Registry

	sent      prometheus.Counter
	ackOne    prometheus.Counter
	ackFan    prometheus.Counter
	duplicate prometheus.Counter
	invalid   prometheus.Counter
	outdated  prometheus.Counter
	future    prometheus.Counter
	state     *prometheus.GaugeVec

	mu         sync.Mutex
	lastFanout uint16
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := prometheus.WrapRegistererWith(nil, reg)

	r := &Registry{
		reg: reg,
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamech_messages_sent_total",
			Help: "Number of command lines sent to the relay server.",
		}),
		ackOne: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamech_acks_single_total",
			Help: "Number of single-recipient acknowledgements received.",
		}),
		ackFan: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamech_acks_fanout_total",
			Help: "Number of fanout acknowledgements received.",
		}),
		duplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamech_duplicates_dropped_total",
			Help: "Number of ingress datagrams dropped as exact duplicates.",
		}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamech_invalid_signatures_total",
			Help: "Number of ingress datagrams with an invalid signature.",
		}),
		outdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamech_messages_outdated_total",
			Help: "Number of messages flagged OUTDATED by timestamp skew.",
		}),
		future: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamech_messages_future_total",
			Help: "Number of messages flagged FUTURE by timestamp skew.",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "teamech_session_state",
			Help: "1 for the current session state, 0 for all others.",
		}, []string{"state"}),
	}

	factory.MustRegister(r.sent, r.ackOne, r.ackFan, r.duplicate, r.invalid, r.outdated, r.future, r.state)
	for _, name := range knownStates {
		r.state.WithLabelValues(name).Set(0)
	}

	return r
}

func (r *Registry) SetState(s string) {
	for _, name := range knownStates {
		if name == s {
			r.state.WithLabelValues(name).Set(1)
		} else {
			r.state.WithLabelValues(name).Set(0)
		}
	}
}

func (r *Registry) IncSent()   { r.sent.Inc() }
func (r *Registry) IncAckOne() { r.ackOne.Inc() }

func (r *Registry) IncAckFan(count uint16) {
	r.ackFan.Inc()
	r.mu.Lock()
	r.lastFanout = count
	r.mu.Unlock()
}

func (r *Registry) IncDuplicate() { r.duplicate.Inc() }
func (r *Registry) IncInvalid()   { r.invalid.Inc() }
func (r *Registry) IncOutdated()  { r.outdated.Inc() }
func (r *Registry) IncFuture()    { r.future.Inc() }

// Snapshot is a point-in-time read of the counters the UI's status line
// displays.
type Snapshot struct {
	Sent, AckOne, AckFan, Duplicate, Invalid, Outdated, Future int64
	LastFanout                                                uint16
	State                                                      string
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	lastFanout := r.lastFanout
	r.mu.Unlock()

	return Snapshot{
		Sent:       counterValue(r.sent),
		AckOne:     counterValue(r.ackOne),
		AckFan:     counterValue(r.ackFan),
		Duplicate:  counterValue(r.duplicate),
		Invalid:    counterValue(r.invalid),
		Outdated:   counterValue(r.outdated),
		Future:     counterValue(r.future),
		LastFanout: lastFanout,
		State:      r.currentState(),
	}
}

func (r *Registry) currentState() string {
	for _, name := range knownStates {
		var m dto.Metric
		if err := r.state.WithLabelValues(name).Write(&m); err != nil {
			continue
		}
		if m.GetGauge().GetValue() == 1 {
			return name
		}
	}
	return ""
}

func counterValue(c prometheus.Counter) int64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetCounter().GetValue())
}
