// Package metrics counts granted sessions and authentication failures for prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Caller is who is trying to get a session.
type Caller string

const (
	Admin Caller = "admin"
	User  Caller = "user"
)

// Event is how a session is granted.
type Event string

const (
	// an existing identity passed authentication.
	Login Event = "login"

	// a new team got its instance created.
	Registration Event = "registration"
)

const namespace = "playground"

// Recorder counts login outcomes.
//
// It is created once per process and shared by reference. Safe for concurrent use.
type Recorder struct {
	logins   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewRecorder creates counters and registers them to reg.
//
// All label combinations are initialized to zero, so that exporters see them before the first login.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Number of sessions issued, by event and caller type",
		}, []string{"event", "caller"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Number of failed authentications, by caller type",
		}, []string{"caller"}),
	}

	for _, c := range []prometheus.Collector{r.logins, r.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	for _, caller := range []Caller{Admin, User} {
		for _, ev := range []Event{Login, Registration} {
			r.logins.WithLabelValues(string(ev), string(caller))
		}
		r.failures.WithLabelValues(string(caller))
	}
	return r, nil
}

func (r *Recorder) Login(caller Caller) {
	r.logins.WithLabelValues(string(Login), string(caller)).Inc()
}

func (r *Recorder) Registration(caller Caller) {
	r.logins.WithLabelValues(string(Registration), string(caller)).Inc()
}

func (r *Recorder) Failure(caller Caller) {
	r.failures.WithLabelValues(string(caller)).Inc()
}

// Count returns the current value of the login counter for (event, caller).
//
// It is meant for tests and diagnostics; exporters should read the registry.
func (r *Recorder) Count(ev Event, caller Caller) float64 {
	return read(r.logins.WithLabelValues(string(ev), string(caller)))
}

// Failures returns the current value of the failure counter for caller.
func (r *Recorder) Failures(caller Caller) float64 {
	return read(r.failures.WithLabelValues(string(caller)))
}

func read(c prometheus.Counter) float64 {
	m := new(dto.Metric)
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
