// Package orchestrator joins callers to team instances.
//
// A join request runs through an ordered list of stages:
//
//	Validate -> AdminIntercept -> ExistingTeam -> Admission -> Create
//
// Each stage either lets the request continue (returns nil)
// or ends it with an Outcome. Create always ends the request.
//
// Readiness of a created instance is awaited by a separate call, AwaitReadiness.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opst/playground/pkg/admission"
	"github.com/opst/playground/pkg/metrics"
	"github.com/opst/playground/pkg/workloads/instance"
)

// Logger is where operational errors are reported.
//
// echo.Logger satisfies this.
type Logger interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Verifier checks passcodes and reports the outcomes.
type Verifier interface {
	IsAdmin(team string) bool
	VerifyAdmin(team, passcode string) bool
	VerifyTeam(passcode, storedHash string) bool
}

type Hasher interface {
	Hash(passcode string) (string, error)
}

type SessionIssuer interface {
	Issue(team string) (*http.Cookie, error)
}

type AdmissionController interface {
	Check(ctx context.Context) (admission.Decision, error)
}

// Recorder counts what the orchestrator decides by itself.
//
// Logins are counted by Verifier.
type Recorder interface {
	Registration(metrics.Caller)
	Failure(metrics.Caller)
}

// Poll is how readiness is polled.
type Poll struct {
	// wait between attempts
	Interval time.Duration

	// how many times the instance is looked up at most
	Attempts int
}

// DefaultPoll waits up to 3 minutes.
var DefaultPoll = Poll{Interval: time.Second, Attempts: 180}

type Deps struct {
	Verifier  Verifier
	Hasher    Hasher
	Sessions  SessionIssuer
	Admission AdmissionController
	Registry  instance.Registry
	Recorder  Recorder

	// random source for passcodes. nil means crypto/rand.
	Random io.Reader

	// zero value means DefaultPoll
	Poll Poll
}

type Orchestrator struct {
	verifier  Verifier
	hasher    Hasher
	sessions  SessionIssuer
	admission AdmissionController
	registry  instance.Registry
	recorder  Recorder
	random    io.Reader
	poll      Poll
}

func New(d Deps) (*Orchestrator, error) {
	for name, dep := range map[string]any{
		"verifier": d.Verifier, "hasher": d.Hasher, "sessions": d.Sessions,
		"admission": d.Admission, "registry": d.Registry, "recorder": d.Recorder,
	} {
		if dep == nil {
			return nil, fmt.Errorf("orchestrator: %s is not given", name)
		}
	}

	poll := d.Poll
	if poll == (Poll{}) {
		poll = DefaultPoll
	}
	if poll.Interval < 0 || poll.Attempts < 1 {
		return nil, fmt.Errorf("orchestrator: bad poll setting: %+v", poll)
	}

	return &Orchestrator{
		verifier:  d.Verifier,
		hasher:    d.Hasher,
		sessions:  d.Sessions,
		admission: d.Admission,
		registry:  d.Registry,
		recorder:  d.Recorder,
		random:    d.Random,
		poll:      poll,
	}, nil
}
