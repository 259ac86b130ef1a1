package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/opst/playground/pkg/admission"
	"github.com/opst/playground/pkg/metrics"
	"github.com/opst/playground/pkg/team"
	"github.com/opst/playground/pkg/workloads/instance"
)

const (
	MessageInvalidRequest    = "invalid request"
	MessageAdminLoggedIn     = "logged in as admin"
	MessageWrongPasscode     = "wrong passcode"
	MessageTeamExists        = "team already exists; passcode is missing or wrong"
	MessageLookupFailed      = "failed to look up team instance"
	MessageCapacityExhausted = "capacity exhausted"
	MessageCreateFailed      = "failed to create team instance"
	MessageSessionFailed     = "failed to issue session"

	DescriptionCapacityExhausted = "the playground has no room for a new team. please contact the operator."
)

// JoinRequest is what a caller asks with.
type JoinRequest struct {
	Team string

	// empty when the caller does not send any passcode.
	Passcode string
}

func (r JoinRequest) HasPasscode() bool {
	return r.Passcode != ""
}

// Outcome is a terminal result of a request.
type Outcome struct {
	// HTTP status code
	Status int

	Message     string
	Description string

	// plaintext passcode of a team just created. empty for other outcomes.
	Passcode string

	// session cookie to be set. nil when no session is issued.
	Session *http.Cookie
}

// OK tells the outcome is successful.
func (o Outcome) OK() bool {
	return o.Status == http.StatusOK
}

// Stage is a step of join.
//
// It returns nil to pass the request to the next stage, or an Outcome to end the request.
type Stage func(ctx context.Context, req JoinRequest, log Logger) *Outcome

// Stages returns the steps of Join in order.
func (o *Orchestrator) Stages() []Stage {
	return []Stage{
		o.Validate,
		o.AdminIntercept,
		o.ExistingTeamCheck,
		o.Admission,
		o.Create,
	}
}

// Join authenticates the caller to the team, creating its instance if the team is new.
func (o *Orchestrator) Join(ctx context.Context, req JoinRequest, log Logger) Outcome {
	for _, stage := range o.Stages() {
		if out := stage(ctx, req, log); out != nil {
			return *out
		}
	}

	// unreachable: Create always ends the request.
	log.Errorf("join for team %s is not concluded", req.Team)
	return Outcome{Status: http.StatusInternalServerError, Message: MessageCreateFailed}
}

// Validate rejects malformed team names and passcodes.
func (o *Orchestrator) Validate(_ context.Context, req JoinRequest, _ Logger) *Outcome {
	if err := team.ValidateName(req.Team); err != nil {
		return invalid(err)
	}
	if req.HasPasscode() {
		if err := team.ValidatePasscode(req.Passcode); err != nil {
			return invalid(err)
		}
	}
	return nil
}

// AdminIntercept handles requests for the admin name.
//
// The admin name can never be a team; requests for it end here with or without passcode.
func (o *Orchestrator) AdminIntercept(_ context.Context, req JoinRequest, log Logger) *Outcome {
	if !o.verifier.IsAdmin(req.Team) {
		return nil
	}
	if !o.verifier.VerifyAdmin(req.Team, req.Passcode) {
		return &Outcome{Status: http.StatusUnauthorized, Message: MessageWrongPasscode}
	}
	return o.withSession(req.Team, log, &Outcome{Status: http.StatusOK, Message: MessageAdminLoggedIn})
}

// ExistingTeamCheck authenticates the caller to the team which already has an instance.
//
// Requests for new teams are passed through.
func (o *Orchestrator) ExistingTeamCheck(ctx context.Context, req JoinRequest, log Logger) *Outcome {
	inst, err := o.registry.GetByTeam(ctx, req.Team)
	if errors.Is(err, instance.ErrMissing) {
		return nil
	}
	if err != nil {
		log.Errorf("looking up instance of team %s: %+v", req.Team, err)
		return &Outcome{Status: http.StatusInternalServerError, Message: MessageLookupFailed}
	}

	if !req.HasPasscode() {
		o.recorder.Failure(metrics.User)
		return teamExists()
	}
	if !o.verifier.VerifyTeam(req.Passcode, inst.PasscodeHash) {
		return teamExists()
	}
	return o.withSession(
		req.Team, log,
		&Outcome{Status: http.StatusOK, Message: fmt.Sprintf("joined team `%s`", req.Team)},
	)
}

// Admission turns away new teams when the playground is full.
func (o *Orchestrator) Admission(ctx context.Context, req JoinRequest, log Logger) *Outcome {
	decision, err := o.admission.Check(ctx)
	if err != nil {
		log.Warnf("capacity check failed; admitting team %s anyway: %+v", req.Team, err)
	}
	if decision == admission.Deny {
		log.Warnf("capacity exhausted; team %s is turned away", req.Team)
		return &Outcome{
			Status:      http.StatusInternalServerError,
			Message:     MessageCapacityExhausted,
			Description: DescriptionCapacityExhausted,
		}
	}
	return nil
}

// Create provisions an instance for the new team with a fresh passcode.
func (o *Orchestrator) Create(ctx context.Context, req JoinRequest, log Logger) *Outcome {
	passcode, err := team.NewPasscode(o.random)
	if err != nil {
		log.Errorf("generating passcode for team %s: %+v", req.Team, err)
		return &Outcome{Status: http.StatusInternalServerError, Message: MessageCreateFailed}
	}
	hash, err := o.hasher.Hash(passcode)
	if err != nil {
		log.Errorf("hashing passcode for team %s: %+v", req.Team, err)
		return &Outcome{Status: http.StatusInternalServerError, Message: MessageCreateFailed}
	}

	if err := o.registry.Create(ctx, req.Team, hash); err != nil {
		if errors.Is(err, instance.ErrConflict) {
			// another request has created the team in the meantime.
			o.recorder.Failure(metrics.User)
			return teamExists()
		}
		log.Errorf("creating instance of team %s: %+v", req.Team, err)
		return &Outcome{Status: http.StatusInternalServerError, Message: MessageCreateFailed}
	}

	out := o.withSession(
		req.Team, log,
		&Outcome{
			Status:   http.StatusOK,
			Message:  fmt.Sprintf("created team `%s`", req.Team),
			Passcode: passcode,
		},
	)
	if out.OK() {
		o.recorder.Registration(metrics.User)
	}
	return out
}

// withSession attaches a session of the team to out.
func (o *Orchestrator) withSession(teamName string, log Logger, out *Outcome) *Outcome {
	cookie, err := o.sessions.Issue(teamName)
	if err != nil {
		log.Errorf("issuing session for team %s: %+v", teamName, err)
		return &Outcome{Status: http.StatusInternalServerError, Message: MessageSessionFailed}
	}
	out.Session = cookie
	return out
}

func invalid(err error) *Outcome {
	return &Outcome{Status: http.StatusBadRequest, Message: MessageInvalidRequest, Description: err.Error()}
}

func teamExists() *Outcome {
	return &Outcome{Status: http.StatusUnauthorized, Message: MessageTeamExists}
}
