package orchestrator

import (
	"context"
	"errors"
	"net/http"

	"github.com/opst/playground/pkg/team"
	"github.com/opst/playground/pkg/utils/retry"
)

const (
	MessageReadinessTimeout = "timed out waiting for team instance to be ready"
	MessageReadinessFailed  = "failed to check readiness of team instance"
	MessageReadinessAborted = "readiness wait aborted"
)

// AwaitReadiness blocks until the instance of the team gets ready.
//
// The instance is looked up at once, and then once per poll interval
// until it is ready or the attempts run out.
// A lookup error ends the wait. So does cancellation of ctx.
//
// It is safe to call repeatedly and concurrently.
func (o *Orchestrator) AwaitReadiness(ctx context.Context, teamName string, log Logger) Outcome {
	if err := team.ValidateName(teamName); err != nil {
		return *invalid(err)
	}

	attempts := 0
	_, err := retry.Blocking(
		ctx,
		retry.Limited(retry.StaticBackoff(o.poll.Interval), o.poll.Attempts),
		func(ctx context.Context) (struct{}, error) {
			attempts += 1
			inst, err := o.registry.GetByTeam(ctx, teamName)
			if err != nil {
				return struct{}{}, err
			}
			if !inst.Ready() {
				return struct{}{}, retry.ErrRetry
			}
			return struct{}{}, nil
		},
	)

	switch {
	case err == nil:
		return Outcome{Status: http.StatusOK}
	case errors.Is(err, retry.ErrExhausted):
		log.Errorf("instance of team %s is not ready after %d attempts", teamName, attempts)
		return Outcome{Status: http.StatusInternalServerError, Message: MessageReadinessTimeout}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warnf("waiting for instance of team %s is aborted after %d attempts: %s", teamName, attempts, err)
		return Outcome{Status: http.StatusInternalServerError, Message: MessageReadinessAborted}
	default:
		log.Errorf("checking readiness of team %s: %+v", teamName, err)
		return Outcome{Status: http.StatusInternalServerError, Message: MessageReadinessFailed}
	}
}
