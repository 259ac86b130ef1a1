// Package admission decides whether one more instance can be created.
package admission

import (
	"context"

	"github.com/opst/playground/pkg/workloads/instance"
)

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Lister is the part of instance.Registry used for admission.
type Lister interface {
	List(ctx context.Context) ([]instance.Instance, error)
}

// Controller caps the number of instances in the cluster.
//
// The check and the following creation are not atomic.
// Concurrent first-joins can overshoot the cap by the number of racing requests.
type Controller struct {
	// maximum number of instances. Negative means unbounded.
	Max int

	Lister Lister
}

// Check tells whether one more instance can be created.
//
// When listing instances fails, it allows (fail-open)
// and returns the error for the caller to report.
func (c *Controller) Check(ctx context.Context) (Decision, error) {
	if c.Max < 0 {
		return Allow, nil
	}
	insts, err := c.Lister.List(ctx)
	if err != nil {
		return Allow, err
	}
	if c.Max <= len(insts) {
		return Deny, nil
	}
	return Allow, nil
}
