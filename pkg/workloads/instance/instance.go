// Package instance provisions and observes per-team application instances on kubernetes.
//
// An instance of team "red" is a Deployment "t-red" and a Service "t-red" in the configured namespace.
// The Deployment carries the bcrypt hash of the team passcode as an annotation.
// This package never updates or deletes them; an external reaper cleans them up.
package instance

import (
	"context"
	"errors"
	"fmt"

	xe "github.com/opst/playground/pkg/errors"
	"github.com/opst/playground/pkg/team"
	"github.com/opst/playground/pkg/workloads/k8s"
	kubeapps "k8s.io/api/apps/v1"
	kubelabels "k8s.io/apimachinery/pkg/labels"
)

const (
	LabelManagedBy   = "app.kubernetes.io/managed-by"
	LabelTeam        = "playground.opst.io/team"
	AnnotationHash   = "playground.opst.io/passcode-hash"
	managedByValue   = "playground"
	instanceSelector = "app.kubernetes.io/instance"
)

// ErrMissing is reported when the team has no instance.
//
// Errors from Registry can be tested with errors.Is(err, ErrMissing).
var ErrMissing = errors.New("instance not found")

// ErrConflict is reported when the instance of the team is already created.
var ErrConflict = errors.New("instance already exists")

// Instance is a snapshot of a team's workload.
type Instance struct {
	Team          string
	ReadyReplicas int32

	// bcrypt hash of the team passcode
	PasscodeHash string
}

// Ready tells the instance can serve traffic.
func (i Instance) Ready() bool {
	return 1 <= i.ReadyReplicas
}

// Registry is what the orchestrator needs from the container orchestration system.
type Registry interface {
	// GetByTeam returns the instance of the team.
	//
	// # Returns
	//
	// - error: ErrMissing when the team has no instance, or other errors from kubernetes.
	GetByTeam(ctx context.Context, team string) (Instance, error)

	// Create provisions the workload and network endpoint of the team.
	//
	// Partial provisioning is not rolled back.
	//
	// # Returns
	//
	// - error: ErrConflict when the workload is already there, or other errors from kubernetes.
	Create(ctx context.Context, team string, passcodeHash string) error

	// List returns all instances managed by this registry.
	List(ctx context.Context) ([]Instance, error)
}

type k8sRegistry struct {
	client    k8s.K8sClient
	namespace string
	template  Template
}

// type check: k8sRegistry implements Registry
var _ Registry = &k8sRegistry{}

// NewRegistry returns Registry backed by kubernetes.
//
// # Args
//
// - client: kubernetes client
//
// - namespace: where instances are placed
//
// - template: how instances are built
func NewRegistry(client k8s.K8sClient, namespace string, template Template) Registry {
	return &k8sRegistry{client: client, namespace: namespace, template: template}
}

func (r *k8sRegistry) GetByTeam(ctx context.Context, teamName string) (Instance, error) {
	depl, err := r.client.GetDeployment(ctx, r.namespace, team.ResourceName(teamName))
	if err != nil {
		if k8s.AsMissingError(err) {
			return Instance{}, fmt.Errorf("%w: team %s: %w", ErrMissing, teamName, err)
		}
		return Instance{}, xe.WrapWithNote("get deployment", err)
	}
	return fromDeployment(teamName, depl), nil
}

func (r *k8sRegistry) Create(ctx context.Context, teamName string, passcodeHash string) error {
	depl := r.template.deployment(teamName, passcodeHash)
	if _, err := r.client.CreateDeployment(ctx, r.namespace, depl); err != nil {
		if k8s.AsConflict(err) {
			return fmt.Errorf("%w: team %s: %w", ErrConflict, teamName, err)
		}
		return xe.WrapWithNote("create deployment", err)
	}

	svc := r.template.service(teamName)
	if _, err := r.client.CreateService(ctx, r.namespace, svc); err != nil {
		// the endpoint may outlive a reaped workload. it is reusable as it is.
		if k8s.AsConflict(err) {
			return nil
		}
		return xe.WrapWithNote("create service", err)
	}
	return nil
}

func (r *k8sRegistry) List(ctx context.Context) ([]Instance, error) {
	depls, err := r.client.FindDeployments(
		ctx, r.namespace,
		kubelabels.SelectorFromSet(kubelabels.Set{LabelManagedBy: managedByValue}),
	)
	if err != nil {
		return nil, xe.WrapWithNote("list deployments", err)
	}

	insts := make([]Instance, 0, len(depls))
	for i := range depls {
		d := &depls[i]
		insts = append(insts, fromDeployment(d.Labels[LabelTeam], d))
	}
	return insts, nil
}

func fromDeployment(teamName string, d *kubeapps.Deployment) Instance {
	return Instance{
		Team:          teamName,
		ReadyReplicas: d.Status.ReadyReplicas,
		PasscodeHash:  d.Annotations[AnnotationHash],
	}
}
