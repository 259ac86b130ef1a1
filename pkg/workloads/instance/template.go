package instance

import (
	"sort"

	"github.com/opst/playground/pkg/team"
	kubeapps "k8s.io/api/apps/v1"
	kubecore "k8s.io/api/core/v1"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const containerName = "app"

// EnvTeam is the environment variable telling the application its team name.
const EnvTeam = "PLAYGROUND_TEAM"

// Template is the shape of every instance.
type Template struct {
	// container image of the application
	Image string

	// port which the application listens on
	ContainerPort int32

	// port which the Service exposes
	ServicePort int32

	// resource limits of the application container. Requests are the same as limits.
	Limits kubecore.ResourceList

	// extra environment variables of the application container
	Env map[string]string
}

func (t Template) labels(teamName string) map[string]string {
	return map[string]string{
		LabelManagedBy:   managedByValue,
		LabelTeam:        teamName,
		instanceSelector: team.ResourceName(teamName),
	}
}

func (t Template) deployment(teamName string, passcodeHash string) *kubeapps.Deployment {
	name := team.ResourceName(teamName)
	labels := t.labels(teamName)
	replicas := int32(1)

	env := make([]kubecore.EnvVar, 0, len(t.Env)+1)
	env = append(env, kubecore.EnvVar{Name: EnvTeam, Value: teamName})
	keys := make([]string, 0, len(t.Env))
	for k := range t.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, kubecore.EnvVar{Name: k, Value: t.Env[k]})
	}

	return &kubeapps.Deployment{
		ObjectMeta: kubeapimeta.ObjectMeta{
			Name:        name,
			Labels:      labels,
			Annotations: map[string]string{AnnotationHash: passcodeHash},
		},
		Spec: kubeapps.DeploymentSpec{
			Replicas: &replicas,
			Selector: &kubeapimeta.LabelSelector{
				MatchLabels: map[string]string{instanceSelector: name},
			},
			Template: kubecore.PodTemplateSpec{
				ObjectMeta: kubeapimeta.ObjectMeta{Labels: labels},
				Spec: kubecore.PodSpec{
					AutomountServiceAccountToken: new(bool),
					Containers: []kubecore.Container{
						{
							Name:  containerName,
							Image: t.Image,
							Ports: []kubecore.ContainerPort{
								{Name: "http", ContainerPort: t.ContainerPort, Protocol: kubecore.ProtocolTCP},
							},
							Env: env,
							Resources: kubecore.ResourceRequirements{
								Limits:   t.Limits,
								Requests: t.Limits,
							},
							ReadinessProbe: &kubecore.Probe{
								ProbeHandler: kubecore.ProbeHandler{
									TCPSocket: &kubecore.TCPSocketAction{Port: intstr.FromString("http")},
								},
								PeriodSeconds: 1,
							},
						},
					},
				},
			},
		},
	}
}

func (t Template) service(teamName string) *kubecore.Service {
	name := team.ResourceName(teamName)
	return &kubecore.Service{
		ObjectMeta: kubeapimeta.ObjectMeta{
			Name:   name,
			Labels: t.labels(teamName),
		},
		Spec: kubecore.ServiceSpec{
			Type:     kubecore.ServiceTypeClusterIP,
			Selector: map[string]string{instanceSelector: name},
			Ports: []kubecore.ServicePort{
				{
					Name:       "http",
					Port:       t.ServicePort,
					TargetPort: intstr.FromString("http"),
					Protocol:   kubecore.ProtocolTCP,
				},
			},
		},
	}
}
