package playground

import (
	"errors"
	"fmt"
	"time"

	"github.com/opst/playground/pkg/orchestrator"
	"github.com/opst/playground/pkg/session"
	"github.com/opst/playground/pkg/team"
	"github.com/opst/playground/pkg/workloads/instance"
	"golang.org/x/crypto/bcrypt"
	kubecore "k8s.io/api/core/v1"
	kubeapiresource "k8s.io/apimachinery/pkg/api/resource"
)

const (
	DefaultPort        = "8080"
	DefaultAdminName   = "admin"
	DefaultCookieName  = "playground-session"
	DefaultNamespace   = "playground"
	DefaultAppPort     = 8080
	DefaultServicePort = 80
)

// ErrConfig is wrapped by errors of misconfiguration.
var ErrConfig = errors.New("misconfiguration")

type ConfigMarshall struct {
	Port        string                  `yaml:"port,omitempty"`
	MetricsPort string                  `yaml:"metricsPort,omitempty"`
	Admin       AdminConfigMarshall     `yaml:"admin"`
	Session     SessionConfigMarshall   `yaml:"session"`
	Credentials CredentialsMarshall     `yaml:"credentials"`
	Capacity    CapacityMarshall        `yaml:"capacity"`
	Readiness   ReadinessConfigMarshall `yaml:"readiness"`
	Cluster     ClusterConfigMarshall   `yaml:"cluster"`
}

type AdminConfigMarshall struct {
	Name   string `yaml:"name,omitempty"`
	Secret string `yaml:"secret"`
}

type SessionConfigMarshall struct {
	CookieName string        `yaml:"cookieName,omitempty"`
	Secure     bool          `yaml:"secure"`
	SigningKey string        `yaml:"signingKey"`
	TTL        time.Duration `yaml:"ttl,omitempty"`
}

type CredentialsMarshall struct {
	// 0 means bcrypt.DefaultCost
	HashCost int `yaml:"hashCost,omitempty"`
}

type CapacityMarshall struct {
	// nil means unbounded
	MaxInstances *int `yaml:"maxInstances,omitempty"`
}

type ReadinessConfigMarshall struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	Attempts int           `yaml:"attempts,omitempty"`
}

type ClusterConfigMarshall struct {
	Namespace string                 `yaml:"namespace,omitempty"`
	Instance  InstanceConfigMarshall `yaml:"instance"`
}

type InstanceConfigMarshall struct {
	Image       string            `yaml:"image"`
	Port        int32             `yaml:"port,omitempty"`
	ServicePort int32             `yaml:"servicePort,omitempty"`
	CPU         string            `yaml:"cpu,omitempty"`
	Memory      string            `yaml:"memory,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
}

// misconf collects misconfigurations found while sealing.
type misconf []error

func (m *misconf) add(path string, format string, args ...any) {
	*m = append(*m, fmt.Errorf("%w: %s %s", ErrConfig, path, fmt.Sprintf(format, args...)))
}

func (m misconf) err() error {
	return errors.Join(m...)
}

// Seal applies defaults, verifies values and creates the readonly Config.
//
// The error reports every misconfiguration found, and wraps ErrConfig.
func (cm *ConfigMarshall) Seal() (*Config, error) {
	m := misconf{}
	c := cm.seal("(root)", &m)
	if err := m.err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (cm *ConfigMarshall) seal(path string, m *misconf) *Config {
	port := cm.Port
	if port == "" {
		port = DefaultPort
	}

	maxInstances := -1
	if cm.Capacity.MaxInstances != nil {
		maxInstances = *cm.Capacity.MaxInstances
	}

	return &Config{
		port:         port,
		metricsPort:  cm.MetricsPort,
		admin:        cm.Admin.seal(path+".admin", m),
		session:      cm.Session.seal(path+".session", m),
		hashCost:     cm.Credentials.seal(path+".credentials", m),
		maxInstances: maxInstances,
		readiness:    cm.Readiness.seal(path+".readiness", m),
		cluster:      cm.Cluster.seal(path+".cluster", m),
	}
}

func (am AdminConfigMarshall) seal(path string, m *misconf) *AdminConfig {
	name := am.Name
	if name == "" {
		name = DefaultAdminName
	}
	// admin requests pass the same validation as team requests.
	if err := team.ValidateName(name); err != nil {
		m.add(path+".name", "is not usable: %s", err)
	}
	if am.Secret == "" {
		m.add(path+".secret", "is required")
	} else if err := team.ValidatePasscode(am.Secret); err != nil {
		m.add(path+".secret", "is not usable: %s", err)
	}
	return &AdminConfig{name: name, secret: am.Secret}
}

func (sm SessionConfigMarshall) seal(path string, m *misconf) *SessionConfig {
	name := sm.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	if len(sm.SigningKey) < session.MinKeyLength {
		m.add(path+".signingKey", "should be %d bytes or longer", session.MinKeyLength)
	}
	if sm.TTL < 0 {
		m.add(path+".ttl", "should not be negative")
	}
	return &SessionConfig{
		cookieName: name,
		secure:     sm.Secure,
		signingKey: []byte(sm.SigningKey),
		ttl:        sm.TTL,
	}
}

func (cm CredentialsMarshall) seal(path string, m *misconf) int {
	cost := cm.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || bcrypt.MaxCost < cost {
		m.add(path+".hashCost", "should be in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return cost
}

func (rm ReadinessConfigMarshall) seal(path string, m *misconf) orchestrator.Poll {
	poll := orchestrator.DefaultPoll
	if rm.Interval != 0 {
		poll.Interval = rm.Interval
	}
	if rm.Attempts != 0 {
		poll.Attempts = rm.Attempts
	}
	if poll.Interval < 0 {
		m.add(path+".interval", "should be positive")
	}
	if poll.Attempts < 0 {
		m.add(path+".attempts", "should be positive")
	}
	return poll
}

func (cm ClusterConfigMarshall) seal(path string, m *misconf) *ClusterConfig {
	ns := cm.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return &ClusterConfig{
		namespace: ns,
		template:  cm.Instance.seal(path+".instance", m),
	}
}

func (im InstanceConfigMarshall) seal(path string, m *misconf) instance.Template {
	if im.Image == "" {
		m.add(path+".image", "is required")
	}

	port := im.Port
	if port == 0 {
		port = DefaultAppPort
	}
	svcPort := im.ServicePort
	if svcPort == 0 {
		svcPort = DefaultServicePort
	}
	for p, v := range map[string]int32{".port": port, ".servicePort": svcPort} {
		if v < 1 || 65535 < v {
			m.add(path+p, "is out of range: %d", v)
		}
	}

	limits := kubecore.ResourceList{}
	for name, q := range map[kubecore.ResourceName]string{
		kubecore.ResourceCPU:    im.CPU,
		kubecore.ResourceMemory: im.Memory,
	} {
		if q == "" {
			continue
		}
		qty, err := kubeapiresource.ParseQuantity(q)
		if err != nil {
			m.add(path+"."+string(name), "can not be parsed: %s", err)
			continue
		}
		limits[name] = qty
	}

	env := map[string]string{}
	for k, v := range im.Env {
		if k == instance.EnvTeam {
			m.add(path+".env", "can not override %s", instance.EnvTeam)
			continue
		}
		env[k] = v
	}

	return instance.Template{
		Image:         im.Image,
		ContainerPort: port,
		ServicePort:   svcPort,
		Limits:        limits,
		Env:           env,
	}
}
