// Package playground loads configuration of the playground daemon.
//
// Configuration is read from a YAML file as XxxMarshall types,
// and then sealed into readonly Xxx types after validation.
package playground

import (
	"time"

	"github.com/opst/playground/pkg/orchestrator"
	"github.com/opst/playground/pkg/session"
	"github.com/opst/playground/pkg/workloads/instance"
)

type Config struct {
	port         string
	metricsPort  string
	admin        *AdminConfig
	session      *SessionConfig
	hashCost     int
	maxInstances int
	readiness    orchestrator.Poll
	cluster      *ClusterConfig
}

// port which the API listens on.
func (c *Config) Port() string {
	return c.port
}

// port which /metrics is served on. Empty means the same port as the API.
func (c *Config) MetricsPort() string {
	return c.metricsPort
}

func (c *Config) Admin() *AdminConfig {
	return c.admin
}

func (c *Config) Session() *SessionConfig {
	return c.session
}

// bcrypt cost factor for team passcodes.
func (c *Config) HashCost() int {
	return c.hashCost
}

// cap of instances. Negative means unbounded.
func (c *Config) MaxInstances() int {
	return c.maxInstances
}

func (c *Config) Readiness() orchestrator.Poll {
	return c.readiness
}

func (c *Config) Cluster() *ClusterConfig {
	return c.cluster
}

// AdminConfig is the reserved admin identity.
type AdminConfig struct {
	name   string
	secret string
}

func (a *AdminConfig) Name() string {
	return a.name
}

func (a *AdminConfig) Secret() string {
	return a.secret
}

type SessionConfig struct {
	cookieName string
	secure     bool
	signingKey []byte
	ttl        time.Duration
}

func (s *SessionConfig) CookieName() string {
	return s.cookieName
}

func (s *SessionConfig) Secure() bool {
	return s.secure
}

func (s *SessionConfig) TTL() time.Duration {
	return s.ttl
}

// IssuerConfig is the configuration for session.NewIssuer.
func (s *SessionConfig) IssuerConfig() session.Config {
	return session.Config{
		CookieName: s.cookieName,
		Secure:     s.secure,
		SigningKey: s.signingKey,
		TTL:        s.ttl,
	}
}

type ClusterConfig struct {
	namespace string
	template  instance.Template
}

// kubernetes namespace where instances are placed.
func (c *ClusterConfig) Namespace() string {
	return c.namespace
}

// how each instance is built.
func (c *ClusterConfig) Template() instance.Template {
	return c.template
}
