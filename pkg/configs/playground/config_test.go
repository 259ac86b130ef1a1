package playground_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opst/playground/pkg/configs/playground"
	"github.com/opst/playground/pkg/orchestrator"
	kubecore "k8s.io/api/core/v1"
	kubeapiresource "k8s.io/apimachinery/pkg/api/resource"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	t.Run("it can be created from a config file", func(t *testing.T) {
		t.Setenv(playground.EnvAdminSecret, "")
		t.Setenv(playground.EnvSessionKey, "")

		conf, err := playground.Load("./testdata/config.yaml")
		if err != nil {
			t.Fatal(err)
		}

		if conf.Port() != "8081" || conf.MetricsPort() != "9090" {
			t.Errorf("unexpected ports: %s, %s", conf.Port(), conf.MetricsPort())
		}
		if conf.Admin().Name() != "root" || conf.Admin().Secret() != "ROOT1234" {
			t.Errorf("unexpected admin: %s, %s", conf.Admin().Name(), conf.Admin().Secret())
		}

		sess := conf.Session().IssuerConfig()
		if sess.CookieName != "pg-session" || !sess.Secure || sess.TTL != 12*time.Hour {
			t.Errorf("unexpected session: %+v", sess)
		}
		if string(sess.SigningKey) != "0123456789abcdef0123456789abcdef" {
			t.Errorf("unexpected signing key: %s", sess.SigningKey)
		}

		if conf.HashCost() != 12 {
			t.Errorf("unexpected hash cost: %d", conf.HashCost())
		}
		if conf.MaxInstances() != 20 {
			t.Errorf("unexpected max instances: %d", conf.MaxInstances())
		}
		if want := (orchestrator.Poll{Interval: 2 * time.Second, Attempts: 90}); conf.Readiness() != want {
			t.Errorf("unexpected readiness: %+v", conf.Readiness())
		}

		if conf.Cluster().Namespace() != "playground-teams" {
			t.Errorf("unexpected namespace: %s", conf.Cluster().Namespace())
		}
		tpl := conf.Cluster().Template()
		if tpl.Image != "registry.example.com/playground/app:1.0.0" || tpl.ContainerPort != 3000 || tpl.ServicePort != 8000 {
			t.Errorf("unexpected template: %+v", tpl)
		}
		if cpu := tpl.Limits[kubecore.ResourceCPU]; !cpu.Equal(kubeapiresource.MustParse("500m")) {
			t.Errorf("unexpected cpu: %v", cpu)
		}
		if mem := tpl.Limits[kubecore.ResourceMemory]; !mem.Equal(kubeapiresource.MustParse("512Mi")) {
			t.Errorf("unexpected memory: %v", mem)
		}
		if len(tpl.Env) != 1 || tpl.Env["MODE"] != "contest" {
			t.Errorf("unexpected env: %v", tpl.Env)
		}
	})

	t.Run("omitted values are defaulted", func(t *testing.T) {
		t.Setenv(playground.EnvAdminSecret, "")
		t.Setenv(playground.EnvSessionKey, "")

		conf, err := playground.Load("./testdata/minimum.yaml")
		if err != nil {
			t.Fatal(err)
		}
		if conf.Port() != playground.DefaultPort || conf.MetricsPort() != "" {
			t.Errorf("unexpected ports: %s, %s", conf.Port(), conf.MetricsPort())
		}
		if conf.Admin().Name() != playground.DefaultAdminName {
			t.Errorf("unexpected admin name: %s", conf.Admin().Name())
		}
		if conf.Session().CookieName() != playground.DefaultCookieName || conf.Session().Secure() || conf.Session().TTL() != 0 {
			t.Errorf("unexpected session: %+v", conf.Session().IssuerConfig())
		}
		if conf.HashCost() != 10 {
			t.Errorf("unexpected hash cost: %d", conf.HashCost())
		}
		if conf.MaxInstances() >= 0 {
			t.Errorf("capacity is bounded: %d", conf.MaxInstances())
		}
		if conf.Readiness() != orchestrator.DefaultPoll {
			t.Errorf("unexpected readiness: %+v", conf.Readiness())
		}
		if conf.Cluster().Namespace() != playground.DefaultNamespace {
			t.Errorf("unexpected namespace: %s", conf.Cluster().Namespace())
		}
		tpl := conf.Cluster().Template()
		if tpl.ContainerPort != playground.DefaultAppPort || tpl.ServicePort != playground.DefaultServicePort {
			t.Errorf("unexpected ports: %+v", tpl)
		}
		if len(tpl.Limits) != 0 {
			t.Errorf("unexpected limits: %v", tpl.Limits)
		}
	})

	t.Run("environment variables override secrets", func(t *testing.T) {
		t.Setenv(playground.EnvAdminSecret, "FROMENV1")
		t.Setenv(playground.EnvSessionKey, strings.Repeat("k", 40))

		conf, err := playground.Load("./testdata/config.yaml")
		if err != nil {
			t.Fatal(err)
		}
		if conf.Admin().Secret() != "FROMENV1" {
			t.Errorf("unexpected secret: %s", conf.Admin().Secret())
		}
		if got := string(conf.Session().IssuerConfig().SigningKey); got != strings.Repeat("k", 40) {
			t.Errorf("unexpected signing key: %s", got)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := playground.Load("./testdata/no-such-file.yaml"); err == nil {
			t.Error("expected error, but got nil")
		}
	})
}

func TestUnmarshal(t *testing.T) {
	const valid = `
admin: {secret: ADMIN123}
session: {signingKey: "0123456789abcdef0123456789abcdef"}
cluster: {instance: {image: app}}
`

	t.Run("capacity 0 is kept as 0", func(t *testing.T) {
		conf, err := playground.Unmarshal([]byte(valid+"capacity: {maxInstances: 0}\n"), noEnv)
		if err != nil {
			t.Fatal(err)
		}
		if conf.MaxInstances() != 0 {
			t.Errorf("unexpected max instances: %d", conf.MaxInstances())
		}
	})

	t.Run("secrets can be given only by environment variables", func(t *testing.T) {
		conf, err := playground.Unmarshal(
			[]byte("cluster: {instance: {image: app}}"),
			envOf(map[string]string{
				playground.EnvAdminSecret: "ADMIN123",
				playground.EnvSessionKey:  "0123456789abcdef0123456789abcdef",
			}),
		)
		if err != nil {
			t.Fatal(err)
		}
		if conf.Admin().Secret() != "ADMIN123" {
			t.Errorf("unexpected secret: %s", conf.Admin().Secret())
		}
	})

	for name, tc := range map[string]struct {
		yaml  string
		paths []string
	}{
		"empty document": {
			yaml:  "{}",
			paths: []string{"(root).admin.secret", "(root).session.signingKey", "(root).cluster.instance.image"},
		},
		"admin name which is not a team name": {
			yaml:  strings.Replace(valid, "{secret: ADMIN123}", "{name: Admin, secret: ADMIN123}", 1),
			paths: []string{"(root).admin.name"},
		},
		"admin secret which is not a passcode": {
			yaml:  strings.Replace(valid, "ADMIN123", "admin-secret", 1),
			paths: []string{"(root).admin.secret"},
		},
		"short signing key": {
			yaml:  strings.Replace(valid, "0123456789abcdef0123456789abcdef", "short", 1),
			paths: []string{"(root).session.signingKey"},
		},
		"negative ttl": {
			yaml: `
admin: {secret: ADMIN123}
session: {signingKey: "0123456789abcdef0123456789abcdef", ttl: -1s}
cluster: {instance: {image: app}}
`,
			paths: []string{"(root).session.ttl"},
		},
		"too high hash cost": {
			yaml:  valid + "credentials: {hashCost: 99}\n",
			paths: []string{"(root).credentials.hashCost"},
		},
		"negative readiness": {
			yaml:  valid + "readiness: {interval: -1s, attempts: -3}\n",
			paths: []string{"(root).readiness.interval", "(root).readiness.attempts"},
		},
		"broken quantity": {
			yaml: `
admin: {secret: ADMIN123}
session: {signingKey: "0123456789abcdef0123456789abcdef"}
cluster: {instance: {image: app, cpu: lots}}
`,
			paths: []string{"(root).cluster.instance.cpu"},
		},
		"overriding team env": {
			yaml: `
admin: {secret: ADMIN123}
session: {signingKey: "0123456789abcdef0123456789abcdef"}
cluster: {instance: {image: app, env: {PLAYGROUND_TEAM: x}}}
`,
			paths: []string{"(root).cluster.instance.env"},
		},
	} {
		tc := tc
		t.Run("it rejects "+name, func(t *testing.T) {
			_, err := playground.Unmarshal([]byte(tc.yaml), noEnv)
			if !errors.Is(err, playground.ErrConfig) {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, p := range tc.paths {
				if !strings.Contains(err.Error(), p) {
					t.Errorf("error does not mention %s: %v", p, err)
				}
			}
		})
	}

	t.Run("broken yaml is an error", func(t *testing.T) {
		if _, err := playground.Unmarshal([]byte("admin: [\n"), noEnv); err == nil {
			t.Error("expected error, but got nil")
		}
	})
}

func TestUntilModified(t *testing.T) {
	waitDone := func(t *testing.T, ctx context.Context) bool {
		t.Helper()
		select {
		case <-ctx.Done():
			return true
		case <-time.After(5 * time.Second):
			return false
		}
	}

	t.Run("when the config file is written, it cancels context", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(file, []byte("port: 8080\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		ctx, cancel, err := playground.UntilModified(context.Background(), file)
		if err != nil {
			t.Fatal(err)
		}
		defer cancel()
		if err := ctx.Err(); err != nil {
			t.Fatalf("context is done before modification: %v", err)
		}

		if err := os.WriteFile(file, []byte("port: 8081\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if !waitDone(t, ctx) {
			t.Fatal("context is not canceled")
		}
		if cause := context.Cause(ctx); cause == nil || !strings.Contains(cause.Error(), "config.yaml") {
			t.Errorf("unexpected cause: %v", cause)
		}
	})

	t.Run("when other files in the directory are written, it keeps context", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(file, []byte("port: 8080\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		ctx, cancel, err := playground.UntilModified(context.Background(), file)
		if err != nil {
			t.Fatal(err)
		}
		defer cancel()

		if err := os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-ctx.Done():
			t.Errorf("context is canceled: %v", context.Cause(ctx))
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("when the directory does not exist, it is an error", func(t *testing.T) {
		_, _, err := playground.UntilModified(context.Background(), filepath.Join(t.TempDir(), "no", "config.yaml"))
		if err == nil {
			t.Error("expected error, but got nil")
		}
	})

	t.Run("cancel func stops watching", func(t *testing.T) {
		dir := t.TempDir()
		ctx, cancel, err := playground.UntilModified(context.Background(), filepath.Join(dir, "config.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		cancel()
		if !waitDone(t, ctx) {
			t.Fatal("context is not canceled")
		}
		if cause := context.Cause(ctx); !errors.Is(cause, context.Canceled) {
			t.Errorf("unexpected cause: %v", cause)
		}
	})
}
