package playground

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const (
	// overrides admin.secret
	EnvAdminSecret = "PLAYGROUND_ADMIN_SECRET"

	// overrides session.signingKey
	EnvSessionKey = "PLAYGROUND_SESSION_KEY"
)

// Load reads the config file, and seals it with overrides from environment variables.
func Load(filepath string) (*Config, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content, os.LookupEnv)
}

// Unmarshal parses YAML, and seals it with overrides from lookupEnv.
//
// lookupEnv can be nil, meaning no overrides.
func Unmarshal(conf []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	out := new(ConfigMarshall)
	if err := yaml.Unmarshal(conf, out); err != nil {
		return nil, err
	}
	if lookupEnv != nil {
		out.override(lookupEnv)
	}
	return out.Seal()
}

func (cm *ConfigMarshall) override(lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(EnvAdminSecret); ok && v != "" {
		cm.Admin.Secret = v
	}
	if v, ok := lookupEnv(EnvSessionKey); ok && v != "" {
		cm.Session.SigningKey = v
	}
}

// UntilModified returns a context which is canceled when the config file is modified
// (written, created, removed or renamed).
//
// The directory of the file is watched, so that replacing the file
// (as kubernetes does for mounted ConfigMaps) is also detected.
//
// # Returns
//
// - context.Context: canceled on modification. context.Cause tells which event.
//
// - func(): stops watching.
//
// - error: when it can not start watching. Then, the context and the func are nil.
func UntilModified(ctx context.Context, configPath string) (context.Context, func(), error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Dir(abs)
	base := filepath.Base(abs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, nil, err
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()
		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("watching %s: %w", abs, err))
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				name := filepath.Base(event.Name)
				// "..data" is the symlink swapped on ConfigMap updates.
				if name != base && name != "..data" {
					continue
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
				cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op.String()))
				return
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
