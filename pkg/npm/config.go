package npm

import (
	"github.com/matzehuels/pkgrun/pkg/errors"
)

// Client names understood by the command builder.
const (
	// ClientNpm is the default client. Run-script, publish and dist-tag
	// always use it.
	ClientNpm = "npm"

	// ClientYarn is the alternate client. It takes --mutex and
	// --non-interactive on install.
	ClientYarn = "yarn"
)

// Config is the client configuration record read from the monorepo
// configuration. Keys match lerna.json so the same file can be loaded.
type Config struct {
	// NpmClient selects the install client; empty means "npm".
	NpmClient string `json:"npmClient,omitempty" toml:"npmClient"`

	// NpmClientArgs are appended to every install command, in order.
	NpmClientArgs []string `json:"npmClientArgs,omitempty" toml:"npmClientArgs"`

	// Mutex is passed as --mutex to yarn installs; ignored for npm.
	Mutex string `json:"mutex,omitempty" toml:"mutex"`

	// Registry overrides npm_config_registry for child processes.
	Registry string `json:"registry,omitempty" toml:"registry"`
}

// Client returns the configured client, defaulting to npm.
func (c Config) Client() string {
	if c.NpmClient == "" {
		return ClientNpm
	}
	return c.NpmClient
}

// Validate checks the client name and registry URL.
func (c Config) Validate() error {
	switch c.Client() {
	case ClientNpm, ClientYarn:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported npmClient %q (want %q or %q)", c.NpmClient, ClientNpm, ClientYarn)
	}
	return errors.ValidateRegistryURL(c.Registry)
}

// InstallOptions are per-call install settings.
type InstallOptions struct {
	// GlobalStyle installs with npm --global-style, forcing the npm client
	// regardless of Config.NpmClient.
	GlobalStyle bool
}

// Package identifies a package whose script is streamed.
type Package struct {
	Name     string // label for streamed output
	Location string // directory the script runs in
}
