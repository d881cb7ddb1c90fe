// Package config loads the client configuration record for pkgrun.
//
// Two file formats are understood:
//
//   - pkgrun.toml, decoded with BurntSushi/toml. Unknown keys are rejected.
//   - lerna.json, the monorepo's own configuration. Only the keys pkgrun
//     understands are read; everything else in the file is ignored.
//
// Both formats share one shape: top-level npmClient, npmClientArgs, mutex,
// registry and concurrency, plus an optional command.bootstrap section whose
// non-empty values override the top-level ones, matching lerna's layout.
//
//	# pkgrun.toml
//	npmClient = "yarn"
//	mutex = "file:/tmp/.yarn-mutex"
//	concurrency = 8
//
//	[command.bootstrap]
//	npmClientArgs = ["--frozen-lockfile"]
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pkgrun/pkg/errors"
	"github.com/matzehuels/pkgrun/pkg/npm"
)

// Configuration file names, in lookup order.
const (
	TOMLFile  = "pkgrun.toml"
	LernaFile = "lerna.json"
)

// DefaultConcurrency is the number of directories installed in parallel
// when neither the file nor a flag sets it.
const DefaultConcurrency = 4

// File is the decoded configuration file.
type File struct {
	npm.Config

	// Concurrency bounds parallel installs; zero means DefaultConcurrency.
	Concurrency int `json:"concurrency,omitempty" toml:"concurrency"`

	Command struct {
		Bootstrap npm.Config `json:"bootstrap" toml:"bootstrap"`
	} `json:"command" toml:"command"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `json:"-" toml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() *File {
	return &File{Concurrency: DefaultConcurrency}
}

// Load reads the configuration file at path. The format is chosen by
// extension: .toml or .json.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		f, err = decodeTOML(data)
	case ".json":
		f, err = decodeJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}

	f.Path = path
	if f.Concurrency == 0 {
		f.Concurrency = DefaultConcurrency
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeTOML(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return &f, nil
}

func decodeJSON(data []byte) (*File, error) {
	var f File
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Find looks for a configuration file in dir and its parents, preferring
// pkgrun.toml over lerna.json at each level. It reports false when none is
// found up to the filesystem root.
func Find(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		for _, name := range []string{TOMLFile, LernaFile} {
			p := filepath.Join(abs, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, true
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", false
		}
		abs = parent
	}
}

// Discover loads the configuration found by Find from dir, or Default when
// there is none.
func Discover(dir string) (*File, error) {
	path, ok := Find(dir)
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Effective returns the effective client configuration: top-level values
// with non-empty command.bootstrap values applied over them.
func (f *File) Effective() npm.Config {
	cfg := f.Config
	b := f.Command.Bootstrap
	if b.NpmClient != "" {
		cfg.NpmClient = b.NpmClient
	}
	if b.NpmClientArgs != nil {
		cfg.NpmClientArgs = b.NpmClientArgs
	}
	if b.Mutex != "" {
		cfg.Mutex = b.Mutex
	}
	if b.Registry != "" {
		cfg.Registry = b.Registry
	}
	return cfg
}

// Validate checks the effective client configuration and concurrency.
func (f *File) Validate() error {
	if f.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", f.Concurrency)
	}
	return f.Effective().Validate()
}
