// Package manifest swaps a directory's package.json for a temporary one.
//
// # Overview
//
// A monorepo tool sometimes needs to install an explicit subset of
// dependencies into a package directory without touching the package's real
// manifest. [Swap] moves package.json aside to package.json.backup, writes a
// synthetic manifest that carries only the original name and version plus
// the requested dependencies, and returns a [*Backup] handle. The handle's
// Restore method moves the original back.
//
//	deps, _ := manifest.ParseDependencies([]string{"lodash@^4.17.0", "@babel/core"}, false)
//	backup, err := manifest.Swap(ctx, dir, deps)
//	if err != nil {
//	    return err
//	}
//	defer backup.Restore()
//	// ... run the package manager in dir ...
//
// Restore is blocking and starts no goroutines, so it is safe to call from
// deferred cleanup during shutdown.
//
// # Failure States
//
// A failed backup rename ([errors.ErrCodeBackup]) leaves the directory
// untouched. A failed synthetic write ([errors.ErrCodeWrite]) leaves the
// original renamed to package.json.backup; [Restore] recovers it. Restore on
// a directory without a backup reports [errors.ErrCodeNoBackup].
//
// [errors.ErrCodeBackup]: github.com/matzehuels/pkgrun/pkg/errors.ErrCodeBackup
// [errors.ErrCodeWrite]: github.com/matzehuels/pkgrun/pkg/errors.ErrCodeWrite
// [errors.ErrCodeNoBackup]: github.com/matzehuels/pkgrun/pkg/errors.ErrCodeNoBackup
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pkgrun/pkg/errors"
)

const (
	// Filename is the manifest file name inside a package directory.
	Filename = "package.json"

	// BackupSuffix is appended to the manifest path while it is swapped out.
	BackupSuffix = ".backup"

	defaultIndent = "  "
)

// Path returns the manifest path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, Filename)
}

// BackupPath returns the path the manifest in dir is moved to while swapped.
func BackupPath(dir string) string {
	return Path(dir) + BackupSuffix
}

// Document holds the fields read from an existing manifest. Only name and
// version are decoded; the file is otherwise left unnormalized.
type Document struct {
	Name    string `json:"name"`
	Version string `json:"version"`

	// Indent is the indentation detected in the file, reused when writing.
	Indent string `json:"-"`
}

// ReadManifest reads name and version from the manifest at path.
func ReadManifest(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest not found: %s", path)
		}
		return Document{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read %s", path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	doc.Indent = detectIndent(data)
	return doc, nil
}

// detectIndent returns the leading whitespace of the first indented line,
// or two spaces when the document has none.
func detectIndent(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed != "" && len(trimmed) < len(line) {
			return line[:len(line)-len(trimmed)]
		}
	}
	return defaultIndent
}

// Synthetic is the temporary manifest written during a swap. Field order
// matches the order keys are written in.
type Synthetic struct {
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Fold partitions deps into dependency and devDependency maps keyed by
// package name. Each dependency lands in exactly one map; a later entry
// for the same name replaces an earlier one in that map. Both maps are
// always non-nil.
func Fold(deps []Dependency) (dependencies, devDependencies map[string]string) {
	dependencies = make(map[string]string)
	devDependencies = make(map[string]string)
	for _, d := range deps {
		if d.Dev {
			devDependencies[d.Name] = d.Version()
		} else {
			dependencies[d.Name] = d.Version()
		}
	}
	return dependencies, devDependencies
}

// NewSynthetic builds the temporary manifest for doc restricted to deps.
func NewSynthetic(doc Document, deps []Dependency) Synthetic {
	prod, dev := Fold(deps)
	return Synthetic{
		Name:            doc.Name,
		Version:         doc.Version,
		Dependencies:    prod,
		DevDependencies: dev,
	}
}

// WriteManifest writes v as indented JSON with a trailing newline.
// HTML escaping is disabled so ranges like ">=1.0.0 <2.0.0" are written
// verbatim. An empty indent means two spaces.
func WriteManifest(path string, v any, indent string) error {
	if indent == "" {
		indent = defaultIndent
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
