package manifest

import (
	"regexp"

	"github.com/matzehuels/pkgrun/pkg/errors"
)

// AnyVersion is the range written for a dependency requested without one.
const AnyVersion = "*"

// dependencyRegex splits "name@range" into its parts. The optional leading
// "@" belongs to the name, so "@scope/name@^1.0.0" never splits inside the
// scope. Everything after the next "@" is the range, verbatim.
var dependencyRegex = regexp.MustCompile(`^(@?[^@]+)(?:@(.+))?`)

// Dependency is one requested dependency of a temporary manifest.
type Dependency struct {
	Name  string // package name, possibly scoped ("@scope/name")
	Range string // version range; empty when none was given
	Dev   bool   // true for devDependencies
}

// ParseDependency parses "name", "name@range", "@scope/name" or
// "@scope/name@range". A trailing "@" with nothing after it leaves the
// range empty.
func ParseDependency(s string, dev bool) (Dependency, error) {
	m := dependencyRegex.FindStringSubmatch(s)
	if m == nil {
		return Dependency{}, errors.New(errors.ErrCodeInvalidDependency, "invalid dependency: %q", s)
	}
	if err := errors.ValidatePackageName(m[1]); err != nil {
		return Dependency{}, errors.Wrap(errors.ErrCodeInvalidDependency, err, "invalid dependency: %q", s)
	}
	return Dependency{Name: m[1], Range: m[2], Dev: dev}, nil
}

// ParseDependencies parses each string with [ParseDependency].
func ParseDependencies(specs []string, dev bool) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(specs))
	for _, s := range specs {
		d, err := ParseDependency(s, dev)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// Version returns the range to write into a manifest: Range, or "*" when
// no range was requested.
func (d Dependency) Version() string {
	if d.Range == "" {
		return AnyVersion
	}
	return d.Range
}

// String formats d back into "name@range" form, omitting an empty range.
func (d Dependency) String() string {
	if d.Range == "" {
		return d.Name
	}
	return d.Name + "@" + d.Range
}
