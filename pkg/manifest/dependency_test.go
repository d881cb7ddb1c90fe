package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pkgrun/pkg/errors"
)

func TestParseDependency(t *testing.T) {
	tests := []struct {
		input     string
		wantName  string
		wantRange string
	}{
		{"lodash", "lodash", ""},
		{"lodash@^4.17.21", "lodash", "^4.17.21"},
		{"@babel/core", "@babel/core", ""},
		{"@babel/core@^7.0.0", "@babel/core", "^7.0.0"},
		{"foo@>=1.0.0 <2.0.0", "foo", ">=1.0.0 <2.0.0"},
		{"foo@npm:bar@1.0.0", "foo", "npm:bar@1.0.0"},
		{"foo@", "foo", ""},
		{"@scope/pkg@latest", "@scope/pkg", "latest"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDependency(tt.input, false)
			if err != nil {
				t.Fatalf("ParseDependency(%q) error = %v", tt.input, err)
			}
			if d.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", d.Name, tt.wantName)
			}
			if d.Range != tt.wantRange {
				t.Errorf("Range = %q, want %q", d.Range, tt.wantRange)
			}
		})
	}
}

func TestParseDependencyInvalid(t *testing.T) {
	for _, input := range []string{"", "@", "@@1.0.0", "../evil@1.0.0"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDependency(input, false)
			if !errors.Is(err, errors.ErrCodeInvalidDependency) {
				t.Errorf("ParseDependency(%q) error = %v, want %s", input, err, errors.ErrCodeInvalidDependency)
			}
		})
	}
}

func TestParseDependencies(t *testing.T) {
	got, err := ParseDependencies([]string{"jest@^29.0.0", "@types/node"}, true)
	if err != nil {
		t.Fatalf("ParseDependencies() error = %v", err)
	}
	want := []Dependency{
		{Name: "jest", Range: "^29.0.0", Dev: true},
		{Name: "@types/node", Dev: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDependencies() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseDependencies([]string{"ok", ""}, false); err == nil {
		t.Error("ParseDependencies() should fail when any entry is invalid")
	}
}

func TestDependencyVersion(t *testing.T) {
	if v := (Dependency{Name: "a"}).Version(); v != "*" {
		t.Errorf("Version() = %q, want %q", v, "*")
	}
	if v := (Dependency{Name: "a", Range: "~1.2.3"}).Version(); v != "~1.2.3" {
		t.Errorf("Version() = %q, want %q", v, "~1.2.3")
	}
}

func TestDependencyString(t *testing.T) {
	tests := []struct {
		dep  Dependency
		want string
	}{
		{Dependency{Name: "lodash"}, "lodash"},
		{Dependency{Name: "@babel/core", Range: "^7.0.0"}, "@babel/core@^7.0.0"},
	}
	for _, tt := range tests {
		if got := tt.dep.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseDependency(tt.dep.String(), false)
		if err != nil || parsed != tt.dep {
			t.Errorf("ParseDependency(%q) = %+v, %v; want %+v", tt.want, parsed, err, tt.dep)
		}
	}
}

func TestFold(t *testing.T) {
	deps := []Dependency{
		{Name: "express", Range: "^4.18.0"},
		{Name: "@babel/core"},
		{Name: "jest", Range: "^29.0.0", Dev: true},
		{Name: "typescript", Dev: true},
		{Name: "express", Range: "^4.19.0"},
	}

	prod, dev := Fold(deps)

	wantProd := map[string]string{"express": "^4.19.0", "@babel/core": "*"}
	wantDev := map[string]string{"jest": "^29.0.0", "typescript": "*"}
	if diff := cmp.Diff(wantProd, prod); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantDev, dev); diff != "" {
		t.Errorf("devDependencies mismatch (-want +got):\n%s", diff)
	}

	for name := range prod {
		if _, ok := dev[name]; ok {
			t.Errorf("%s landed in both maps", name)
		}
	}
}

func TestFoldEmpty(t *testing.T) {
	prod, dev := Fold(nil)
	if prod == nil || dev == nil {
		t.Fatal("Fold(nil) should return non-nil maps")
	}
	if len(prod) != 0 || len(dev) != 0 {
		t.Errorf("Fold(nil) = %v, %v; want empty maps", prod, dev)
	}
}
