package npm

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestBuildInstall(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		opts InstallOptions
		want Command
	}{
		{
			name: "default client",
			cfg:  Config{},
			want: Command{Name: "npm", Args: []string{"install"}},
		},
		{
			name: "explicit npm ignores mutex",
			cfg:  Config{NpmClient: "npm", Mutex: "network:42424"},
			want: Command{Name: "npm", Args: []string{"install"}},
		},
		{
			name: "npm with client args",
			cfg:  Config{NpmClientArgs: []string{"--production", "--no-optional"}},
			want: Command{Name: "npm", Args: []string{"install", "--production", "--no-optional"}},
		},
		{
			name: "global style",
			cfg:  Config{},
			opts: InstallOptions{GlobalStyle: true},
			want: Command{Name: "npm", Args: []string{"install", "--global-style"}},
		},
		{
			name: "yarn",
			cfg:  Config{NpmClient: "yarn"},
			want: Command{Name: "yarn", Args: []string{"install", "--non-interactive"}},
		},
		{
			name: "yarn with mutex and client args",
			cfg:  Config{NpmClient: "yarn", Mutex: "file:/tmp/lock", NpmClientArgs: []string{"--flat"}},
			want: Command{Name: "yarn", Args: []string{"install", "--mutex", "file:/tmp/lock", "--non-interactive", "--flat"}},
		},
		{
			name: "global style overrides yarn",
			cfg:  Config{NpmClient: "yarn", Mutex: "file:/tmp/lock"},
			opts: InstallOptions{GlobalStyle: true},
			want: Command{Name: "npm", Args: []string{"install", "--global-style"}},
		},
		{
			name: "global style overrides yarn but keeps client args last",
			cfg:  Config{NpmClient: "yarn", Mutex: "file:/tmp/lock", NpmClientArgs: []string{"--flat"}},
			opts: InstallOptions{GlobalStyle: true},
			want: Command{Name: "npm", Args: []string{"install", "--global-style", "--flat"}},
		},
		{
			name: "empty client args",
			cfg:  Config{NpmClient: "yarn", NpmClientArgs: []string{}},
			want: Command{Name: "yarn", Args: []string{"install", "--non-interactive"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildInstall(tt.cfg, tt.opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildInstall() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildInstallDoesNotAliasConfig(t *testing.T) {
	cfg := Config{NpmClientArgs: []string{"--flat"}}
	cmd := BuildInstall(cfg, InstallOptions{})
	cmd.Args[len(cmd.Args)-1] = "--changed"

	if cfg.NpmClientArgs[0] != "--flat" {
		t.Error("mutating the built command changed the config")
	}
}

func TestInstallRuleOrder(t *testing.T) {
	var names []string
	for _, r := range installRules {
		names = append(names, r.name)
	}
	want := []string{"global-style", "mutex", "non-interactive", "client-args"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("install rule order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRunScript(t *testing.T) {
	tests := []struct {
		script string
		args   []string
		want   []string
	}{
		{"test", nil, []string{"run", "test"}},
		{"build", []string{"--", "--watch"}, []string{"run", "build", "--", "--watch"}},
	}
	for _, tt := range tests {
		got := BuildRunScript(tt.script, tt.args)
		if got.Name != "npm" {
			t.Errorf("BuildRunScript() executable = %q, want npm", got.Name)
		}
		if diff := cmp.Diff(tt.want, got.Args); diff != "" {
			t.Errorf("BuildRunScript(%q) mismatch (-want +got):\n%s", tt.script, diff)
		}
	}
}

func TestBuildDistTag(t *testing.T) {
	tests := []struct {
		name   string
		action DistTagAction
		want   []string
	}{
		{"add", DistTagAdd, []string{"dist-tag", "add", "@acme/widget@1.2.3", "next"}},
		{"remove", DistTagRemove, []string{"dist-tag", "rm", "@acme/widget", "next"}},
		{"list", DistTagList, []string{"dist-tag", "ls", "@acme/widget"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDistTag(tt.action, "@acme/widget", "1.2.3", "next")
			if got.Name != "npm" {
				t.Errorf("executable = %q, want npm", got.Name)
			}
			if diff := cmp.Diff(tt.want, got.Args); diff != "" {
				t.Errorf("BuildDistTag() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDistTagActionString(t *testing.T) {
	for action, want := range map[DistTagAction]string{
		DistTagAdd:        "add",
		DistTagRemove:     "rm",
		DistTagList:       "ls",
		DistTagAction(99): "unknown",
	} {
		if got := action.String(); got != want {
			t.Errorf("DistTagAction(%d).String() = %q, want %q", action, got, want)
		}
	}
}

func TestBuildPublish(t *testing.T) {
	got := BuildPublish("  beta \n")
	want := Command{Name: "npm", Args: []string{"publish", "--tag", "beta"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildPublish() mismatch (-want +got):\n%s", diff)
	}
}

func TestExecOptions(t *testing.T) {
	t.Run("without registry", func(t *testing.T) {
		opts := ExecOptions("/repo/packages/a", "")
		if opts.Dir != "/repo/packages/a" {
			t.Errorf("Dir = %q, want /repo/packages/a", opts.Dir)
		}
		if opts.Env != nil {
			t.Errorf("Env = %v, want nil", opts.Env)
		}
	})

	t.Run("with registry", func(t *testing.T) {
		t.Setenv("PKGRUN_TEST_MARKER", "1")
		opts := ExecOptions("/repo/packages/a", "http://localhost:4873")

		base := os.Environ()
		if len(opts.Env) != len(base)+1 {
			t.Fatalf("len(Env) = %d, want %d", len(opts.Env), len(base)+1)
		}
		if diff := cmp.Diff(base, opts.Env[:len(base)], cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("inherited environment mismatch (-want +got):\n%s", diff)
		}
		if last := opts.Env[len(opts.Env)-1]; last != "npm_config_registry=http://localhost:4873" {
			t.Errorf("override = %q, want npm_config_registry=http://localhost:4873", last)
		}

		found := false
		for _, kv := range opts.Env {
			if strings.HasPrefix(kv, "PKGRUN_TEST_MARKER=") {
				found = true
			}
		}
		if !found {
			t.Error("inherited environment is missing PKGRUN_TEST_MARKER")
		}
	})
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "yarn", Args: []string{"install", "--non-interactive"}}
	if got := c.String(); got != "yarn install --non-interactive" {
		t.Errorf("String() = %q", got)
	}
}
