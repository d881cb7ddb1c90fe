package npm

import (
	"os"
	"strings"

	"github.com/matzehuels/pkgrun/pkg/exec"
)

// RegistryEnv is the environment variable that overrides npm's registry.
const RegistryEnv = "npm_config_registry"

// Command is an executable plus its argument vector.
type Command struct {
	Name string
	Args []string
}

// String formats the command for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// installRule is one row of the install policy table. Rules run in order;
// each sees the command as built by the rules before it.
type installRule struct {
	name  string
	when  func(cmd *Command, cfg Config, opts InstallOptions) bool
	apply func(cmd *Command, cfg Config, opts InstallOptions)
}

// installRules is the install policy table. Order matters: global-style
// forces npm before the yarn rules look at the executable, so global-style
// wins over a configured yarn client. Extra client args always come last.
var installRules = []installRule{
	{
		name: "global-style",
		when: func(_ *Command, _ Config, opts InstallOptions) bool { return opts.GlobalStyle },
		apply: func(cmd *Command, _ Config, _ InstallOptions) {
			cmd.Name = ClientNpm
			cmd.Args = append(cmd.Args, "--global-style")
		},
	},
	{
		name: "mutex",
		when: func(cmd *Command, cfg Config, _ InstallOptions) bool {
			return cmd.Name == ClientYarn && cfg.Mutex != ""
		},
		apply: func(cmd *Command, cfg Config, _ InstallOptions) {
			cmd.Args = append(cmd.Args, "--mutex", cfg.Mutex)
		},
	},
	{
		name: "non-interactive",
		when: func(cmd *Command, _ Config, _ InstallOptions) bool { return cmd.Name == ClientYarn },
		apply: func(cmd *Command, _ Config, _ InstallOptions) {
			cmd.Args = append(cmd.Args, "--non-interactive")
		},
	},
	{
		name: "client-args",
		when: func(_ *Command, cfg Config, _ InstallOptions) bool { return len(cfg.NpmClientArgs) > 0 },
		apply: func(cmd *Command, cfg Config, _ InstallOptions) {
			cmd.Args = append(cmd.Args, cfg.NpmClientArgs...)
		},
	},
}

// BuildInstall returns the install command for cfg and opts.
func BuildInstall(cfg Config, opts InstallOptions) Command {
	cmd := Command{Name: cfg.Client(), Args: []string{"install"}}
	for _, r := range installRules {
		if r.when(&cmd, cfg, opts) {
			r.apply(&cmd, cfg, opts)
		}
	}
	return cmd
}

// BuildRunScript returns "npm run <script> args...". Scripts always run
// through npm.
func BuildRunScript(script string, args []string) Command {
	return Command{Name: ClientNpm, Args: append([]string{"run", script}, args...)}
}

// DistTagAction selects a dist-tag subcommand.
type DistTagAction int

const (
	DistTagAdd DistTagAction = iota
	DistTagRemove
	DistTagList
)

// String returns the npm subcommand for a.
func (a DistTagAction) String() string {
	switch a {
	case DistTagAdd:
		return "add"
	case DistTagRemove:
		return "rm"
	case DistTagList:
		return "ls"
	}
	return "unknown"
}

// BuildDistTag returns the dist-tag command for action. version is used by
// add only; tag is ignored by list.
func BuildDistTag(action DistTagAction, pkg, version, tag string) Command {
	var args []string
	switch action {
	case DistTagAdd:
		args = []string{"dist-tag", "add", pkg + "@" + version, tag}
	case DistTagRemove:
		args = []string{"dist-tag", "rm", pkg, tag}
	default:
		args = []string{"dist-tag", "ls", pkg}
	}
	return Command{Name: ClientNpm, Args: args}
}

// BuildPublish returns "npm publish --tag <tag>" with tag trimmed.
func BuildPublish(tag string) Command {
	return Command{Name: ClientNpm, Args: []string{"publish", "--tag", strings.TrimSpace(tag)}}
}

// ExecOptions returns the execution options for running in dir. With a
// registry, the child gets the full current environment plus
// npm_config_registry; otherwise Env is nil and the environment is
// inherited as is.
func ExecOptions(dir, registry string) exec.Options {
	opts := exec.Options{Dir: dir}
	if registry != "" {
		opts.Env = append(os.Environ(), RegistryEnv+"="+registry)
	}
	return opts
}
