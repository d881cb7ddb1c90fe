package cli

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgrun/internal/config"
	"github.com/matzehuels/pkgrun/pkg/buildinfo"
	"github.com/matzehuels/pkgrun/pkg/exec"
	"github.com/matzehuels/pkgrun/pkg/manifest"
	"github.com/matzehuels/pkgrun/pkg/npm"
	"github.com/matzehuels/pkgrun/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "pkgrun"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Exec runs package-manager processes. New sets a local executor;
	// tests replace it.
	Exec exec.Executor

	out    io.Writer // command output
	errOut io.Writer // spinner and streamed stderr
	outMu  sync.Mutex

	global globalOpts
}

// globalOpts holds the persistent flags shared by every command.
type globalOpts struct {
	configPath string
	npmClient  string
	registry   string
	mutex      string
}

// New creates a CLI logging to w at level. Command output goes to stdout.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	return &CLI{
		Logger: logger,
		Exec:   exec.NewLocal(logger),
		out:    os.Stdout,
		errOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// interactive reports whether progress output goes to a terminal.
func (c *CLI) interactive() bool {
	f, ok := c.errOut.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "pkgrun drives npm and yarn across the packages of a monorepo",
		Long:          `pkgrun installs dependency subsets into monorepo packages by temporarily swapping their package.json, and wraps npm dist-tag, run and publish.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			manifest.SetLogger(c.Logger)
			if c.Logger.GetLevel() <= log.DebugLevel {
				h := &logHooks{logger: c.Logger}
				observability.SetExecHooks(h)
				observability.SetSwapHooks(h)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.global.configPath, "config", "", "config file (default: pkgrun.toml or lerna.json found upward from the working directory)")
	pf.StringVar(&c.global.npmClient, "npm-client", "", "install client: npm or yarn")
	pf.StringVar(&c.global.registry, "registry", "", "registry URL passed to npm as npm_config_registry")
	pf.StringVar(&c.global.mutex, "mutex", "", "yarn --mutex token, e.g. file:/tmp/.yarn-mutex")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.restoreCommand())
	root.AddCommand(c.distTagCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.publishCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates an npm runner for CLI use.
func (c *CLI) newRunner() *npm.Runner {
	return npm.NewRunner(c.Exec, c.Logger)
}

// loadConfig resolves the configuration file and applies flag overrides.
// Flags win only when set on the command line.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.File, error) {
	var (
		f   *config.File
		err error
	)
	if c.global.configPath != "" {
		f, err = config.Load(c.global.configPath)
	} else {
		f, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}
	if f.Path != "" {
		c.Logger.Debug("loaded config", "path", f.Path)
	}

	flags := cmd.Flags()
	if flags.Changed("npm-client") {
		f.NpmClient = c.global.npmClient
		f.Command.Bootstrap.NpmClient = ""
	}
	if flags.Changed("registry") {
		f.Registry = c.global.registry
		f.Command.Bootstrap.Registry = ""
	}
	if flags.Changed("mutex") {
		f.Mutex = c.global.mutex
		f.Command.Bootstrap.Mutex = ""
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
