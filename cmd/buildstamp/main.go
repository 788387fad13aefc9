// Package main is the entry point for buildstamp.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pandeptwidyaop/buildstamp/internal/builder"
	"github.com/pandeptwidyaop/buildstamp/internal/config"
	"github.com/pandeptwidyaop/buildstamp/internal/database"
	"github.com/pandeptwidyaop/buildstamp/internal/logger"
	"github.com/pandeptwidyaop/buildstamp/internal/models"
	"github.com/pandeptwidyaop/buildstamp/internal/services"
	"github.com/pandeptwidyaop/buildstamp/internal/version"
	"github.com/pandeptwidyaop/buildstamp/internal/webversion"
)

// usageError marks errors caused by bad command-line input; they are
// reported together with the usage text.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// cli carries what the commands share: output streams and the flags of the
// root command.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	output     string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes buildstamp with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	var uerr usageError
	if errors.As(err, &uerr) {
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
	}
	return 1
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError{fmt.Errorf("unexpected argument %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "buildstamp [-o output]",
		Short: "Build a Go program with version metadata stamped in",
		Long: `buildstamp compiles the Go package in the current directory and injects
build metadata through linker flags: build time, compiler version, git author,
git commit, git describe version and the latest release of a companion web
project.

Examples:
  buildstamp
  buildstamp -o bin/server
  buildstamp -c ci/buildstamp.yaml history --limit 10`,
		Args:              noArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE:              c.runBuild,
	}

	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.Flags().StringVarP(&c.output, "output", "o", "", "output path (default ./<app name>)")
	c.bindGlobalFlags(root.PersistentFlags())

	root.AddCommand(c.versionCmd(), c.historyCmd(), c.serveCmd())
	return root
}

// bindGlobalFlags registers the flags every subcommand accepts.
func (c *cli) bindGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "path to config file (default "+config.DefaultFile+")")
	fs.StringVar(&c.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the metadata stamped into buildstamp itself",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(c.stdout, "buildstamp %s\n", version.Version)
			_, _ = fmt.Fprintf(c.stdout, "Built At:    %s\n", version.BuiltAt)
			_, _ = fmt.Fprintf(c.stdout, "Go Version:  %s\n", version.GoVersion)
			_, _ = fmt.Fprintf(c.stdout, "Git Author:  %s\n", version.GitAuthor)
			_, _ = fmt.Fprintf(c.stdout, "Git Commit:  %s\n", version.GitCommit)
			_, _ = fmt.Fprintf(c.stdout, "Web Version: %s\n", version.WebVersion)
		},
	}
}

// load captures the process environment and reads the config. A missing
// default config file is not an error.
func (c *cli) load() (*config.Config, config.Env, logger.Logger, error) {
	env, err := config.CurrentEnv()
	if err != nil {
		return nil, env, nil, err
	}

	path := c.configPath
	if path == "" {
		path = config.DefaultFile
	}

	cfg, err := config.Load(path, env)
	if errors.Is(err, config.ErrConfigNotFound) && c.configPath == "" {
		cfg, err = config.Load("", env)
	}
	if err != nil {
		return nil, env, nil, err
	}

	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	return cfg, env, logger.New(cfg.Log.Level, cfg.Log.IsPretty()), nil
}

// openHistory opens and migrates the build history database.
func openHistory(cfg *config.Config) (*database.DB, *services.HistoryService, error) {
	db, err := database.New(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return db, services.NewHistoryService(db, cfg.Build.MaxOutputSize), nil
}

func (c *cli) runBuild(cmd *cobra.Command, args []string) error {
	cfg, env, log, err := c.load()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	deps := builder.Deps{
		Fetcher:     webversion.NewClient(cfg.Web.GetTimeout(), "buildstamp/"+version.Version),
		Log:         log,
		Stdout:      c.stdout,
		Stderr:      c.stderr,
		Interactive: isTerminal(c.stderr),
	}

	if cfg.History.Enabled {
		db, history, err := openHistory(cfg)
		if err != nil {
			log.Warn("build history disabled", logger.Error(err))
		} else {
			defer func() { _ = db.Close() }()
			deps.History = history
		}
	}

	build, err := builder.New(cfg, env, deps).Run(cmd.Context(), c.output)
	if err != nil {
		return err
	}
	if build.Status != models.BuildSuccess {
		return fmt.Errorf("build failed with exit code %d", build.ExitCode)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
