// Package builder runs the build pipeline: probe tools, collect metadata,
// assemble linker flags and invoke the compiler.
package builder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/pandeptwidyaop/buildstamp/internal/config"
	"github.com/pandeptwidyaop/buildstamp/internal/ldflags"
	"github.com/pandeptwidyaop/buildstamp/internal/logger"
	"github.com/pandeptwidyaop/buildstamp/internal/metadata"
	"github.com/pandeptwidyaop/buildstamp/internal/metrics"
	"github.com/pandeptwidyaop/buildstamp/internal/models"
	"github.com/pandeptwidyaop/buildstamp/internal/probe"
	"github.com/pandeptwidyaop/buildstamp/internal/toolchain"
	"github.com/pandeptwidyaop/buildstamp/internal/vcs"
	"github.com/pandeptwidyaop/buildstamp/internal/webversion"
)

const (
	compilerName = "go"
	vcsName      = "git"
)

// HistoryRecorder stores finished builds.
type HistoryRecorder interface {
	Record(b *models.Build) error
}

// Deps are the collaborators of a Builder. The constructors receive the
// executable path resolved by the prober.
type Deps struct {
	NewCompiler func(bin string) toolchain.Compiler
	NewVCS      func(bin string) vcs.VersionControlProvider
	Fetcher     webversion.HTTPFetcher
	History     HistoryRecorder

	Log    logger.Logger
	Stdout io.Writer
	Stderr io.Writer

	// Interactive enables the progress spinner.
	Interactive bool

	Now  func() time.Time
	Host func(ctx context.Context) models.Host
}

// Builder builds one application as described by its config.
type Builder struct {
	cfg  *config.Config
	env  config.Env
	deps Deps
}

// New creates a Builder, filling unset Deps with their real implementations.
func New(cfg *config.Config, env config.Env, deps Deps) *Builder {
	environ := env.Environ()

	if deps.NewCompiler == nil {
		deps.NewCompiler = func(bin string) toolchain.Compiler {
			return toolchain.NewGo(bin, env.WorkDir, environ)
		}
	}
	if deps.NewVCS == nil {
		deps.NewVCS = func(bin string) vcs.VersionControlProvider {
			return vcs.NewGit(bin, env.WorkDir, environ)
		}
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if deps.Stderr == nil {
		deps.Stderr = io.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Host == nil {
		deps.Host = metrics.HostSnapshot
	}

	return &Builder{cfg: cfg, env: env, deps: deps}
}

// DefaultOutput is the output path used when -o is not given.
func DefaultOutput(cfg *config.Config) string {
	return "./" + cfg.App.Name
}

// Run executes the pipeline once. A returned error means the compiler never
// ran. Otherwise the build's Status tells whether compilation succeeded.
func (b *Builder) Run(ctx context.Context, output string) (*models.Build, error) {
	if output == "" {
		output = DefaultOutput(b.cfg)
	}

	tools, err := probe.Probe(ctx, probe.Options{
		Path:      b.env.Path,
		Compiler:  compilerName,
		VCS:       vcsName,
		HTTPReady: b.deps.Fetcher != nil && b.cfg.Web.Repo != "" && !b.cfg.Web.Disabled,
		NewRepo: func(bin string) probe.RepoChecker {
			return b.deps.NewVCS(bin)
		},
	}, b.deps.Log)
	if err != nil {
		return nil, err
	}

	compiler := b.deps.NewCompiler(tools.CompilerPath)

	meta, err := b.collect(ctx, tools, compiler, output)
	if err != nil {
		return nil, err
	}

	flags, err := ldflags.Assemble(b.cfg.Build.StripSymbols(), ldflags.Vars(b.cfg.App.Package, meta))
	if err != nil {
		return nil, fmt.Errorf("failed to assemble linker flags: %w", err)
	}

	if err := PrintSummary(b.deps.Stdout, b.cfg.App.Name, b.cfg.App.Package, meta); err != nil {
		return nil, err
	}

	return b.invoke(ctx, compiler, meta, flags)
}

func (b *Builder) collect(ctx context.Context, tools probe.Tools, compiler toolchain.Compiler, output string) (models.Metadata, error) {
	collector := &metadata.Collector{
		Compiler:   compiler,
		WebTimeout: b.cfg.Web.GetTimeout(),
		Now:        b.deps.Now,
		Log:        b.deps.Log,
	}
	if tools.VCS {
		collector.VCS = b.deps.NewVCS(tools.VCSPath)
	}
	if tools.HTTP {
		collector.Fetcher = b.deps.Fetcher
		collector.WebURL = webversion.LatestReleaseURL(b.cfg.Web.Repo)
	}

	if !b.deps.Interactive {
		return collector.Collect(ctx, tools, output)
	}

	// Warnings wait until the spinner has cleared its line.
	queued := logger.Defer(b.deps.Log)
	collector.Log = queued

	opt := spinner.WithWriter(b.deps.Stderr)
	if f, ok := b.deps.Stderr.(*os.File); ok {
		opt = spinner.WithWriterFile(f)
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, opt)
	s.Suffix = " Collecting build metadata..."
	s.Start()

	m, err := collector.Collect(ctx, tools, output)

	s.Stop()
	queued.Flush()
	return m, err
}

func (b *Builder) invoke(ctx context.Context, compiler toolchain.Compiler, meta models.Metadata, flags string) (*models.Build, error) {
	var captured bytes.Buffer
	req := toolchain.BuildRequest{
		LDFlags: flags,
		Output:  meta.OutputPath,
		Target:  b.cfg.App.Main,
		Stdout:  io.MultiWriter(b.deps.Stdout, &captured),
		Stderr:  io.MultiWriter(b.deps.Stderr, &captured),
	}

	build := &models.Build{
		AppName:   b.cfg.App.Name,
		Metadata:  meta,
		Host:      b.deps.Host(ctx),
		StartedAt: b.deps.Now(),
	}

	b.deps.Log.Debug("invoking compiler", logger.String("ldflags", flags))
	code, runErr := compiler.Build(ctx, req)

	build.FinishedAt = b.deps.Now()
	build.ExitCode = code
	build.Output = captured.String()
	build.Status = models.BuildSuccess
	if runErr != nil || code != 0 {
		build.Status = models.BuildFailed
	}
	if runErr != nil {
		build.Output += runErr.Error() + "\n"
	}

	b.record(build)

	if runErr != nil {
		return build, runErr
	}

	if build.Status == models.BuildSuccess {
		_, _ = fmt.Fprintf(b.deps.Stdout, "Build complete: %s\n", meta.OutputPath)
	}
	return build, nil
}

// record persists the build and its metrics. Failures here never change
// the outcome of the build.
func (b *Builder) record(build *models.Build) {
	if b.deps.History != nil {
		if err := b.deps.History.Record(build); err != nil {
			b.deps.Log.Warn("failed to record build history", logger.Error(err))
		}
	}

	if path := b.cfg.Build.MetricsFile; path != "" {
		if err := metrics.WriteBuildMetrics(path, build); err != nil {
			b.deps.Log.Warn("failed to write build metrics",
				logger.String("path", path), logger.Error(err))
		}
	}
}
