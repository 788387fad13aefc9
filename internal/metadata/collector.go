// Package metadata gathers the values stamped into a build.
package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/pandeptwidyaop/buildstamp/internal/ldflags"
	"github.com/pandeptwidyaop/buildstamp/internal/logger"
	"github.com/pandeptwidyaop/buildstamp/internal/models"
	"github.com/pandeptwidyaop/buildstamp/internal/probe"
	"github.com/pandeptwidyaop/buildstamp/internal/vcs"
	"github.com/pandeptwidyaop/buildstamp/internal/webversion"
)

// CompilerVersioner is the part of toolchain.Compiler the collector needs.
type CompilerVersioner interface {
	Version(ctx context.Context) (string, error)
}

// Collector fills a models.Metadata. Only the compiler version is required;
// every other source degrades to its documented default.
type Collector struct {
	Compiler CompilerVersioner
	VCS      vcs.VersionControlProvider
	Fetcher  webversion.HTTPFetcher

	// WebURL is the latest-release endpoint queried through Fetcher.
	WebURL     string
	WebTimeout time.Duration

	Now func() time.Time
	Log logger.Logger
}

// Collect gathers metadata for a build writing to output. tools decides
// which optional sources are consulted.
func (c *Collector) Collect(ctx context.Context, tools probe.Tools, output string) (models.Metadata, error) {
	m := models.Metadata{
		OutputPath: output,
		BuiltAt:    c.now().Format(models.BuiltAtLayout),
		GitAuthor:  models.UnknownAuthor,
		GitCommit:  models.UnknownCommit,
		Version:    models.DefaultVersion,
		WebVersion: models.DefaultWebVersion,
	}

	compilerVersion, err := c.Compiler.Version(ctx)
	if err != nil {
		return m, fmt.Errorf("failed to query compiler version: %w", err)
	}
	m.CompilerVersion = compilerVersion

	if tools.VCS && c.VCS != nil {
		c.collectGit(ctx, &m)
	}

	if tools.HTTP && c.Fetcher != nil && c.WebURL != "" {
		m.WebVersion = c.webVersion(ctx)
	}

	c.ensureQuotable(&m)

	return m, nil
}

// ensureQuotable replaces collected values that no -ldflags field can
// carry with their defaults.
func (c *Collector) ensureQuotable(m *models.Metadata) {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"compiler_version", &m.CompilerVersion, models.UnknownCompiler},
		{"git_author", &m.GitAuthor, models.UnknownAuthor},
		{"git_commit", &m.GitCommit, models.UnknownCommit},
		{"version", &m.Version, models.DefaultVersion},
		{"web_version", &m.WebVersion, models.DefaultWebVersion},
	}

	for _, f := range fields {
		if ldflags.Quotable(*f.value) {
			continue
		}
		c.log().Warn("value holds both quote characters, using default",
			logger.String("field", f.name),
			logger.String("value", *f.value),
			logger.String("default", f.def))
		*f.value = f.def
	}
}

func (c *Collector) collectGit(ctx context.Context, m *models.Metadata) {
	if author, err := c.VCS.Author(ctx); err == nil {
		m.GitAuthor = author
	} else {
		c.log().Warn("failed to read git author", logger.Error(err))
	}

	if commit, err := c.VCS.Commit(ctx); err == nil {
		m.GitCommit = commit
	} else {
		c.log().Warn("failed to read git commit", logger.Error(err))
	}

	if version, err := c.VCS.Describe(ctx); err == nil {
		m.Version = version
	} else {
		c.log().Warn("failed to describe git version", logger.Error(err))
	}
}

func (c *Collector) webVersion(ctx context.Context) string {
	timeout := c.WebTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := webversion.Latest(ctx, c.Fetcher, c.WebURL)
	if err != nil {
		c.log().Warn("failed to fetch web version, using default",
			logger.String("url", c.WebURL),
			logger.String("web_version", models.DefaultWebVersion),
			logger.Error(err))
		return models.DefaultWebVersion
	}

	if !webversion.IsSemver(v) {
		c.log().Warn("web version is not a semantic version", logger.String("web_version", v))
	}
	return v
}

func (c *Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Collector) log() logger.Logger {
	if c.Log == nil {
		return logger.Nop()
	}
	return c.Log
}
