// Package probe checks which external tools a build can rely on.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pandeptwidyaop/buildstamp/internal/logger"
)

var (
	// ErrCompilerNotFound is fatal: nothing can be built without the toolchain.
	ErrCompilerNotFound = errors.New("compiler not found")
	// ErrNotFound is returned by LookPath when no candidate is executable.
	ErrNotFound = errors.New("executable not found")
)

// RepoChecker reports whether the working directory is under version control.
type RepoChecker interface {
	InsideRepo(ctx context.Context) bool
}

// Options controls a probe run.
type Options struct {
	// Path is the executable search path, already split into directories.
	Path []string

	Compiler string
	VCS      string

	// HTTPReady is true when a fetcher is wired and a web release repo is
	// configured.
	HTTPReady bool

	// NewRepo builds a checker for the resolved VCS executable. It is only
	// called when the executable was found.
	NewRepo func(vcsPath string) RepoChecker
}

// Tools is the outcome of a probe. Optional capabilities that are missing are
// reported as false and never as an error.
type Tools struct {
	CompilerPath string
	VCSPath      string
	HTTP         bool
	VCS          bool
}

// Probe resolves the compiler and the optional tools.
func Probe(ctx context.Context, opts Options, log logger.Logger) (Tools, error) {
	var tools Tools

	compiler, err := LookPath(opts.Compiler, opts.Path)
	if err != nil {
		return tools, fmt.Errorf("%w: %s", ErrCompilerNotFound, opts.Compiler)
	}
	tools.CompilerPath = compiler

	if opts.HTTPReady {
		tools.HTTP = true
	} else {
		log.Warn("no web release repo configured, web version will default",
			logger.String("web_version", "0.0.0"))
	}

	vcs, err := LookPath(opts.VCS, opts.Path)
	switch {
	case err != nil:
		log.Warn("version control client not found, git metadata will default",
			logger.String("tool", opts.VCS))
	case opts.NewRepo != nil && !opts.NewRepo(vcs).InsideRepo(ctx):
		tools.VCSPath = vcs
		log.Warn("not inside a repository, git metadata will default")
	default:
		tools.VCSPath = vcs
		tools.VCS = true
	}

	return tools, nil
}

// LookPath searches dirs for an executable named name. It mirrors
// exec.LookPath but takes the search path explicitly.
func LookPath(name string, dirs []string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}

	if filepath.IsAbs(name) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	for _, dir := range dirs {
		if dir == "" {
			dir = "."
		}
		for _, candidate := range candidates(filepath.Join(dir, name)) {
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func candidates(path string) []string {
	if runtime.GOOS == "windows" && filepath.Ext(path) == "" {
		return []string{path + ".exe", path}
	}
	return []string{path}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
