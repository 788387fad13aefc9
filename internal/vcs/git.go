// Package vcs reads build metadata from version control.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEmptyOutput is returned when git succeeds but prints nothing.
var ErrEmptyOutput = errors.New("empty output")

// VersionControlProvider answers the questions the metadata collector asks
// about HEAD.
type VersionControlProvider interface {
	InsideRepo(ctx context.Context) bool
	Author(ctx context.Context) (string, error)
	Commit(ctx context.Context) (string, error)
	Describe(ctx context.Context) (string, error)
}

// Git shells out to the git executable.
type Git struct {
	Bin string
	Dir string
	Env []string
}

// NewGit creates a Git provider running bin inside dir.
func NewGit(bin, dir string, env []string) *Git {
	if bin == "" {
		bin = "git"
	}
	return &Git{Bin: bin, Dir: dir, Env: env}
}

// InsideRepo reports whether Dir is within a git work tree.
func (g *Git) InsideRepo(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Author returns the committer of HEAD as "Name <email>".
func (g *Git) Author(ctx context.Context) (string, error) {
	return g.run(ctx, "log", "-1", "--pretty=format:%cn <%ce>")
}

// Commit returns the abbreviated hash of HEAD.
func (g *Git) Commit(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--short", "HEAD")
}

// Describe returns the nearest tag with distance, hash and a dirty marker,
// or the bare hash when nothing is tagged.
func (g *Git) Describe(ctx context.Context) (string, error) {
	return g.run(ctx, "describe", "--long", "--tags", "--dirty", "--always")
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.Bin, args...)
	cmd.Dir = g.Dir
	if len(g.Env) > 0 {
		cmd.Env = g.Env
	}

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	s := strings.TrimSpace(string(out))
	if s == "" {
		return "", fmt.Errorf("git %s: %w", args[0], ErrEmptyOutput)
	}
	return s, nil
}
