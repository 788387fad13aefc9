// Package toolchain drives the Go compiler.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Compiler reports its version and builds a package.
type Compiler interface {
	Version(ctx context.Context) (string, error)
	Build(ctx context.Context, req BuildRequest) (int, error)
}

// BuildRequest describes a single `go build` invocation.
type BuildRequest struct {
	LDFlags string
	Output  string
	Target  string

	// Compiler output is copied here unmodified.
	Stdout io.Writer
	Stderr io.Writer
}

// Go runs the go command found at Bin.
type Go struct {
	Bin string
	Dir string
	Env []string
}

// NewGo creates a Go compiler running bin inside dir.
func NewGo(bin, dir string, env []string) *Go {
	if bin == "" {
		bin = "go"
	}
	return &Go{Bin: bin, Dir: dir, Env: env}
}

// Version returns `go version` without its "go version " prefix,
// e.g. "go1.22.3 linux/amd64".
func (g *Go) Version(ctx context.Context) (string, error) {
	cmd := g.command(ctx, "version")

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("go version: %w", err)
	}

	v := strings.TrimSpace(string(out))
	v = strings.TrimPrefix(v, "go version ")
	if v == "" {
		return "", errors.New("go version: empty output")
	}
	return v, nil
}

// Build runs `go build -ldflags <flags> -o <output> <target>` and returns the
// exit code. err is non-nil only when the command could not be run at all.
func (g *Go) Build(ctx context.Context, req BuildRequest) (int, error) {
	args := BuildArgs(req)
	cmd := g.command(ctx, args...)
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("go build: %w", err)
}

// BuildArgs returns the argv passed to the go command for req.
func BuildArgs(req BuildRequest) []string {
	target := req.Target
	if target == "" {
		target = "."
	}

	args := []string{"build"}
	if req.LDFlags != "" {
		args = append(args, "-ldflags", req.LDFlags)
	}
	if req.Output != "" {
		args = append(args, "-o", req.Output)
	}
	return append(args, target)
}

func (g *Go) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, g.Bin, args...)
	cmd.Dir = g.Dir
	if len(g.Env) > 0 {
		cmd.Env = g.Env
	}
	return cmd
}
