package models

import "time"

// Fallback values used when a metadata source is unavailable.
const (
	UnknownAuthor     = "unknown <unknown>"
	UnknownCommit     = "unknown"
	UnknownCompiler   = "unknown"
	DefaultVersion    = "v0.0.0"
	DefaultWebVersion = "0.0.0"
)

// BuiltAtLayout is the timestamp format stamped into binaries.
const BuiltAtLayout = "2006-01-02 15:04:05 -0700"

// Metadata is the build record collected before invoking the compiler.
// Every field is populated, falling back to the defaults above.
type Metadata struct {
	OutputPath      string `json:"output_path"`
	BuiltAt         string `json:"built_at"`
	CompilerVersion string `json:"compiler_version"`
	GitAuthor       string `json:"git_author"`
	GitCommit       string `json:"git_commit"`
	Version         string `json:"version"`
	WebVersion      string `json:"web_version"`
}

// BuildStatus represents the outcome of a build.
type BuildStatus string

const (
	// BuildSuccess indicates the compiler exited with code 0.
	BuildSuccess BuildStatus = "success"
	// BuildFailed indicates the compiler could not run or exited non-zero.
	BuildFailed BuildStatus = "failed"
)

// Host describes the machine a build ran on.
type Host struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Platform string `json:"platform"`
	CPUs     int    `json:"cpus"`
}

// Build is a recorded invocation of the compiler.
type Build struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Metadata   Metadata    `json:"metadata"`
	Host       Host        `json:"host"`
	ID         string      `json:"id"`
	AppName    string      `json:"app_name"`
	Status     BuildStatus `json:"status"`
	Output     string      `json:"output"`
	ExitCode   int         `json:"exit_code"`
}

// Duration returns how long the compiler ran.
func (b *Build) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}
