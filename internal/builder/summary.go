package builder

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pandeptwidyaop/buildstamp/internal/models"
)

// PrintSummary writes the metadata about to be stamped into the binary.
func PrintSummary(w io.Writer, appName, pkg string, m models.Metadata) error {
	if _, err := fmt.Fprintf(w, "Building %s\n", appName); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Output", m.OutputPath},
		{"Package", pkg},
		{"Built at", m.BuiltAt},
		{"Go version", m.CompilerVersion},
		{"Git author", m.GitAuthor},
		{"Git commit", m.GitCommit},
		{"Version", m.Version},
		{"Web version", m.WebVersion},
	})
	t.Render()
	return nil
}

// PrintHistory writes recorded builds as a table, newest first.
func PrintHistory(w io.Writer, builds []models.Build) {
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(w, "No builds recorded.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "App", "Version", "Commit", "Web", "Status", "Exit", "Duration", "Started"})
	for _, b := range builds {
		t.AppendRow(table.Row{
			shortID(b.ID),
			b.AppName,
			b.Metadata.Version,
			b.Metadata.GitCommit,
			b.Metadata.WebVersion,
			b.Status,
			b.ExitCode,
			b.Duration().Round(time.Millisecond),
			b.StartedAt.Local().Format(time.DateTime),
		})
	}
	t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
