package metrics

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandeptwidyaop/buildstamp/internal/models"
)

func TestHostSnapshot(t *testing.T) {
	h := HostSnapshot(context.Background())

	assert.NotEmpty(t, h.OS)
	assert.Greater(t, h.CPUs, 0)
}

func TestHostSnapshot_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := HostSnapshot(ctx)

	assert.Equal(t, runtime.GOOS, h.OS)
	assert.Equal(t, runtime.NumCPU(), h.CPUs)
	assert.Empty(t, h.Hostname)
}

func TestWriteBuildMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildstamp.prom")
	finished := time.Unix(1714550400, 0)

	b := &models.Build{
		AppName: "inventory",
		Metadata: models.Metadata{
			CompilerVersion: "go1.22.3 linux/amd64",
			GitCommit:       "abc1234",
			Version:         "v1.2.0",
			WebVersion:      "4.2.1",
		},
		Status:     models.BuildSuccess,
		StartedAt:  finished.Add(-1500 * time.Millisecond),
		FinishedAt: finished,
	}

	require.NoError(t, WriteBuildMetrics(path, b))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `buildstamp_build_duration_seconds{app="inventory"} 1.5`)
	assert.Contains(t, text, `buildstamp_build_success{app="inventory"} 1`)
	assert.Contains(t, text, `buildstamp_build_timestamp_seconds{app="inventory"} 1.7145504e+09`)
	assert.Contains(t, text, `buildstamp_build_info{app="inventory",commit="abc1234",compiler="go1.22.3 linux/amd64",version="v1.2.0",web_version="4.2.1"} 1`)
}

func TestWriteBuildMetrics_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildstamp.prom")

	b := &models.Build{AppName: "app", Status: models.BuildFailed}
	require.NoError(t, WriteBuildMetrics(path, b))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `buildstamp_build_success{app="app"} 0`)
}

func TestWriteBuildMetrics_BadPath(t *testing.T) {
	b := &models.Build{AppName: "app"}
	assert.Error(t, WriteBuildMetrics(filepath.Join(t.TempDir(), "missing", "x.prom"), b))
}
