package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pandeptwidyaop/buildstamp/internal/models"
)

const namespace = "buildstamp"

// WriteBuildMetrics writes b as a Prometheus textfile at path, for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteBuildMetrics(path string, b *models.Build) error {
	reg := prometheus.NewRegistry()

	labels := prometheus.Labels{"app": b.AppName}

	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_duration_seconds",
		Help:        "Wall time of the last compiler invocation.",
		ConstLabels: labels,
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_success",
		Help:        "1 if the last build succeeded, 0 otherwise.",
		ConstLabels: labels,
	})
	timestamp := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_timestamp_seconds",
		Help:        "Unix time the last build finished.",
		ConstLabels: labels,
	})
	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Metadata stamped into the last build.",
		ConstLabels: labels,
	}, []string{"version", "commit", "web_version", "compiler"})

	reg.MustRegister(duration, success, timestamp, info)

	duration.Set(b.Duration().Seconds())
	if b.Status == models.BuildSuccess {
		success.Set(1)
	}
	timestamp.Set(float64(b.FinishedAt.Unix()))
	info.WithLabelValues(
		b.Metadata.Version,
		b.Metadata.GitCommit,
		b.Metadata.WebVersion,
		b.Metadata.CompilerVersion,
	).Set(1)

	return prometheus.WriteToTextfile(path, reg)
}
