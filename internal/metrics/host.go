// Package metrics records where a build ran and exports build results.
package metrics

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/pandeptwidyaop/buildstamp/internal/models"
)

// HostSnapshot describes the current machine. Lookups that fail leave
// their fields at runtime-derived or zero values.
func HostSnapshot(ctx context.Context) models.Host {
	snapshot := models.Host{
		OS:   runtime.GOOS,
		CPUs: runtime.NumCPU(),
	}

	if ctx.Err() != nil {
		return snapshot
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		snapshot.Hostname = info.Hostname
		if info.OS != "" {
			snapshot.OS = info.OS
		}
		snapshot.Platform = info.Platform
		if info.PlatformVersion != "" {
			snapshot.Platform += " " + info.PlatformVersion
		}
	}

	if ctx.Err() != nil {
		return snapshot
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		snapshot.CPUs = n
	}

	return snapshot
}
