// Package health samples device resource usage so field crews can spot a
// dying tablet from the telemetry stream.
package health

import (
	"github.com/detect-field/trackpoint/internal/models"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// Collector gathers CPU and memory usage snapshots.
type Collector struct {
	logger zerolog.Logger
}

// NewCollector creates a health collector.
func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{logger: logger}
}

// Collect returns the current resource usage. Individual probe failures are
// logged and leave the corresponding field nil.
func (c *Collector) Collect() *models.HealthSnapshot {
	snapshot := &models.HealthSnapshot{}

	cpuPercentages, err := cpu.Percent(0, false)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to get CPU usage")
	} else if len(cpuPercentages) > 0 {
		snapshot.CPUPercent = &cpuPercentages[0]
	}

	memStats, err := mem.VirtualMemory()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to retrieve memory statistics")
	} else {
		snapshot.MemoryPercent = &memStats.UsedPercent
	}

	return snapshot
}
