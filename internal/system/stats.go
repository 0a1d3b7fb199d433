package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MemoryStats is a snapshot of host and process memory usage.
type MemoryStats struct {
	TotalBytes     uint64
	AvailableBytes uint64
	UsedPercent    float64
	ProcessRSS     uint64
}

// ReadMemoryStats samples memory through gopsutil. Process RSS is left at zero
// when the platform does not expose it.
func ReadMemoryStats() (MemoryStats, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}, fmt.Errorf("virtual memory: %w", err)
	}
	stats := MemoryStats{
		TotalBytes:     vm.Total,
		AvailableBytes: vm.Available,
		UsedPercent:    vm.UsedPercent,
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			stats.ProcessRSS = mi.RSS
		}
	}
	return stats, nil
}

// MemoryReport formats ReadMemoryStats for the performance report.
func MemoryReport() string {
	s, err := ReadMemoryStats()
	if err != nil {
		return fmt.Sprintf("Memory: n/a (%v)", err)
	}
	return fmt.Sprintf("Memory: RSS %s | System %.1f%% used, %s free of %s",
		formatBytes(s.ProcessRSS), s.UsedPercent, formatBytes(s.AvailableBytes), formatBytes(s.TotalBytes))
}

// LogicalCPUs returns the logical core count, falling back to 1.
func LogicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
