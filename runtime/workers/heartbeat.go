package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"presence-lab/observability"
)

// Heartbeat periodically logs process health alongside the presence
// counters, giving an operator a pulse without any external monitoring
// dependency.
type Heartbeat struct {
	log      *slog.Logger
	stats    *observability.Stats
	online   func() int
	rooms    func() int
	interval time.Duration
}

func NewHeartbeat(log *slog.Logger, stats *observability.Stats,
	online, rooms func() int, interval time.Duration) *Heartbeat {
	return &Heartbeat{log: log, stats: stats, online: online, rooms: rooms, interval: interval}
}

func (w *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			snap := w.stats.Snapshot()
			w.log.Info("Presence heartbeat",
				"online", w.online(),
				"rooms", w.rooms(),
				"connects", snap.Connects,
				"disconnects", snap.Disconnects,
				"messages", snap.MessagesBroadcast,
				"rejected", snap.RejectedTransitions,
				"rss_mb", rss/1024/1024,
				"cpu_percent", cpu,
				"pid_status", status,
			)
		}
	}
}

// selfStats retrieves memory, CPU and OS status for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
