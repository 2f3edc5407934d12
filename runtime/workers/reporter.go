package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"room-lab/contract"
	"room-lab/domain"
	"room-lab/repositories"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*ReporterWorker)(nil)

// ReporterStats is a snapshot of the notification counters.
type ReporterStats struct {
	Fills      int64
	Delivered  int64
	Failed     int64
	PublicOpen int
	Waiting    int
}

// ProcessStats is the resource usage of the running engine process.
type ProcessStats struct {
	PID           int32
	CPUPercent    float64
	RSS           uint64
	MemoryPercent float32
}

// ReporterWorker periodically logs the public pool occupancy, the
// delivery outcome of every fill seen through Record and the CPU and
// memory usage of the process.
type ReporterWorker struct {
	repository repositories.IRoomRepository
	interval   time.Duration
	log        *slog.Logger
	proc       *process.Process
	fills      atomic.Int64
	delivered  atomic.Int64
	failed     atomic.Int64
}

func NewReporterWorker(repository repositories.IRoomRepository, interval time.Duration, log *slog.Logger) *ReporterWorker {
	w := &ReporterWorker{repository: repository, interval: interval, log: log}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "pid", os.Getpid(), "error", err)
	} else {
		w.proc = proc
	}
	return w
}

// Record is meant to be registered with FillNotifierWorker.OnReport.
func (w *ReporterWorker) Record(report domain.DispatchReport) {
	w.fills.Add(1)
	w.delivered.Add(int64(report.Delivered()))
	w.failed.Add(int64(report.Failed()))
}

// Run starts the reporting loop until context cancellation
func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			w.log.Debug("Reporter stopped")
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *ReporterWorker) Stats() (ReporterStats, error) {
	rooms, err := w.repository.ListPublicRooms()
	if err != nil {
		return ReporterStats{}, err
	}
	return ReporterStats{
		Fills:      w.fills.Load(),
		Delivered:  w.delivered.Load(),
		Failed:     w.failed.Load(),
		PublicOpen: len(rooms),
		Waiting: lo.SumBy(rooms, func(room domain.Room) int {
			return len(room.Participants)
		}),
	}, nil
}

// Process samples the engine process. CPUPercent is averaged over the
// process lifetime.
func (w *ReporterWorker) Process() (ProcessStats, error) {
	if w.proc == nil {
		return ProcessStats{}, fmt.Errorf("process %d not tracked", os.Getpid())
	}
	cpu, err := w.proc.CPUPercent()
	if err != nil {
		return ProcessStats{}, fmt.Errorf("cpu usage: %w", err)
	}
	mem, err := w.proc.MemoryInfo()
	if err != nil {
		return ProcessStats{}, fmt.Errorf("memory usage: %w", err)
	}
	ram, err := w.proc.MemoryPercent()
	if err != nil {
		return ProcessStats{}, fmt.Errorf("memory share: %w", err)
	}
	return ProcessStats{PID: w.proc.Pid, CPUPercent: cpu, RSS: mem.RSS, MemoryPercent: ram}, nil
}

func (w *ReporterWorker) report() {
	attrs := []any{}
	if proc, err := w.Process(); err != nil {
		w.log.Debug("Process sample skipped", "error", err)
	} else {
		attrs = append(attrs,
			"pid", proc.PID,
			"cpu_percent", proc.CPUPercent,
			"rss_bytes", proc.RSS,
			"ram_percent", proc.MemoryPercent)
	}

	stats, err := w.Stats()
	if err != nil {
		w.log.Warn("Pool status unavailable", append(attrs, "error", err)...)
		return
	}
	w.log.Info("Pool status", append([]any{
		"public_rooms", stats.PublicOpen,
		"waiting", stats.Waiting,
		"fills", stats.Fills,
		"delivered", stats.Delivered,
		"failed", stats.Failed,
	}, attrs...)...)
}
