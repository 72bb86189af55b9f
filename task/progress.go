package task

import (
	"sync"
	"time"
)

// Smoothing weight of the newest ETA sample.
const smoothingAlpha = 0.3

// Stage names reported while an analysis runs.
const (
	StageDiscover  = "discover"
	StageLoad      = "load"
	StageSegment   = "segment"
	StageScore     = "score"
	StageBalance   = "balance"
	StageDone      = "done"
	StageCancelled = "cancelled"
)

// Progress is a point-in-time copy of a run's progress.
type Progress struct {
	Stage          string        `json:"stage"`
	FilesProcessed int           `json:"files_processed"`
	TotalFiles     int           `json:"total_files"`
	BytesProcessed int64         `json:"bytes_processed"`
	TotalBytes     int64         `json:"total_bytes"`
	CurrentFile    string        `json:"current_file,omitempty"`
	Message        string        `json:"message,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	Elapsed        time.Duration `json:"elapsed"`
	ETA            time.Duration `json:"eta"`
	HasETA         bool          `json:"has_eta"`
}

// Fraction is files processed over total files, or 0 with no files.
func (p Progress) Fraction() float64 {
	if p.TotalFiles <= 0 {
		return 0
	}
	return float64(p.FilesProcessed) / float64(p.TotalFiles)
}

// Tracker is written by the worker and polled by callers. Counters never
// decrease.
type Tracker struct {
	mu  sync.RWMutex
	p   Progress
	now func() time.Time
}

// NewTracker starts the clock.
func NewTracker() *Tracker {
	return newTrackerAt(time.Now)
}

func newTrackerAt(now func() time.Time) *Tracker {
	return &Tracker{now: now, p: Progress{StartedAt: now()}}
}

// SetTotals records the size of the run. Totals only grow.
func (t *Tracker) SetTotals(files int, bytes int64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.TotalFiles = max(t.p.TotalFiles, files)
	t.p.TotalBytes = max(t.p.TotalBytes, bytes)
}

// SetStage records the current stage and an optional message.
func (t *Tracker) SetStage(stage, msg string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.Stage = stage
	t.p.Message = msg
}

// StartFile records the file being worked on.
func (t *Tracker) StartFile(name string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.CurrentFile = name
}

// FileDone counts one finished file of size bytes and refreshes the ETA.
func (t *Tracker) FileDone(bytes int64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.FilesProcessed++
	if bytes > 0 {
		t.p.BytesProcessed += bytes
	}
	t.p.CurrentFile = ""
	elapsed := t.now().Sub(t.p.StartedAt)
	if eta, ok := estimate(t.p.BytesProcessed, t.p.TotalBytes, elapsed); ok {
		if t.p.HasETA {
			eta = time.Duration(smoothingAlpha*float64(eta) + (1-smoothingAlpha)*float64(t.p.ETA))
		}
		t.p.ETA, t.p.HasETA = eta, true
	}
}

// estimate extrapolates the remaining time from byte throughput so far.
func estimate(done, total int64, elapsed time.Duration) (time.Duration, bool) {
	if done <= 0 || total <= 0 || elapsed <= 0 {
		return 0, false
	}
	remaining := total - done
	if remaining < 0 {
		remaining = 0
	}
	perByte := float64(elapsed) / float64(done)
	return time.Duration(perByte * float64(remaining)), true
}

// Snapshot returns a copy of the current progress.
func (t *Tracker) Snapshot() Progress {
	if t == nil {
		return Progress{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	p := t.p
	p.Elapsed = t.now().Sub(p.StartedAt)
	return p
}
