package transfer

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

// Progress is one snapshot of a running batch.
type Progress struct {
	FileName   string
	FileIndex  int
	FileCount  int
	FileBytes  int64
	FileSize   int64
	BatchBytes int64
	BatchTotal int64
	Elapsed    time.Duration
	Via        Via
	Done       bool
}

// Percent of the current file, 0..100.
func (p Progress) Percent() float64 {
	if p.Done {
		return 100
	}
	if p.FileSize <= 0 {
		return 0
	}
	return float64(p.FileBytes) / float64(p.FileSize) * 100
}

// UploadedMB is the batch byte count in mebibytes.
func (p Progress) UploadedMB() float64 {
	return float64(p.BatchBytes) / float64(common.MiB)
}

// Throughput is batch bytes per second since the batch started.
func (p Progress) Throughput() float64 {
	secs := p.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(p.BatchBytes) / secs
}

// tracker turns raw byte counts from any attempt into monotonic, clamped
// progress events.
type tracker struct {
	mu      sync.Mutex
	start   time.Time
	now     func() time.Time
	emit    func(Progress)
	total   int64
	count   int
	done    int64
	current Progress
}

func newTracker(files []File, now func() time.Time, emit func(Progress)) *tracker {
	return &tracker{
		start: now(),
		now:   now,
		emit:  emit,
		total: TotalSize(files),
		count: len(files),
	}
}

func (t *tracker) begin(i int, f File) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Progress{
		FileName:   f.Name,
		FileIndex:  i,
		FileCount:  t.count,
		FileSize:   f.Size,
		BatchTotal: t.total,
		Via:        ViaDirect,
	}
	t.publish()
}

func (t *tracker) switchTo(via Via) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.Via = via
}

// sent records that the active attempt has sent n bytes of the file.
func (t *tracker) sent(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n > t.current.FileSize {
		n = t.current.FileSize
	}
	if n <= t.current.FileBytes {
		return
	}
	t.current.FileBytes = n
	t.publish()
}

func (t *tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.FileBytes = t.current.FileSize
	t.current.Done = true
	t.publish()
	t.done += t.current.FileSize
}

func (t *tracker) publish() {
	t.current.BatchBytes = t.done + t.current.FileBytes
	t.current.Elapsed = t.now().Sub(t.start)
	if t.emit != nil {
		t.emit(t.current)
	}
}
