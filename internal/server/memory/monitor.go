// Package memory watches process heap usage around large transfers and asks
// the runtime to return memory when thresholds are crossed.
//
// Reclamation is a hint. The real bound on memory comes from streaming large
// bodies and reusing buffers from a BufferPool for small ones.
package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/prometheus/procfs"
)

// Level classifies heap usage against the configured thresholds.
type Level int

const (
	LevelNormal Level = iota
	LevelWarning
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Stats are raw byte counts as read from the runtime and the OS.
type Stats struct {
	HeapUsed  uint64
	HeapTotal uint64
	RSS       uint64
}

// Sample is one classified measurement.
type Sample struct {
	Stats
	HeapUsedMB  float64
	HeapTotalMB float64
	RSSMB       float64
	Level       Level
	At          time.Time
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Level         Level
	ShouldCleanup bool
}

// Thresholds configure classification and reclamation cadence.
type Thresholds struct {
	Warning  uint64
	Critical uint64
	Cooldown time.Duration
	// Delta triggers a reclaim in Track when heap growth over one operation
	// exceeds it, whatever the level.
	Delta uint64
}

type (
	Reader    func() Stats
	Reclaimer func()
	Clock     func() time.Time
)

// Monitor is safe for concurrent use. Its only state is the time of the last
// cleanup, shared by all requests.
type Monitor struct {
	th      Thresholds
	read    Reader
	reclaim Reclaimer
	now     Clock
	log     logging.Logger

	mu          sync.Mutex
	lastCleanup time.Time
}

type Option func(*Monitor)

func WithReader(r Reader) Option { return func(m *Monitor) { m.read = r } }

// WithReclaimer replaces the default reclaimer. A nil reclaimer turns
// Reclaim into a logged no-op.
func WithReclaimer(r Reclaimer) Option { return func(m *Monitor) { m.reclaim = r } }

func WithClock(c Clock) Option { return func(m *Monitor) { m.now = c } }

func New(th Thresholds, log logging.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		th:      th,
		read:    ReadStats,
		reclaim: debug.FreeOSMemory,
		now:     time.Now,
		log:     log.With("module", "memory"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// readRSS is a seam over procfs; it fails on platforms without /proc.
var readRSS = func() (uint64, error) {
	p, err := procfs.Self()
	if err != nil {
		return 0, err
	}
	st, err := p.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(st.ResidentMemory()), nil
}

// ReadStats reads heap figures from the Go runtime and RSS from /proc. Without
// /proc the total memory obtained from the OS stands in for RSS.
func ReadStats() Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	rss, err := readRSS()
	if err != nil {
		rss = ms.Sys
	}
	return Stats{HeapUsed: ms.HeapAlloc, HeapTotal: ms.HeapSys, RSS: rss}
}

func toMB(b uint64) float64 {
	return math.Round(float64(b)/(1<<20)*100) / 100
}

// Classify places heapUsed into a Level. The critical threshold is inclusive.
func (m *Monitor) Classify(heapUsed uint64) Level {
	switch {
	case heapUsed >= m.th.Critical:
		return LevelCritical
	case heapUsed >= m.th.Warning:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// Sample takes a measurement and updates the gauges.
func (m *Monitor) Sample() Sample {
	st := m.read()
	s := Sample{
		Stats:       st,
		HeapUsedMB:  toMB(st.HeapUsed),
		HeapTotalMB: toMB(st.HeapTotal),
		RSSMB:       toMB(st.RSS),
		Level:       m.Classify(st.HeapUsed),
		At:          m.now(),
	}
	heapUsedBytes.Set(float64(st.HeapUsed))
	rssBytes.Set(float64(st.RSS))
	return s
}

// Evaluate decides whether s warrants a cleanup now. Critical always does.
// Warning does only when the cool-down has passed since the last cleanup.
// A positive decision records the current time as the last cleanup.
func (m *Monitor) Evaluate(s Sample) Decision {
	d := Decision{Level: s.Level}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	switch s.Level {
	case LevelCritical:
		d.ShouldCleanup = true
	case LevelWarning:
		d.ShouldCleanup = m.lastCleanup.IsZero() || now.Sub(m.lastCleanup) >= m.th.Cooldown
	}
	if d.ShouldCleanup {
		m.lastCleanup = now
	}
	return d
}

// LastCleanup returns when a cleanup was last decided or performed.
func (m *Monitor) LastCleanup() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCleanup
}

// Reclaim runs the reclaimer. reason labels the reclaim counter.
func (m *Monitor) Reclaim(ctx context.Context, reason string) {
	if m.reclaim == nil {
		m.log.Warn(ctx, "memory reclamation is not available", "reason", reason)
		return
	}
	m.reclaim()
	reclaimsTotal.WithLabelValues(reason).Inc()

	m.mu.Lock()
	m.lastCleanup = m.now()
	m.mu.Unlock()
}

func (m *Monitor) cooledDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCleanup.IsZero() || m.now().Sub(m.lastCleanup) >= m.th.Cooldown
}

// Track samples memory around fn, logs the delta and reclaims when the after
// sample calls for it or the heap grew by more than the configured delta.
// Growth alone never reclaims twice inside one cool-down window.
func (m *Monitor) Track(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	before := m.Sample()
	m.log.Debug(ctx, "memory before operation", "op", op,
		"heap_used_mb", before.HeapUsedMB, "rss_mb", before.RSSMB, "level", before.Level.String())

	err := fn(ctx)

	after := m.Sample()
	delta := int64(after.HeapUsed) - int64(before.HeapUsed)
	m.log.Debug(ctx, "memory after operation", "op", op,
		"heap_used_mb", after.HeapUsedMB, "rss_mb", after.RSSMB, "level", after.Level.String(),
		"delta_mb", math.Round(float64(delta)/(1<<20)*100)/100)

	d := m.Evaluate(after)
	switch {
	case d.ShouldCleanup:
		m.log.Warn(ctx, "memory pressure, reclaiming", "op", op, "level", d.Level.String(), "heap_used_mb", after.HeapUsedMB)
		m.Reclaim(ctx, d.Level.String())
	case delta > 0 && uint64(delta) > m.th.Delta:
		if !m.cooledDown() {
			m.log.Debug(ctx, "large heap growth inside cool-down, not reclaiming", "op", op, "delta_bytes", delta)
			break
		}
		m.log.Info(ctx, "large heap growth, reclaiming", "op", op, "delta_bytes", delta)
		m.Reclaim(ctx, "delta")
	}

	return err
}
