package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
)

// Watchdog keeps the idle set of one event current. It never holds more than
// one pending wake-up; every recomputation replaces it.
type Watchdog struct {
	threshold time.Duration
	now       func() time.Time
	onChange  func(Result)
	updates   chan *bracket.Snapshot

	mu   sync.RWMutex
	last Result

	snap  *bracket.Snapshot
	timer *time.Timer
}

// New creates a watchdog. onChange runs on the watchdog goroutine and only
// when the idle set differs from the previous one.
func New(threshold time.Duration, onChange func(Result)) *Watchdog {
	return &Watchdog{
		threshold: threshold,
		now:       time.Now,
		onChange:  onChange,
		updates:   make(chan *bracket.Snapshot, 1),
		last:      Result{Idle: make(Set)},
	}
}

// Update hands a fresh snapshot to the loop. Only the latest pending
// snapshot is kept.
func (w *Watchdog) Update(s *bracket.Snapshot) {
	for {
		select {
		case w.updates <- s:
			return
		default:
			select {
			case <-w.updates:
			default:
			}
		}
	}
}

// Last returns the most recently computed result.
func (w *Watchdog) Last() Result {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

// Run drives the watchdog until ctx is cancelled. Intended to be called with `go`.
func (w *Watchdog) Run(ctx context.Context) {
	var wake <-chan time.Time
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-w.updates:
			w.snap = s
			wake = w.recompute()
		case <-wake:
			wake = w.recompute()
		}
	}
}

func (w *Watchdog) recompute() <-chan time.Time {
	w.stopTimer()
	if w.snap == nil {
		return nil
	}

	res := Evaluate(w.snap, w.now(), w.threshold)

	w.mu.Lock()
	changed := !res.Idle.Equal(w.last.Idle)
	w.last = res
	w.mu.Unlock()

	if changed && w.onChange != nil {
		w.onChange(res)
	}

	if res.RecheckAfter <= 0 {
		return nil
	}
	w.timer = time.NewTimer(res.RecheckAfter)
	return w.timer.C
}

func (w *Watchdog) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Registry runs one watchdog per event, started on the first snapshot seen.
type Registry struct {
	ctx       context.Context
	threshold time.Duration
	onChange  func(eventID uuid.UUID, res Result)

	mu   sync.Mutex
	dogs map[uuid.UUID]*Watchdog
}

func NewRegistry(ctx context.Context, threshold time.Duration, onChange func(eventID uuid.UUID, res Result)) *Registry {
	return &Registry{
		ctx:       ctx,
		threshold: threshold,
		onChange:  onChange,
		dogs:      make(map[uuid.UUID]*Watchdog),
	}
}

// Observe feeds a snapshot to the event's watchdog.
func (r *Registry) Observe(s *bracket.Snapshot) {
	eventID := s.Event.ID

	r.mu.Lock()
	w, ok := r.dogs[eventID]
	if !ok {
		w = New(r.threshold, func(res Result) {
			if r.onChange != nil {
				r.onChange(eventID, res)
			}
		})
		r.dogs[eventID] = w
		go w.Run(r.ctx)
		slog.Info("idle watchdog started", "event_id", eventID, "threshold", r.threshold)
	}
	r.mu.Unlock()

	w.Update(s)
}
