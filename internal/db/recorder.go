package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/timetolife1989-cloud/mechdefense/internal/event"
)

const finishTimeout = 5 * time.Second

// Recorder persists a run from the simulation's event stream and its
// experience grants. The simulation hands work off without blocking;
// storage errors are logged and never stop the run.
type Recorder struct {
	store  Store
	grants chan Grant

	summary  RunSummary
	finished bool

	waveStart map[int]uint64
	waveTotal map[int]int
}

// NewRecorder creates a recorder for run runID. queueSize bounds grants
// waiting to be written.
func NewRecorder(runID int64, store Store, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Recorder{
		store:     store,
		grants:    make(chan Grant, queueSize),
		summary:   RunSummary{ID: runID},
		waveStart: make(map[int]uint64),
		waveTotal: make(map[int]int),
	}
}

// GrantExperience queues a grant. Safe to call from the simulation loop;
// a full queue drops the grant with a warning.
func (r *Recorder) GrantExperience(amount int, reason string) {
	g := Grant{RunID: r.summary.ID, Amount: amount, Reason: reason, GrantedAt: time.Now()}
	select {
	case r.grants <- g:
	default:
		slog.Warn("grant queue full, dropping", "amount", amount, "reason", reason)
	}
}

// Run consumes event batches and queued grants until ctx is canceled or in
// is closed. The run row is finalized on AllWavesCompleted or on exit.
func (r *Recorder) Run(ctx context.Context, in <-chan []event.Event) error {
	for {
		select {
		case <-ctx.Done():
			r.shutdown(in)
			return nil
		case g := <-r.grants:
			r.saveGrant(ctx, g)
		case batch, ok := <-in:
			if !ok {
				r.shutdown(nil)
				return nil
			}
			for _, e := range batch {
				r.handle(ctx, e)
			}
		}
	}
}

// Summary returns the counters gathered so far.
func (r *Recorder) Summary() RunSummary { return r.summary }

func (r *Recorder) handle(ctx context.Context, e event.Event) {
	switch e.Kind {
	case event.WaveStarted:
		r.waveStart[e.Wave] = e.Tick
		r.waveTotal[e.Wave] = e.TotalEnemies
	case event.EnemySpawned:
		r.summary.EnemiesSpawned++
	case event.WaveCompleted:
		r.summary.WavesCompleted++
		w := WaveResult{
			RunID:         r.summary.ID,
			Wave:          e.Wave,
			TotalEnemies:  r.waveTotal[e.Wave],
			StartedTick:   r.waveStart[e.Wave],
			CompletedTick: e.Tick,
			CompletedAt:   time.Now(),
		}
		if err := r.store.SaveWave(ctx, w); err != nil {
			slog.Error("saving wave result", "wave", e.Wave, "error", err)
		}
	case event.AllWavesCompleted:
		// Grants for the last wave are queued before this batch is published.
		r.drainGrants(ctx)
		r.finish(ctx)
	}
}

func (r *Recorder) saveGrant(ctx context.Context, g Grant) {
	r.summary.ExperienceTotal += g.Amount
	if err := r.store.SaveGrant(ctx, g); err != nil {
		slog.Error("saving experience grant", "amount", g.Amount, "reason", g.Reason, "error", err)
	}
}

func (r *Recorder) drainGrants(ctx context.Context) {
	for {
		select {
		case g := <-r.grants:
			r.saveGrant(ctx, g)
		default:
			return
		}
	}
}

func (r *Recorder) finish(ctx context.Context) {
	if r.finished {
		return
	}
	r.finished = true
	if err := r.store.FinishRun(ctx, r.summary); err != nil {
		slog.Error("finishing run", "run", r.summary.ID, "error", err)
		return
	}
	slog.Info("run recorded",
		"run", r.summary.ID,
		"waves", r.summary.WavesCompleted,
		"spawned", r.summary.EnemiesSpawned,
		"experience", r.summary.ExperienceTotal)
}

// shutdown flushes batches already published and queued grants, with a
// fresh context since the run context is done.
func (r *Recorder) shutdown(in <-chan []event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	for pending := true; pending && in != nil; {
		select {
		case batch, ok := <-in:
			if !ok {
				pending = false
				break
			}
			for _, e := range batch {
				r.handle(ctx, e)
			}
		default:
			pending = false
		}
	}
	r.drainGrants(ctx)
	r.finish(ctx)
}
