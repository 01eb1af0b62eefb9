// Package pipeline orchestrates one watcher run: load the seen-state,
// walk the register, enrich and dispatch the new records, and commit the
// grown state exactly once after all dispatches were attempted.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gfiorillo/albowatch/internal/albo"
	"github.com/gfiorillo/albowatch/internal/diff"
	"github.com/gfiorillo/albowatch/internal/enrich"
	"github.com/gfiorillo/albowatch/internal/metrics"
	"github.com/gfiorillo/albowatch/internal/notify"
	"github.com/gfiorillo/albowatch/internal/seenstore"
)

// Run phases, in order. No phase is skipped on the happy path except
// that an empty diff short-circuits straight to done.
const (
	phaseLoading     = "loading_state"
	phaseCrawling    = "crawling"
	phaseEnriching   = "enriching"
	phaseDispatching = "dispatching"
	phaseCommitting  = "committing"
	phaseDone        = "done"
)

// RecordSource produces the ordered sequence of register records.
type RecordSource interface {
	Produce(ctx context.Context) ([]albo.Record, error)
}

// Enricher augments a record in place. A nil Enricher disables the
// enrichment phase.
type Enricher interface {
	Enrich(ctx context.Context, rec *albo.Record)
}

// Result summarizes one run for logs and the status endpoint.
type Result struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Found     int       `json:"found"`
	Delivered int       `json:"delivered"`
	Committed bool      `json:"committed"`
	Partial   bool      `json:"partial"`
}

// Pipeline wires the components of one run. It owns no goroutines: every
// network call is a blocking step and records are processed strictly in
// order, so a single run needs no locking.
type Pipeline struct {
	source        RecordSource
	store         seenstore.Store
	notifier      notify.Provider
	enricher      Enricher
	dispatchDelay time.Duration
	logger        *zap.Logger

	// pause is swapped out in tests to avoid real sleeps.
	pause func(ctx context.Context, d time.Duration)
}

// New builds a Pipeline. enricher may be nil to skip enrichment.
func New(
	source RecordSource,
	store seenstore.Store,
	notifier notify.Provider,
	enricher Enricher,
	dispatchDelay time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		source:        source,
		store:         store,
		notifier:      notifier,
		enricher:      enricher,
		dispatchDelay: dispatchDelay,
		logger:        logger,
		pause:         sleepWithContext,
	}
}

// Run executes one full pass. After configuration validation nothing in
// here is fatal: every failure is contained to its causing unit and the
// run carries on with what it has.
func (p *Pipeline) Run(ctx context.Context) Result {
	start := time.Now()
	result := Result{RunID: uuid.NewString(), StartedAt: start.UTC()}
	logger := p.logger.With(zap.String("run_id", result.RunID))
	defer func() {
		metrics.ObserveRunDuration(time.Since(start))
	}()

	logger.Info("run started", zap.String("phase", phaseLoading))
	snapshot, err := p.store.Load(ctx)
	if err != nil {
		// Full-resend risk is accepted: duplicates beat silent loss.
		logger.Warn("seen-state load failed, proceeding with empty state", zap.Error(err))
		snapshot = albo.Snapshot{}
	}
	logger.Info("seen-state loaded", zap.Int("entries", len(snapshot)))

	logger.Debug("phase change", zap.String("phase", phaseCrawling))
	records, err := p.source.Produce(ctx)
	if err != nil {
		// Traversal stopped early; whatever was accumulated still counts.
		logger.Warn("traversal ended early", zap.Error(err), zap.Int("accumulated", len(records)))
		result.Partial = true
	}

	fresh := diff.Unseen(records, snapshot)
	result.Found = len(fresh)
	metrics.ObserveRecordsFound(len(fresh))
	if len(fresh) == 0 {
		logger.Info("no new records", zap.String("phase", phaseDone))
		result.Duration = time.Since(start).String()
		return result
	}
	logger.Info("new records found", zap.Int("count", len(fresh)))

	next := snapshot.Clone()
	for i := range fresh {
		if p.enricher != nil {
			logger.Debug("phase change",
				zap.String("phase", phaseEnriching),
				zap.String("record_id", fresh[i].ID),
			)
			p.enricher.Enrich(ctx, &fresh[i])
			if enr := fresh[i].Enrichment; enr != nil {
				for _, step := range enr.Degraded {
					metrics.ObserveDegradation(step)
				}
			}
		}
		next[fresh[i].ID] = seenEntry(fresh[i])
	}

	logger.Debug("phase change", zap.String("phase", phaseDispatching))
	result.Delivered = p.dispatch(ctx, logger, fresh)

	logger.Debug("phase change", zap.String("phase", phaseCommitting))
	if err := p.store.Commit(ctx, next); err != nil {
		// Accepted: the next run rediscovers and re-notifies these
		// records (at-least-once delivery).
		logger.Error("seen-state commit failed", zap.Error(err))
		metrics.ObserveCommit(false)
	} else {
		result.Committed = true
		metrics.ObserveCommit(true)
	}

	result.Duration = time.Since(start).String()
	logger.Info("run finished",
		zap.String("phase", phaseDone),
		zap.Int("found", result.Found),
		zap.Int("delivered", result.Delivered),
		zap.Bool("committed", result.Committed),
	)
	return result
}

// dispatch sends one message per record, oldest first. Records accumulate
// in discovery order and the listing is newest-first, so the batch goes
// out in reverse of discovery order. Delivery failures are logged and
// skipped, never retried within a run.
func (p *Pipeline) dispatch(ctx context.Context, logger *zap.Logger, fresh []albo.Record) int {
	delivered := 0
	for i := len(fresh) - 1; i >= 0; i-- {
		rec := fresh[i]
		ok, err := p.notifier.Notify(ctx, rec)
		switch {
		case err != nil:
			logger.Error("notification failed",
				zap.String("record_id", rec.ID),
				zap.Error(err),
			)
		case !ok:
			logger.Warn("notification not acknowledged", zap.String("record_id", rec.ID))
		default:
			delivered++
		}
		metrics.ObserveNotification(err == nil && ok)

		if i > 0 {
			p.pause(ctx, p.dispatchDelay)
		}
	}
	return delivered
}

// seenEntry builds the persisted summary for a record. Placeholder
// summaries are not worth persisting.
func seenEntry(rec albo.Record) albo.SeenEntry {
	entry := albo.SeenEntry{Number: rec.Number, Subject: rec.Subject}
	if rec.Enrichment != nil && !enrich.IsPlaceholder(rec.Enrichment.Summary) {
		entry.Summary = rec.Enrichment.Summary
	}
	return entry
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
