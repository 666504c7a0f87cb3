package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
	"github.com/ganhesocial/ganhesocial/internal/cache"
	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/config"
	"github.com/ganhesocial/ganhesocial/internal/metrics"
	"github.com/ganhesocial/ganhesocial/internal/notifier"
	"github.com/ganhesocial/ganhesocial/internal/social"
)

// Worker runs the verification loop for one (network, action type)
// pair. All four workers share the engine; the strategy supplies the
// upstream lookups.
type Worker struct {
	name     string
	db       *gorm.DB
	log      *zap.Logger
	holder   *config.WorkerConfigHolder
	clock    clock.Clock
	actions  actiondomain.Repository
	balance  balancedomain.Service
	notifier notifier.Notifier
	strategy social.Strategy
	cache    cache.VerifierCache
	sleep    func(context.Context, time.Duration)
}

// CycleResult reports one cycle's work. Fetched counts entries pulled
// from the ledger; Processed counts entries that reached a decision.
type CycleResult struct {
	Fetched   int
	Processed int
}

func NewWorker(
	db *gorm.DB,
	log *zap.Logger,
	holder *config.WorkerConfigHolder,
	clk clock.Clock,
	actions actiondomain.Repository,
	balance balancedomain.Service,
	notify notifier.Notifier,
	strategy social.Strategy,
) *Worker {
	name := fmt.Sprintf("%s_%s", strategy.Network(), strategy.ActionType())
	return &Worker{
		name:     name,
		db:       db,
		log:      log.Named("verifier").With(zap.String("worker", name)),
		holder:   holder,
		clock:    clk,
		actions:  actions,
		balance:  balance,
		notifier: notify,
		strategy: strategy,
		cache:    cache.NewVerifierCache(),
		sleep:    sleepCtx,
	}
}

func (w *Worker) Name() string { return w.name }

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// RunForever polls until the context is cancelled. Cycle errors back
// off exponentially and reset on the first clean cycle. A cycle that
// fetched work but decided nothing waits at least the poll interval so
// leased entries can age out.
func (w *Worker) RunForever(ctx context.Context) {
	w.log.Info("worker started")
	consecutiveErrors := 0

	for {
		cfg := w.holder.Get()

		res, err := w.RunOnce(ctx)
		var wait time.Duration
		if err != nil {
			consecutiveErrors++
			shift := consecutiveErrors
			if shift > 6 {
				shift = 6
			}
			wait = time.Duration(1<<uint(shift)) * time.Second
			if wait > cfg.BackoffCap {
				wait = cfg.BackoffCap
			}
			w.log.Error("cycle failed",
				zap.Int("consecutive_errors", consecutiveErrors),
				zap.Duration("backoff", wait),
				zap.Error(err))
		} else {
			consecutiveErrors = 0
			wait = cfg.PollInterval
			if res.Fetched > 0 && res.Processed == 0 && wait < 2*time.Second {
				wait = 2 * time.Second
			}
		}

		select {
		case <-ctx.Done():
			w.log.Info("worker stopped")
			return
		default:
		}
		w.sleep(ctx, wait)
		if ctx.Err() != nil {
			w.log.Info("worker stopped")
			return
		}
	}
}

// RunOnce executes one verification cycle.
func (w *Worker) RunOnce(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	m := metrics.Worker()
	m.IncCycleRun(w.name)
	defer func() {
		m.ObserveCycleDuration(w.name, time.Since(start))
	}()

	res, err := w.processBatch(ctx)
	if err != nil {
		m.IncCycleError(w.name, err)
	}
	return res, err
}

func (w *Worker) processBatch(ctx context.Context) (CycleResult, error) {
	cfg := w.holder.Get()
	m := metrics.Worker()
	var res CycleResult

	entries, err := w.actions.FindPendingBatch(ctx, w.db, w.strategy.Network(), w.strategy.ActionType(), cfg.MaxBatch)
	if err != nil {
		return res, err
	}
	res.Fetched = len(entries)
	if len(entries) == 0 {
		return res, nil
	}
	m.AddEntriesFetched(w.name, len(entries))
	w.log.Info("cycle started", zap.Int("fetched", len(entries)))

	// Group entries sharing a relation set so each set is fetched once
	// per cycle. Entries with no usable group key can never verify.
	groups := map[string][]actiondomain.Entry{}
	order := []string{}
	for _, entry := range entries {
		key, ok := w.strategy.GroupKey(entry)
		if !ok {
			if w.finalizeLeased(ctx, entry, actiondomain.StatusInvalid) {
				res.Processed++
				m.IncEntryOutcome(w.name, metrics.OutcomeInvalid)
			}
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	for i, key := range order {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		w.processGroup(ctx, key, groups[key], &res)
		if i < len(order)-1 {
			w.sleep(ctx, cfg.GroupDelay)
		}
	}

	w.log.Info("cycle finished",
		zap.Int("fetched", res.Fetched),
		zap.Int("processed", res.Processed))
	return res, nil
}

func (w *Worker) processGroup(ctx context.Context, key string, entries []actiondomain.Entry, res *CycleResult) {
	cfg := w.holder.Get()
	m := metrics.Worker()

	subjectID, ok := w.cache.GetActorID(key)
	if !ok {
		var err error
		subjectID, err = w.strategy.ResolveSubject(ctx, key)
		if err != nil {
			permanent := errors.Is(err, social.ErrActorUnavailable)
			w.log.Warn("subject resolution failed",
				zap.String("group", key),
				zap.Bool("permanent", permanent),
				zap.Error(err))
			for _, entry := range entries {
				w.handleUnverifiable(ctx, entry, res)
			}
			return
		}
		w.cache.SetActorID(key, subjectID)
	}

	relations, ok := w.cache.GetRelations(subjectID)
	if !ok {
		var err error
		relations, err = w.strategy.FetchRelations(ctx, subjectID)
		if err != nil {
			m.IncUpstreamFetch(w.name, "error")
			w.log.Warn("relation fetch failed", zap.String("group", key), zap.Error(err))
			// A failed fetch proves nothing about the entries. Bump
			// attempts so chronically unfetchable subjects age out
			// instead of polling forever.
			for _, entry := range entries {
				w.handleUnverifiable(ctx, entry, res)
			}
			return
		}
		m.IncUpstreamFetch(w.name, "ok")
		m.ObserveRelationSetSize(w.name, len(relations))
		w.cache.SetRelations(subjectID, relations, cfg.RelationCacheTTL)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		w.processEntry(ctx, entry, relations, res)
	}
}

func (w *Worker) processEntry(ctx context.Context, entry actiondomain.Entry, relations cache.RelationSet, res *CycleResult) {
	cfg := w.holder.Get()
	m := metrics.Worker()
	now := w.clock.Now()

	leased, err := w.actions.AcquireLease(ctx, w.db, int64(entry.ID), now, cfg.LeaseTimeout)
	if err != nil {
		w.log.Error("acquire lease", zap.Int64("entry_id", int64(entry.ID)), zap.Error(err))
		return
	}
	if !leased {
		m.IncEntryOutcome(w.name, metrics.OutcomeSkipped)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("entry processing panicked",
				zap.Int64("entry_id", int64(entry.ID)),
				zap.Any("panic", r))
			if relErr := w.actions.ReleaseLease(ctx, w.db, int64(entry.ID)); relErr != nil {
				w.log.Error("release lease after panic", zap.Error(relErr))
			}
		}
	}()

	memberKey, ok := w.strategy.MemberKey(entry)
	if !ok {
		if w.finalize(ctx, entry, actiondomain.StatusInvalid) {
			res.Processed++
			m.IncEntryOutcome(w.name, metrics.OutcomeInvalid)
		}
		return
	}

	status := actiondomain.StatusInvalid
	if relations.Contains(memberKey) {
		status = actiondomain.StatusValid
	}

	if !w.finalize(ctx, entry, status) {
		return
	}
	res.Processed++

	if status == actiondomain.StatusValid {
		m.IncEntryOutcome(w.name, metrics.OutcomeValid)
		if err := w.balance.Credit(ctx, entry.UserID, entry.Value, w.clock.Now()); err != nil {
			w.log.Error("credit payout",
				zap.Int64("entry_id", int64(entry.ID)),
				zap.Float64("value", entry.Value),
				zap.Error(err))
		} else {
			m.IncCredit(w.name)
		}
		w.notifier.OrderValidated(ctx, entry.OrderID)
	} else {
		m.IncEntryOutcome(w.name, metrics.OutcomeInvalid)
	}
}

// handleUnverifiable bumps the attempt counter under lease and retires
// the entry once it hits the ceiling. Below the ceiling it stays
// pending for the next cycle.
func (w *Worker) handleUnverifiable(ctx context.Context, entry actiondomain.Entry, res *CycleResult) {
	cfg := w.holder.Get()
	m := metrics.Worker()
	now := w.clock.Now()

	leased, err := w.actions.AcquireLease(ctx, w.db, int64(entry.ID), now, cfg.LeaseTimeout)
	if err != nil {
		w.log.Error("acquire lease", zap.Int64("entry_id", int64(entry.ID)), zap.Error(err))
		return
	}
	if !leased {
		m.IncEntryOutcome(w.name, metrics.OutcomeSkipped)
		return
	}

	attempts, err := w.actions.IncrementAttempts(ctx, w.db, int64(entry.ID))
	if err != nil {
		w.log.Error("increment attempts", zap.Int64("entry_id", int64(entry.ID)), zap.Error(err))
		if relErr := w.actions.ReleaseLease(ctx, w.db, int64(entry.ID)); relErr != nil {
			w.log.Error("release lease", zap.Error(relErr))
		}
		return
	}

	if attempts >= cfg.MaxVerifyAttempts {
		if w.finalize(ctx, entry, actiondomain.StatusInvalid) {
			res.Processed++
			m.IncEntryOutcome(w.name, metrics.OutcomeInvalid)
		}
		return
	}
	m.IncEntryOutcome(w.name, metrics.OutcomeRetry)
}

// finalizeLeased takes the lease before finalizing, for entries that
// were never leased in this cycle.
func (w *Worker) finalizeLeased(ctx context.Context, entry actiondomain.Entry, status actiondomain.Status) bool {
	cfg := w.holder.Get()
	leased, err := w.actions.AcquireLease(ctx, w.db, int64(entry.ID), w.clock.Now(), cfg.LeaseTimeout)
	if err != nil || !leased {
		return false
	}
	return w.finalize(ctx, entry, status)
}

func (w *Worker) finalize(ctx context.Context, entry actiondomain.Entry, status actiondomain.Status) bool {
	done, err := w.actions.Finalize(ctx, w.db, int64(entry.ID), status, w.clock.Now())
	if err != nil {
		w.log.Error("finalize entry",
			zap.Int64("entry_id", int64(entry.ID)),
			zap.String("status", string(status)),
			zap.Error(err))
		if relErr := w.actions.ReleaseLease(ctx, w.db, int64(entry.ID)); relErr != nil {
			w.log.Error("release lease", zap.Error(relErr))
		}
		return false
	}
	if !done {
		// Someone finalized it first; the transition happens once.
		if relErr := w.actions.ReleaseLease(ctx, w.db, int64(entry.ID)); relErr != nil {
			w.log.Error("release lease", zap.Error(relErr))
		}
		return false
	}
	return true
}
