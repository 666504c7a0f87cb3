package verifier

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
	"github.com/ganhesocial/ganhesocial/internal/clock"
)

const (
	ledgerRetention = 30 * 24 * time.Hour
	sweepInterval   = time.Hour
)

// Sweeper drops ledger entries past retention and expired daily
// aggregates. It runs alongside the verification workers.
type Sweeper struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	actions actiondomain.Repository
	balance balancedomain.Service
	sleep   func(context.Context, time.Duration)
}

func NewSweeper(
	db *gorm.DB,
	log *zap.Logger,
	clk clock.Clock,
	actions actiondomain.Repository,
	balance balancedomain.Service,
) *Sweeper {
	return &Sweeper{
		db:      db,
		log:     log.Named("verifier.sweeper"),
		clock:   clk,
		actions: actions,
		balance: balance,
		sleep:   sleepCtx,
	}
}

func (s *Sweeper) RunForever(ctx context.Context) {
	s.log.Info("sweeper started")
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("sweep failed", zap.Error(err))
		}
		s.sleep(ctx, sweepInterval)
		if ctx.Err() != nil {
			s.log.Info("sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	removed, err := s.actions.DeleteOlderThan(ctx, s.db, now.Add(-ledgerRetention))
	if err != nil {
		return err
	}
	expired, err := s.balance.PurgeExpired(ctx, now)
	if err != nil {
		return err
	}
	if removed > 0 || expired > 0 {
		s.log.Info("sweep finished",
			zap.Int64("entries_removed", removed),
			zap.Int64("buckets_expired", expired))
	}
	return nil
}
