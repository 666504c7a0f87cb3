package verifier

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/config"
	"github.com/ganhesocial/ganhesocial/internal/notifier"
	"github.com/ganhesocial/ganhesocial/internal/social"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Holder     *config.WorkerConfigHolder
	Clock      clock.Clock
	Actions    actiondomain.Repository
	Balance    balancedomain.Service
	Notifier   notifier.Notifier
	Strategies []social.Strategy
}

// NewWorkers builds one verification worker per strategy.
func NewWorkers(p Params) []*Worker {
	workers := make([]*Worker, 0, len(p.Strategies))
	for _, strategy := range p.Strategies {
		workers = append(workers, NewWorker(
			p.DB, p.Log, p.Holder, p.Clock,
			p.Actions, p.Balance, p.Notifier, strategy,
		))
	}
	return workers
}

func ProvideSweeper(p Params) *Sweeper {
	return NewSweeper(p.DB, p.Log, p.Clock, p.Actions, p.Balance)
}

var Module = fx.Module("verifier",
	fx.Provide(
		NewWorkers,
		ProvideSweeper,
	),
	fx.Invoke(runWorkers),
)

func runWorkers(lc fx.Lifecycle, workers []*Worker, sweeper *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			for _, w := range workers {
				go w.RunForever(ctx)
			}
			go sweeper.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return nil
		},
	})
}
