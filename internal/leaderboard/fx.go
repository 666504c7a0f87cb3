package leaderboard

import (
	"go.uber.org/fx"

	"github.com/ganhesocial/ganhesocial/internal/leaderboard/service"
)

var Module = fx.Module("leaderboard.service",
	fx.Provide(
		service.Provide,
	),
)
