package balance

import (
	"go.uber.org/fx"

	"github.com/ganhesocial/ganhesocial/internal/balance/repository"
	"github.com/ganhesocial/ganhesocial/internal/balance/service"
)

var Module = fx.Module("balance.service",
	fx.Provide(
		repository.Provide,
		service.Provide,
	),
)
