package order

import (
	"github.com/ganhesocial/ganhesocial/internal/order/repository"
	"github.com/ganhesocial/ganhesocial/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
