package user

import (
	"go.uber.org/fx"

	"github.com/ganhesocial/ganhesocial/internal/user/repository"
	"github.com/ganhesocial/ganhesocial/internal/user/service"
)

var Module = fx.Module("user.service",
	fx.Provide(
		repository.Provide,
		service.Provide,
	),
)
