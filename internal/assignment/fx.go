package assignment

import (
	"go.uber.org/fx"

	"github.com/ganhesocial/ganhesocial/internal/assignment/service"
)

var Module = fx.Module("assignment.service",
	fx.Provide(
		service.Provide,
	),
)
