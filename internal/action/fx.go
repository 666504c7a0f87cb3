package action

import (
	"github.com/ganhesocial/ganhesocial/internal/action/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("action.ledger",
	fx.Provide(repository.Provide),
)
