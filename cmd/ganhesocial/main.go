package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/config"
	"github.com/ganhesocial/ganhesocial/internal/logger"
	"github.com/ganhesocial/ganhesocial/internal/migration"
	"github.com/ganhesocial/ganhesocial/internal/notifier"
	"github.com/ganhesocial/ganhesocial/internal/server"
	"github.com/ganhesocial/ganhesocial/internal/social"
	"github.com/ganhesocial/ganhesocial/internal/verifier"
	"github.com/ganhesocial/ganhesocial/pkg/db"
	"github.com/ganhesocial/ganhesocial/pkg/redis"
)

// The monolith runs the API surface and all four verification workers
// in one process.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redis.Module,
		clock.Module,
		migration.Module,

		server.Module,

		social.Module,
		notifier.Module,
		verifier.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
