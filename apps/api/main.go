package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/config"
	"github.com/ganhesocial/ganhesocial/internal/logger"
	"github.com/ganhesocial/ganhesocial/internal/migration"
	"github.com/ganhesocial/ganhesocial/internal/server"
	"github.com/ganhesocial/ganhesocial/pkg/db"
	"github.com/ganhesocial/ganhesocial/pkg/redis"
)

// API-only deployment: assignment, skip, balance and ranking routes
// without the verification workers.
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
