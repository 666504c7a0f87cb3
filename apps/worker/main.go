package main

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ganhesocial/ganhesocial/internal/action"
	"github.com/ganhesocial/ganhesocial/internal/balance"
	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/config"
	"github.com/ganhesocial/ganhesocial/internal/logger"
	"github.com/ganhesocial/ganhesocial/internal/migration"
	"github.com/ganhesocial/ganhesocial/internal/notifier"
	"github.com/ganhesocial/ganhesocial/internal/social"
	"github.com/ganhesocial/ganhesocial/internal/user"
	"github.com/ganhesocial/ganhesocial/internal/verifier"
	"github.com/ganhesocial/ganhesocial/pkg/db"
	"github.com/ganhesocial/ganhesocial/pkg/redis"
)

// Worker-only deployment: the four verification loops plus the
// sweeper, exposing just health and metrics over HTTP.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redis.Module,
		clock.Module,
		migration.Module,

		user.Module,
		action.Module,
		balance.Module,
		social.Module,
		notifier.Module,
		verifier.Module,

		fx.Invoke(runHealthServer),
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

func runHealthServer(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("health server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
