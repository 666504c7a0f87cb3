package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ganhesocial/ganhesocial/internal/action"
	"github.com/ganhesocial/ganhesocial/internal/assignment"
	assignmentdomain "github.com/ganhesocial/ganhesocial/internal/assignment/domain"
	"github.com/ganhesocial/ganhesocial/internal/balance"
	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/config"
	"github.com/ganhesocial/ganhesocial/internal/leaderboard"
	leaderboarddomain "github.com/ganhesocial/ganhesocial/internal/leaderboard/domain"
	"github.com/ganhesocial/ganhesocial/internal/metrics"
	"github.com/ganhesocial/ganhesocial/internal/order"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	"github.com/ganhesocial/ganhesocial/internal/user"
	userdomain "github.com/ganhesocial/ganhesocial/internal/user/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	user.Module,
	order.Module,
	action.Module,
	assignment.Module,
	balance.Module,
	leaderboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware(metrics.HTTP()))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
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

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	log            *zap.Logger
	clock          clock.Clock
	userSvc        userdomain.Service
	orderSvc       orderdomain.Service
	assignmentSvc  assignmentdomain.Service
	balanceSvc     balancedomain.Service
	leaderboardSvc leaderboarddomain.Service
}

type ServerParams struct {
	fx.In

	Engine         *gin.Engine
	Config         config.Config
	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	UserSvc        userdomain.Service
	OrderSvc       orderdomain.Service
	AssignmentSvc  assignmentdomain.Service
	BalanceSvc     balancedomain.Service
	LeaderboardSvc leaderboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Engine,
		cfg:            p.Config,
		db:             p.DB,
		log:            p.Log.Named("server"),
		clock:          p.Clock,
		userSvc:        p.UserSvc,
		orderSvc:       p.OrderSvc,
		assignmentSvc:  p.AssignmentSvc,
		balanceSvc:     p.BalanceSvc,
		leaderboardSvc: p.LeaderboardSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/actions/next", s.handleNextAction)
	api.POST("/actions/skip", s.handleSkipAction)
	api.GET("/balance", s.handleBalance)
	api.GET("/earnings/daily", s.handleDailyEarnings)
	api.GET("/rankings/daily", s.handleDailyRankings)
	api.POST("/orders", s.handleCreateOrder)
	api.GET("/orders", s.handleListOrders)
}
