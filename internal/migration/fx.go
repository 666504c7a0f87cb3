package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
	"github.com/ganhesocial/ganhesocial/internal/config"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	userdomain "github.com/ganhesocial/ganhesocial/internal/user/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Versioned SQL targets postgres; lighter deployments get
			// the schema straight from the models.
			return AutoMigrate(conn)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

// AutoMigrate builds the schema from the gorm models plus the partial
// unique index the migrations create on postgres.
func AutoMigrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&userdomain.User{},
		&userdomain.Account{},
		&orderdomain.Order{},
		&actiondomain.Entry{},
		&balancedomain.DailyEarning{},
	)
	if err != nil {
		return err
	}
	return conn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_action_entries_live_claim
		ON action_entries (order_id, account_name)
		WHERE status IN ('pending', 'valid')`).Error
}
