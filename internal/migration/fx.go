package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/harborline/ledger/internal/config"
	"github.com/harborline/ledger/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType == "sqlite" {
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB, cfg.DBType); err != nil {
				return err
			}
		}

		return seed.EnsureChartOfAccounts(conn, node)
	}),
)
