package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/harborline/ledger/internal/clock"
	"github.com/harborline/ledger/internal/config"
	"github.com/harborline/ledger/internal/logger"
	"github.com/harborline/ledger/internal/migration"
	obsmetrics "github.com/harborline/ledger/internal/observability/metrics"
	"github.com/harborline/ledger/internal/server"
	"github.com/harborline/ledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		obsmetrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
