package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mainservice/internal/clock"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/migration"
	"github.com/smallbiznis/mainservice/internal/observability"
	"github.com/smallbiznis/mainservice/internal/server"
	"github.com/smallbiznis/mainservice/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface plus the domain modules it serves
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
