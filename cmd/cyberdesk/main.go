package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/internal/config"
	"github.com/smallbiznis/cyberdesk/internal/desk"
	"github.com/smallbiznis/cyberdesk/internal/fleetmetrics"
	"github.com/smallbiznis/cyberdesk/internal/ledger"
	"github.com/smallbiznis/cyberdesk/internal/migration"
	"github.com/smallbiznis/cyberdesk/internal/observability"
	"github.com/smallbiznis/cyberdesk/internal/providers"
	"github.com/smallbiznis/cyberdesk/internal/receipt"
	"github.com/smallbiznis/cyberdesk/internal/server"
	"github.com/smallbiznis/cyberdesk/internal/session"
	"github.com/smallbiznis/cyberdesk/internal/store"
	"github.com/smallbiznis/cyberdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		store.Module,
		providers.Module,

		// Desk
		ledger.Module,
		session.Module,
		desk.Module,
		receipt.Module,
		fleetmetrics.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
