package fleetmetrics

import (
	"context"

	"github.com/smallbiznis/cyberdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("fleet.metrics",
	fx.Provide(NewPusher),
	fx.Invoke(register),
)

type registerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Pusher    Pusher `optional:"true"`
	Source    Source
}

func register(p registerParams) {
	if p.Pusher == nil {
		return
	}
	gauges := NewGauges(p.Config.Fleet.LoungeID, p.Config.AppVersion)
	worker := NewWorker(p.Log, p.Source, gauges, p.Pusher, p.Config.Fleet.Interval)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Log.Info("starting fleet metrics worker", zap.String("lounge_id", p.Config.Fleet.LoungeID))
			worker.Start()
			return nil
		},
		OnStop: worker.Stop,
	})
}
