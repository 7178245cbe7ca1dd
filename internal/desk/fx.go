package desk

import (
	"context"

	"github.com/smallbiznis/cyberdesk/internal/desk/service"
	"github.com/smallbiznis/cyberdesk/internal/fleetmetrics"
	ledgerservice "github.com/smallbiznis/cyberdesk/internal/ledger/service"
	"github.com/smallbiznis/cyberdesk/internal/session/live"
	"github.com/smallbiznis/cyberdesk/internal/session/timer"
	"github.com/smallbiznis/cyberdesk/internal/store"
	"go.uber.org/fx"
)

var Module = fx.Module("desk.service",
	fx.Provide(
		func(s *store.StateStore) service.StateStore { return s },
		func(s *ledgerservice.Service) service.LedgerPoster { return s },
		func(e *timer.Engine) service.Tracker { return e },
		func(h *live.Hub) service.ViewPublisher { return h },
		service.NewService,
		func(s *service.Service) fleetmetrics.Source { return fleetSource{svc: s} },
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, svc *service.Service, engine *timer.Engine) {
	engine.SetExpiryHandler(svc.ExpireSession)
	engine.SetTickHandler(svc.OnTick)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start(ctx)
		},
	})
}

type fleetSource struct {
	svc *service.Service
}

func (f fleetSource) FleetSnapshot() fleetmetrics.Snapshot {
	d := f.svc.Dashboard()
	return fleetmetrics.Snapshot{
		ActiveCyber:       d.ActiveSessions.Cyber,
		ActiveGame:        d.ActiveSessions.Game,
		TotalRevenue:      d.TotalRevenue,
		OrderRevenue:      d.OrderRevenue,
		SubscriptionCount: d.SubscriptionCount,
		OrderCount:        d.OrderCount,
		TransactionCount:  d.TransactionCount,
	}
}
