package session

import (
	"github.com/smallbiznis/cyberdesk/internal/session/live"
	"github.com/smallbiznis/cyberdesk/internal/session/timer"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(live.NewHub),
	timer.Module,
)
