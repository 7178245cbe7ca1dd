package timer

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("session.timer",
	fx.Provide(ProvideConfig),
	fx.Provide(NewAlarm),
	fx.Provide(New),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, engine *Engine) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return engine.Stop(ctx)
		},
	})
}
