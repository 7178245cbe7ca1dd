package receipt

import (
	deskservice "github.com/smallbiznis/cyberdesk/internal/desk/service"
	"github.com/smallbiznis/cyberdesk/internal/receipt/render"
	"github.com/smallbiznis/cyberdesk/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(
		render.NewRenderer,
		func(d *deskservice.Service) service.Source { return d },
		service.NewService,
	),
)
