package events

import "go.uber.org/fx"

// Module provides the in-process balance event hub.
var Module = fx.Module("events",
	fx.Provide(NewHub),
)
