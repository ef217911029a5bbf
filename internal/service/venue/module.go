package venue

import "go.uber.org/fx"

// Module provides the venue service to Fx.
var Module = fx.Provide(NewService)
