package venue

import "go.uber.org/fx"

// Module provides the venue repository to Fx.
var Module = fx.Provide(NewRepository)
