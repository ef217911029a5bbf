package user

import "go.uber.org/fx"

// Module provides the user repository to Fx.
var Module = fx.Provide(NewRepository)
