package auth

import "go.uber.org/fx"

// Module provides token and password primitives.
var Module = fx.Provide(NewTokenIssuer, NewPasswordHasher)
