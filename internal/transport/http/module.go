package http

import (
	"go.uber.org/fx"

	authtransport "github.com/Additional-Code/bistro/internal/transport/http/auth"
	catalogtransport "github.com/Additional-Code/bistro/internal/transport/http/catalog"
	financetransport "github.com/Additional-Code/bistro/internal/transport/http/finance"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
	ordertransport "github.com/Additional-Code/bistro/internal/transport/http/order"
	reporttransport "github.com/Additional-Code/bistro/internal/transport/http/report"
	venuetransport "github.com/Additional-Code/bistro/internal/transport/http/venue"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	middleware.Module,
	authtransport.Module,
	venuetransport.Module,
	catalogtransport.Module,
	financetransport.Module,
	ordertransport.Module,
	reporttransport.Module,
)
