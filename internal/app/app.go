package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/logger"
	"github.com/Additional-Code/bistro/internal/messaging"
	"github.com/Additional-Code/bistro/internal/observability"
	repositorycatalog "github.com/Additional-Code/bistro/internal/repository/catalog"
	repositoryfinance "github.com/Additional-Code/bistro/internal/repository/finance"
	repositoryorder "github.com/Additional-Code/bistro/internal/repository/order"
	repositoryuser "github.com/Additional-Code/bistro/internal/repository/user"
	repositoryvenue "github.com/Additional-Code/bistro/internal/repository/venue"
	grpcserver "github.com/Additional-Code/bistro/internal/server/grpc"
	httpserver "github.com/Additional-Code/bistro/internal/server/http"
	serviceauth "github.com/Additional-Code/bistro/internal/service/auth"
	servicecatalog "github.com/Additional-Code/bistro/internal/service/catalog"
	servicefinance "github.com/Additional-Code/bistro/internal/service/finance"
	serviceorder "github.com/Additional-Code/bistro/internal/service/order"
	servicereport "github.com/Additional-Code/bistro/internal/service/report"
	servicevenue "github.com/Additional-Code/bistro/internal/service/venue"
	"github.com/Additional-Code/bistro/internal/storage"
	transporthttp "github.com/Additional-Code/bistro/internal/transport/http"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/internal/worker"
	workerorder "github.com/Additional-Code/bistro/internal/worker/order"
)

// Infra provides configuration, logging and storage connections.
var Infra = fx.Options(
	config.Module,
	logger.Module,
	database.Module,
	auth.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	cache.Module,
	messaging.Module,
	observability.Module,
	validation.Module,
	storage.Module,
	repositoryuser.Module,
	repositoryvenue.Module,
	repositorycatalog.Module,
	repositoryfinance.Module,
	repositoryorder.Module,
	serviceauth.Module,
	servicevenue.Module,
	servicecatalog.Module,
	servicefinance.Module,
	servicereport.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (API servers).
var Module = HTTP
