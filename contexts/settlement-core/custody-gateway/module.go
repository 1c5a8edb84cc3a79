package custodygateway

import (
	"log/slog"

	httpadapter "meshpay/contexts/settlement-core/custody-gateway/adapters/http"
	"meshpay/contexts/settlement-core/custody-gateway/adapters/memory"
	"meshpay/contexts/settlement-core/custody-gateway/application"
	"meshpay/contexts/settlement-core/custody-gateway/ports"
)

// Module is the composition surface for custody. Service doubles as the
// ledger's custody gateway port; Store is exposed for tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.CustodyRepository
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
