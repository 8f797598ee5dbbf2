package authorization

import (
	"log/slog"
	"time"

	"propdesk/contexts/identity-access/authorization-service/adapters/memory"
	"propdesk/contexts/identity-access/authorization-service/application/commands"
	"propdesk/contexts/identity-access/authorization-service/application/queries"
	"propdesk/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition root exposed to runtime wiring.
type Module struct {
	Checker     queries.CheckPermissionUseCase
	Memberships commands.MembershipUseCase
	Store       *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository         ports.Repository
	PermissionCache    ports.PermissionCache
	Clock              ports.Clock
	PermissionCacheTTL time.Duration
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Checker: queries.CheckPermissionUseCase{
			Repository:         deps.Repository,
			PermissionCache:    deps.PermissionCache,
			Clock:              deps.Clock,
			PermissionCacheTTL: deps.PermissionCacheTTL,
			Logger:             deps.Logger,
		},
		Memberships: commands.MembershipUseCase{
			Repository:      deps.Repository,
			PermissionCache: deps.PermissionCache,
			Clock:           deps.Clock,
			Logger:          deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module to process-local storage for tests and local runs.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:      store,
		PermissionCache: memory.NewPermissionCache(),
		Logger:          logger,
	})
	module.Store = store
	return module
}
