package decisionservice

import (
	"log/slog"
	"time"

	httpadapter "propdesk/contexts/community-governance/decision-service/adapters/http"
	"propdesk/contexts/community-governance/decision-service/adapters/memory"
	"propdesk/contexts/community-governance/decision-service/application/commands"
	"propdesk/contexts/community-governance/decision-service/application/queries"
	"propdesk/contexts/community-governance/decision-service/domain/entities"
	"propdesk/contexts/community-governance/decision-service/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Lifecycle commands.DecisionUseCase
	Store     *memory.Store
}

type Dependencies struct {
	Decisions      ports.DecisionRepository
	Ballots        ports.BallotRepository
	Buildings      ports.BuildingDirectory
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	decisionUseCase := commands.DecisionUseCase{
		Decisions:      deps.Decisions,
		Buildings:      deps.Buildings,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	ballotUseCase := commands.BallotUseCase{
		Ballots: deps.Ballots,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	queryUseCase := queries.DecisionQueryUseCase{
		Decisions: deps.Decisions,
		Ballots:   deps.Ballots,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Decisions: decisionUseCase,
			Ballots:   ballotUseCase,
			Queries:   queryUseCase,
			Logger:    deps.Logger,
		},
		Lifecycle: decisionUseCase,
	}
}

func NewInMemoryModule(seed []entities.Decision, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Decisions:      store,
		Ballots:        store,
		Buildings:      store,
		Idempotency:    store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
