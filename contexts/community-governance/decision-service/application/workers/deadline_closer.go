package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "propdesk/contexts/community-governance/decision-service/application"
	"propdesk/contexts/community-governance/decision-service/application/commands"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
	"propdesk/contexts/community-governance/decision-service/ports"
)

const systemActorID = "system:deadline-closer"

// DeadlineCloser closes open decisions whose closing time has passed.
type DeadlineCloser struct {
	Decisions ports.DecisionRepository
	Lifecycle commands.DecisionUseCase
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce closes one batch of due decisions through the regular close
// transition. Decisions closed or cancelled concurrently are skipped.
func (w DeadlineCloser) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(w.Logger)
	limit := w.BatchSize
	if limit <= 0 {
		limit = 50
	}
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}

	due, err := w.Decisions.ListDueDecisions(ctx, now, limit)
	if err != nil {
		logger.Error("due decision lookup failed",
			"event", "decision_deadline_lookup_failed",
			"module", "community-governance/decision-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	closed := 0
	for _, decision := range due {
		_, err := w.Lifecycle.CloseDecision(ctx, commands.CloseDecisionCommand{
			Tenant: valueobjects.TenantContext{
				CompanyID: decision.CompanyID,
				UserID:    systemActorID,
			},
			DecisionID: decision.DecisionID,
		})
		if errors.Is(err, domainerrors.ErrDecisionTerminal) {
			continue
		}
		if err != nil {
			logger.Error("decision auto close failed",
				"event", "decision_deadline_close_failed",
				"module", "community-governance/decision-service",
				"layer", "worker",
				"company_id", decision.CompanyID,
				"decision_id", decision.DecisionID,
				"error", err.Error(),
			)
			return closed, err
		}
		closed++
	}

	if closed > 0 {
		logger.Info("due decisions closed",
			"event", "decision_deadline_closed",
			"module", "community-governance/decision-service",
			"layer", "worker",
			"closed_count", closed,
		)
	}
	return closed, nil
}
