package queries

import (
	"context"
	"log/slog"
	"strings"

	application "propdesk/contexts/community-governance/decision-service/application"
	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/services"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
	"propdesk/contexts/community-governance/decision-service/ports"
)

type GetDecisionQuery struct {
	Tenant     valueobjects.TenantContext
	DecisionID string
}

type ListDecisionsQuery struct {
	Tenant     valueobjects.TenantContext
	BuildingID string
	Status     entities.DecisionStatus
	Limit      int
}

// DecisionQueryUseCase serves decision envelopes with a live tally.
type DecisionQueryUseCase struct {
	Decisions ports.DecisionRepository
	Ballots   ports.BallotRepository
	Logger    *slog.Logger
}

func (uc DecisionQueryUseCase) GetDecision(ctx context.Context, query GetDecisionQuery) (entities.DecisionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	companyID := strings.TrimSpace(query.Tenant.CompanyID)
	decisionID := strings.TrimSpace(query.DecisionID)
	if !query.Tenant.Valid() || decisionID == "" {
		problems := domainerrors.NewValidationError()
		problems.Add("decisionId", "tenant and decision id are required")
		return entities.DecisionResult{}, problems
	}

	decision, ballots, err := uc.Decisions.GetDecision(ctx, companyID, decisionID)
	if err != nil {
		return entities.DecisionResult{}, err
	}
	result := services.BuildResult(decision, ballots)
	uc.reportDrift(logger, result)
	return result, nil
}

func (uc DecisionQueryUseCase) ListDecisions(ctx context.Context, query ListDecisionsQuery) ([]entities.DecisionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !query.Tenant.Valid() {
		problems := domainerrors.NewValidationError()
		problems.Add("companyId", "tenant is required")
		return nil, problems
	}
	if query.Status != "" && !query.Status.Valid() {
		problems := domainerrors.NewValidationError()
		problems.Add("status", "is not supported")
		return nil, problems
	}
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	companyID := strings.TrimSpace(query.Tenant.CompanyID)
	decisions, err := uc.Decisions.ListDecisions(ctx, ports.DecisionFilter{
		CompanyID:  companyID,
		BuildingID: strings.TrimSpace(query.BuildingID),
		Status:     query.Status,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return []entities.DecisionResult{}, nil
	}

	ids := make([]string, 0, len(decisions))
	for _, decision := range decisions {
		ids = append(ids, decision.DecisionID)
	}
	ballots, err := uc.Ballots.ListBallots(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}

	results := make([]entities.DecisionResult, 0, len(decisions))
	for _, decision := range decisions {
		result := services.BuildResult(decision, ballots[decision.DecisionID])
		uc.reportDrift(logger, result)
		results = append(results, result)
	}
	return results, nil
}

func (uc DecisionQueryUseCase) reportDrift(logger *slog.Logger, result entities.DecisionResult) {
	if !result.ResultDrift {
		return
	}
	frozenBallots := 0
	if result.Decision.TotalBallotsAtClose != nil {
		frozenBallots = *result.Decision.TotalBallotsAtClose
	}
	logger.Warn("live tally differs from frozen result",
		"event", "decision_tally_drift_detected",
		"module", "community-governance/decision-service",
		"layer", "application",
		"company_id", result.Decision.CompanyID,
		"decision_id", result.Decision.DecisionID,
		"total_ballots_at_close", frozenBallots,
		"total_ballots", result.TotalBallots,
	)
}
