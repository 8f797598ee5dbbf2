package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	application "propdesk/contexts/community-governance/decision-service/application"
	"propdesk/contexts/community-governance/decision-service/application/commands"
	"propdesk/contexts/community-governance/decision-service/application/queries"
	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
	httptransport "propdesk/contexts/community-governance/decision-service/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	Decisions commands.DecisionUseCase
	Ballots   commands.BallotUseCase
	Queries   queries.DecisionQueryUseCase
	Logger    *slog.Logger
}

func (h Handler) CreateDecisionHandler(
	ctx context.Context,
	tenant valueobjects.TenantContext,
	idempotencyKey string,
	req httptransport.CreateDecisionRequest,
) (httptransport.DecisionResponse, error) {
	result, err := h.Decisions.CreateDecision(ctx, commands.CreateDecisionCommand{
		Tenant:              tenant,
		IdempotencyKey:      idempotencyKey,
		BuildingID:          req.BuildingID,
		Title:               req.Title,
		Description:         req.Description,
		Kind:                entities.DecisionKind(req.Kind),
		Options:             req.Options,
		ClosingAt:           req.ClosingAt,
		QuorumRequired:      req.QuorumRequired,
		TotalEligibleVoters: req.TotalEligibleVoters,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	response := toDecisionResponse(result.Result)
	response.Replayed = result.Replayed
	return response, nil
}

func (h Handler) GetDecisionHandler(
	ctx context.Context,
	tenant valueobjects.TenantContext,
	decisionID string,
) (httptransport.DecisionResponse, error) {
	result, err := h.Queries.GetDecision(ctx, queries.GetDecisionQuery{
		Tenant:     tenant,
		DecisionID: decisionID,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return toDecisionResponse(result), nil
}

func (h Handler) ListDecisionsHandler(
	ctx context.Context,
	tenant valueobjects.TenantContext,
	buildingID string,
	rawStatus string,
	limit int,
) (httptransport.ListDecisionsResponse, error) {
	var status entities.DecisionStatus
	if strings.TrimSpace(rawStatus) != "" {
		parsed, ok := ParseStatus(rawStatus)
		if !ok {
			return httptransport.ListDecisionsResponse{}, h.invalidStatus(rawStatus)
		}
		status = parsed
	}
	results, err := h.Queries.ListDecisions(ctx, queries.ListDecisionsQuery{
		Tenant:     tenant,
		BuildingID: buildingID,
		Status:     status,
		Limit:      limit,
	})
	if err != nil {
		return httptransport.ListDecisionsResponse{}, err
	}
	items := make([]httptransport.DecisionResponse, 0, len(results))
	for _, result := range results {
		items = append(items, toDecisionResponse(result))
	}
	return httptransport.ListDecisionsResponse{Items: items}, nil
}

func (h Handler) UpdateDecisionHandler(
	ctx context.Context,
	tenant valueobjects.TenantContext,
	decisionID string,
	req httptransport.UpdateDecisionRequest,
) (httptransport.DecisionResponse, error) {
	cmd := commands.UpdateDecisionCommand{
		Tenant:     tenant,
		DecisionID: decisionID,
		Details: commands.DetailsPatch{
			Title:       req.Title,
			Description: req.Description,
		},
		Structural: commands.StructuralPatch{
			Options:             req.Options,
			BuildingID:          req.BuildingID,
			ClosingAt:           req.ClosingAt,
			QuorumRequired:      req.QuorumRequired,
			TotalEligibleVoters: req.TotalEligibleVoters,
		},
	}
	if req.Kind != nil {
		kind := entities.DecisionKind(*req.Kind)
		cmd.Details.Kind = &kind
	}
	if req.Status != nil {
		status, ok := ParseStatus(*req.Status)
		if !ok {
			return httptransport.DecisionResponse{}, h.invalidStatus(*req.Status)
		}
		cmd.Status.Status = &status
	}

	result, err := h.Decisions.UpdateDecision(ctx, cmd)
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return toDecisionResponse(result), nil
}

func (h Handler) CancelDecisionHandler(
	ctx context.Context,
	tenant valueobjects.TenantContext,
	decisionID string,
) (httptransport.MessageResponse, error) {
	result, err := h.Decisions.CancelDecision(ctx, commands.CancelDecisionCommand{
		Tenant:     tenant,
		DecisionID: decisionID,
	})
	if err != nil {
		return httptransport.MessageResponse{}, err
	}
	return httptransport.MessageResponse{Message: result.Message}, nil
}

func (h Handler) CastBallotHandler(
	ctx context.Context,
	tenant valueobjects.TenantContext,
	decisionID string,
	req httptransport.CastBallotRequest,
) (httptransport.BallotReceiptResponse, error) {
	result, err := h.Ballots.CastBallot(ctx, commands.CastBallotCommand{
		Tenant:         tenant,
		DecisionID:     decisionID,
		SelectedOption: req.SelectedOption,
	})
	if err != nil {
		return httptransport.BallotReceiptResponse{}, err
	}
	return httptransport.BallotReceiptResponse{
		DecisionID:     result.DecisionID,
		SelectedOption: result.SelectedOption,
		CastAt:         result.CastAt,
		Replaced:       result.Replaced,
	}, nil
}

// ParseStatus maps wire status values, including the legacy Spanish terms,
// to the internal status.
func ParseStatus(raw string) (entities.DecisionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open", "activa":
		return entities.DecisionStatusOpen, true
	case "closed", "cerrada":
		return entities.DecisionStatusClosed, true
	case "cancelled", "canceled", "cancelada":
		return entities.DecisionStatusCancelled, true
	default:
		return "", false
	}
}

func (h Handler) invalidStatus(raw string) error {
	application.ResolveLogger(h.Logger).Warn("decision status rejected",
		"event", "decision_http_status_rejected",
		"module", "community-governance/decision-service",
		"layer", "transport",
		"status", raw,
	)
	problems := domainerrors.NewValidationError()
	problems.Add("status", "must be one of open, closed, cancelled")
	return problems
}

func toDecisionResponse(result entities.DecisionResult) httptransport.DecisionResponse {
	decision := result.Decision
	tally := make([]httptransport.OptionTallyResponse, 0, len(result.TallyResults))
	for _, item := range result.TallyResults {
		tally = append(tally, httptransport.OptionTallyResponse{
			Option:     item.Option,
			Count:      item.Count,
			Percentage: roundPercentage(item.Percentage),
		})
	}
	options := append([]string{}, decision.Options...)
	return httptransport.DecisionResponse{
		ID:                  decision.DecisionID,
		CompanyID:           decision.CompanyID,
		BuildingID:          decision.BuildingID,
		Title:               decision.Title,
		Description:         decision.Description,
		Kind:                string(decision.Kind),
		Options:             options,
		ClosingAt:           decision.ClosingAt.UTC(),
		QuorumRequired:      decision.QuorumRequired,
		TotalEligibleVoters: decision.TotalEligibleVoters,
		RequiresQuorum:      decision.RequiresQuorum(),
		Status:              string(decision.Status),
		WinningOption:       result.WinningOption,
		TotalBallotsAtClose: decision.TotalBallotsAtClose,
		CreatedBy:           decision.CreatedBy,
		CreatedAt:           decision.CreatedAt.UTC(),
		UpdatedAt:           decision.UpdatedAt.UTC(),
		ClosedAt:            decision.ClosedAt,
		CancelledAt:         decision.CancelledAt,
		TallyResults:        tally,
		TotalBallots:        result.TotalBallots,
		QuorumMet:           result.QuorumMet,
		ResultDrift:         result.ResultDrift,
	}
}

func roundPercentage(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
