package commands

import (
	"context"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
)

type CancelDecisionCommand struct {
	Tenant     valueobjects.TenantContext
	DecisionID string
}

type CancelDecisionResult struct {
	DecisionID string
	Message    string
}

// CancelDecision soft deletes an open decision. Closed and cancelled
// decisions are rejected with ErrDecisionTerminal.
func (uc DecisionUseCase) CancelDecision(ctx context.Context, cmd CancelDecisionCommand) (CancelDecisionResult, error) {
	status := entities.DecisionStatusCancelled
	result, err := uc.UpdateDecision(ctx, UpdateDecisionCommand{
		Tenant:     cmd.Tenant,
		DecisionID: cmd.DecisionID,
		Status:     StatusPatch{Status: &status},
	})
	if err != nil {
		return CancelDecisionResult{}, err
	}
	return CancelDecisionResult{
		DecisionID: result.Decision.DecisionID,
		Message:    "decision cancelled",
	}, nil
}
