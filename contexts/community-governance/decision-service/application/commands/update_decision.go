package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	application "propdesk/contexts/community-governance/decision-service/application"
	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/services"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
	"propdesk/contexts/community-governance/decision-service/ports"
)

// DetailsPatch edits descriptive fields. Allowed unless cancelled.
type DetailsPatch struct {
	Title       *string
	Description *string
	Kind        *entities.DecisionKind
}

func (p DetailsPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.Kind == nil
}

// StructuralPatch edits fields that shape the vote. Allowed only while open.
// A nil Options slice leaves the options untouched.
type StructuralPatch struct {
	Options             []string
	BuildingID          *string
	ClosingAt           *string
	QuorumRequired      *float64
	TotalEligibleVoters *int
}

func (p StructuralPatch) empty() bool {
	return p.Options == nil && p.BuildingID == nil && p.ClosingAt == nil &&
		p.QuorumRequired == nil && p.TotalEligibleVoters == nil
}

// StatusPatch requests a lifecycle transition. Allowed only while open.
type StatusPatch struct {
	Status *entities.DecisionStatus
}

type UpdateDecisionCommand struct {
	Tenant     valueobjects.TenantContext
	DecisionID string
	Details    DetailsPatch
	Structural StructuralPatch
	Status     StatusPatch
}

type CloseDecisionCommand struct {
	Tenant     valueobjects.TenantContext
	DecisionID string
}

type validatedPatch struct {
	title       *string
	description *string
	kind        *entities.DecisionKind
	options     []string
	buildingID  *string
	closingAt   *time.Time
	quorum      *float64
	voters      *int
	status      *entities.DecisionStatus
}

// UpdateDecision applies a typed patch. A transition to closed tallies the
// ballots under the decision row lock and freezes the winner.
func (uc DecisionUseCase) UpdateDecision(ctx context.Context, cmd UpdateDecisionCommand) (entities.DecisionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	companyID := strings.TrimSpace(cmd.Tenant.CompanyID)
	decisionID := strings.TrimSpace(cmd.DecisionID)

	patch, err := validateUpdate(cmd)
	if err != nil {
		logger.Warn("decision update validation failed",
			"event", "decision_update_validation_failed",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"decision_id", decisionID,
			"error", err.Error(),
		)
		return entities.DecisionResult{}, err
	}
	if patch.buildingID != nil {
		if err := uc.ensureBuilding(ctx, companyID, *patch.buildingID); err != nil {
			return entities.DecisionResult{}, err
		}
	}

	now := uc.now()
	actorID := strings.TrimSpace(cmd.Tenant.UserID)
	decision, ballots, err := uc.Decisions.MutateDecision(ctx, companyID, decisionID,
		func(current entities.Decision, ballots []entities.Ballot) (entities.Decision, []ports.EventEnvelope, error) {
			return uc.applyPatch(ctx, current, ballots, patch, actorID, now)
		},
	)
	if err != nil {
		level := logger.Error
		if errors.Is(err, domainerrors.ErrValidation) || errors.Is(err, domainerrors.ErrNotFound) {
			level = logger.Warn
		}
		level("decision update failed",
			"event", "decision_update_failed",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"decision_id", decisionID,
			"error", err.Error(),
		)
		return entities.DecisionResult{}, err
	}

	logger.Info("decision updated",
		"event", "decision_updated",
		"module", "community-governance/decision-service",
		"layer", "application",
		"company_id", companyID,
		"decision_id", decision.DecisionID,
		"status", string(decision.Status),
	)
	return services.BuildResult(decision, ballots), nil
}

// CloseDecision closes an open decision and freezes its result.
func (uc DecisionUseCase) CloseDecision(ctx context.Context, cmd CloseDecisionCommand) (entities.DecisionResult, error) {
	status := entities.DecisionStatusClosed
	return uc.UpdateDecision(ctx, UpdateDecisionCommand{
		Tenant:     cmd.Tenant,
		DecisionID: cmd.DecisionID,
		Status:     StatusPatch{Status: &status},
	})
}

func (uc DecisionUseCase) applyPatch(
	ctx context.Context,
	current entities.Decision,
	ballots []entities.Ballot,
	patch validatedPatch,
	actorID string,
	now time.Time,
) (entities.Decision, []ports.EventEnvelope, error) {
	hasDetails := patch.title != nil || patch.description != nil || patch.kind != nil
	hasStructural := patch.options != nil || patch.buildingID != nil || patch.closingAt != nil ||
		patch.quorum != nil || patch.voters != nil

	if hasDetails && current.Status == entities.DecisionStatusCancelled {
		return current, nil, domainerrors.ErrDecisionTerminal
	}
	if (hasStructural || patch.status != nil) && current.Status.IsTerminal() {
		return current, nil, domainerrors.ErrDecisionTerminal
	}

	next := current
	if patch.title != nil {
		next.Title = *patch.title
	}
	if patch.description != nil {
		next.Description = *patch.description
	}
	if patch.kind != nil {
		next.Kind = *patch.kind
	}
	if patch.options != nil {
		next.Options = patch.options
	}
	if patch.buildingID != nil {
		next.BuildingID = *patch.buildingID
	}
	if patch.closingAt != nil {
		next.ClosingAt = *patch.closingAt
	}
	if patch.quorum != nil {
		next.QuorumRequired = *patch.quorum
	}
	if patch.voters != nil {
		next.TotalEligibleVoters = *patch.voters
	}
	next.UpdatedAt = now

	if patch.status == nil || *patch.status == entities.DecisionStatusOpen {
		return next, nil, nil
	}

	var (
		eventType string
		err       error
	)
	switch *patch.status {
	case entities.DecisionStatusClosed:
		eventType = ports.EventDecisionClosed
		next, err = services.CloseDecision(next, ballots, now)
	case entities.DecisionStatusCancelled:
		eventType = ports.EventDecisionCancelled
		next, err = services.CancelDecision(next, now)
	}
	if err != nil {
		return current, nil, err
	}
	event, err := uc.buildEvent(ctx, eventType, next, actorID, now)
	if err != nil {
		return current, nil, err
	}
	return next, []ports.EventEnvelope{event}, nil
}

func validateUpdate(cmd UpdateDecisionCommand) (validatedPatch, error) {
	problems := domainerrors.NewValidationError()
	validateTenant(cmd.Tenant, problems)
	if strings.TrimSpace(cmd.DecisionID) == "" {
		problems.Add("decisionId", "is required")
	}
	if cmd.Details.empty() && cmd.Structural.empty() && cmd.Status.Status == nil {
		problems.Add("patch", "at least one field is required")
	}

	var patch validatedPatch
	if cmd.Details.Title != nil {
		title := validateTitle(*cmd.Details.Title, problems)
		patch.title = &title
	}
	if cmd.Details.Description != nil {
		description := validateDescription(*cmd.Details.Description, problems)
		patch.description = &description
	}
	if cmd.Details.Kind != nil {
		kind := validateKind(*cmd.Details.Kind, problems)
		patch.kind = &kind
	}
	if cmd.Structural.Options != nil {
		patch.options = validateOptions(cmd.Structural.Options, problems)
	}
	if cmd.Structural.BuildingID != nil {
		buildingID := strings.TrimSpace(*cmd.Structural.BuildingID)
		if buildingID == "" {
			problems.Add("buildingId", "must not be empty")
		}
		patch.buildingID = &buildingID
	}
	if cmd.Structural.ClosingAt != nil {
		closingAt := validateClosingAt(*cmd.Structural.ClosingAt, problems)
		patch.closingAt = &closingAt
	}
	if cmd.Structural.QuorumRequired != nil {
		validateQuorum(*cmd.Structural.QuorumRequired, problems)
		patch.quorum = cmd.Structural.QuorumRequired
	}
	if cmd.Structural.TotalEligibleVoters != nil {
		validateEligibleVoters(*cmd.Structural.TotalEligibleVoters, problems)
		patch.voters = cmd.Structural.TotalEligibleVoters
	}
	if cmd.Status.Status != nil {
		if !cmd.Status.Status.Valid() {
			problems.Add("status", "is not supported")
		}
		patch.status = cmd.Status.Status
	}
	return patch, problems.OrNil()
}
