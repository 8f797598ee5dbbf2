package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
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

// CreateDecisionCommand is the write-model input for decision creation.
type CreateDecisionCommand struct {
	Tenant              valueobjects.TenantContext
	IdempotencyKey      string
	BuildingID          string
	Title               string
	Description         string
	Kind                entities.DecisionKind
	Options             []string
	ClosingAt           string
	QuorumRequired      float64
	TotalEligibleVoters int
}

// CreateDecisionResult carries the stored decision envelope. Replayed is set
// when an identical request with the same idempotency key was served before.
type CreateDecisionResult struct {
	Result   entities.DecisionResult
	Replayed bool
}

func (uc DecisionUseCase) CreateDecision(ctx context.Context, cmd CreateDecisionCommand) (CreateDecisionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	companyID := strings.TrimSpace(cmd.Tenant.CompanyID)
	buildingID := strings.TrimSpace(cmd.BuildingID)

	problems := domainerrors.NewValidationError()
	validateTenant(cmd.Tenant, problems)
	if buildingID == "" {
		problems.Add("buildingId", "is required")
	}
	title := validateTitle(cmd.Title, problems)
	description := validateDescription(cmd.Description, problems)
	kind := validateKind(cmd.Kind, problems)
	options := validateOptions(cmd.Options, problems)
	closingAt := validateClosingAt(cmd.ClosingAt, problems)
	validateQuorum(cmd.QuorumRequired, problems)
	validateEligibleVoters(cmd.TotalEligibleVoters, problems)
	if err := problems.OrNil(); err != nil {
		logger.Warn("decision create validation failed",
			"event", "decision_create_validation_failed",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"error", err.Error(),
		)
		return CreateDecisionResult{}, err
	}

	now := uc.now()
	idempotencyKey := scopedIdempotencyKey(companyID, cmd.IdempotencyKey)
	requestHash := hashCreateDecisionCommand(cmd, options)
	if idempotencyKey != "" {
		replay, found, err := uc.replayCreate(ctx, companyID, idempotencyKey, requestHash, now)
		if err != nil || found {
			return replay, err
		}
	}

	if err := uc.ensureBuilding(ctx, companyID, buildingID); err != nil {
		return CreateDecisionResult{}, err
	}

	decisionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateDecisionResult{}, err
	}
	decision := entities.Decision{
		DecisionID:          decisionID,
		CompanyID:           companyID,
		BuildingID:          buildingID,
		Title:               title,
		Description:         description,
		Kind:                kind,
		Options:             options,
		ClosingAt:           closingAt,
		QuorumRequired:      cmd.QuorumRequired,
		TotalEligibleVoters: cmd.TotalEligibleVoters,
		Status:              entities.DecisionStatusOpen,
		CreatedBy:           strings.TrimSpace(cmd.Tenant.UserID),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	event, err := uc.buildEvent(ctx, ports.EventDecisionCreated, decision, decision.CreatedBy, now)
	if err != nil {
		return CreateDecisionResult{}, err
	}
	var claim *ports.IdempotencyRecord
	if idempotencyKey != "" {
		claim = &ports.IdempotencyRecord{
			Key:         idempotencyKey,
			RequestHash: requestHash,
			DecisionID:  decision.DecisionID,
			ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
		}
	}
	if err := uc.Decisions.CreateDecision(ctx, decision, []ports.EventEnvelope{event}, claim); err != nil {
		if claim != nil && errors.Is(err, domainerrors.ErrIdempotencyConflict) {
			// A concurrent request won the key; serve its decision when the payload matches.
			replay, found, replayErr := uc.replayCreate(ctx, companyID, idempotencyKey, requestHash, now)
			if replayErr != nil || found {
				return replay, replayErr
			}
		}
		logger.Error("decision create failed",
			"event", "decision_create_failed",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"building_id", buildingID,
			"error", err.Error(),
		)
		return CreateDecisionResult{}, err
	}

	logger.Info("decision created",
		"event", "decision_created",
		"module", "community-governance/decision-service",
		"layer", "application",
		"company_id", companyID,
		"building_id", buildingID,
		"decision_id", decision.DecisionID,
		"options", len(decision.Options),
	)
	return CreateDecisionResult{Result: services.BuildResult(decision, nil)}, nil
}

// replayCreate serves a previously stored create for the key. found is false
// when no live record holds the key.
func (uc DecisionUseCase) replayCreate(
	ctx context.Context,
	companyID string,
	idempotencyKey string,
	requestHash string,
	now time.Time,
) (CreateDecisionResult, bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	record, found, err := uc.Idempotency.Get(ctx, idempotencyKey, now)
	if err != nil {
		logger.Error("decision create idempotency lookup failed",
			"event", "decision_create_idempotency_lookup_failed",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"error", err.Error(),
		)
		return CreateDecisionResult{}, false, err
	}
	if !found {
		return CreateDecisionResult{}, false, nil
	}
	if record.RequestHash != requestHash {
		logger.Warn("decision create idempotency conflict",
			"event", "decision_create_idempotency_conflict",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
		)
		return CreateDecisionResult{}, true, domainerrors.ErrIdempotencyConflict
	}
	decision, ballots, err := uc.Decisions.GetDecision(ctx, companyID, record.DecisionID)
	if err != nil {
		return CreateDecisionResult{}, true, err
	}
	logger.Info("decision create replayed",
		"event", "decision_create_replayed",
		"module", "community-governance/decision-service",
		"layer", "application",
		"company_id", companyID,
		"decision_id", decision.DecisionID,
	)
	return CreateDecisionResult{Result: services.BuildResult(decision, ballots), Replayed: true}, true, nil
}

func (uc DecisionUseCase) ensureBuilding(ctx context.Context, companyID string, buildingID string) error {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Buildings == nil {
		return errors.New("building directory is not configured")
	}
	_, found, err := uc.Buildings.FindBuilding(ctx, companyID, buildingID)
	if err != nil {
		logger.Error("building lookup failed",
			"event", "decision_building_lookup_failed",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"building_id", buildingID,
			"error", err.Error(),
		)
		return err
	}
	if !found {
		logger.Warn("building not found for company",
			"event", "decision_building_not_found",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"building_id", buildingID,
		)
		return domainerrors.ErrBuildingNotFound
	}
	return nil
}

func scopedIdempotencyKey(companyID string, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return companyID + ":" + key
}

func hashCreateDecisionCommand(cmd CreateDecisionCommand, options []string) string {
	payload := map[string]any{
		"company_id":            strings.TrimSpace(cmd.Tenant.CompanyID),
		"user_id":               strings.TrimSpace(cmd.Tenant.UserID),
		"building_id":           strings.TrimSpace(cmd.BuildingID),
		"title":                 strings.TrimSpace(cmd.Title),
		"description":           strings.TrimSpace(cmd.Description),
		"kind":                  strings.TrimSpace(string(cmd.Kind)),
		"options":               options,
		"closing_at":            strings.TrimSpace(cmd.ClosingAt),
		"quorum_required":       cmd.QuorumRequired,
		"total_eligible_voters": cmd.TotalEligibleVoters,
		"op":                    "create_decision",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
