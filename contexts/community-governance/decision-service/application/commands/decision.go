package commands

import (
	"log/slog"
	"strings"
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/services"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
	"propdesk/contexts/community-governance/decision-service/ports"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

// DecisionUseCase orchestrates the decision lifecycle: creation, typed
// patches, close with winner freeze, and cancellation. Every state change
// appends its event to the outbox in the same repository transaction.
type DecisionUseCase struct {
	Decisions      ports.DecisionRepository
	Buildings      ports.BuildingDirectory
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc DecisionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc DecisionUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func validateTenant(tenant valueobjects.TenantContext, problems *domainerrors.ValidationError) {
	if strings.TrimSpace(tenant.CompanyID) == "" {
		problems.Add("companyId", "is required")
	}
	if strings.TrimSpace(tenant.UserID) == "" {
		problems.Add("userId", "is required")
	}
}

func validateTitle(raw string, problems *domainerrors.ValidationError) string {
	title := strings.TrimSpace(raw)
	switch {
	case title == "":
		problems.Add("title", "is required")
	case len([]rune(title)) > maxTitleLength:
		problems.Add("title", "is too long")
	}
	return title
}

func validateDescription(raw string, problems *domainerrors.ValidationError) string {
	description := strings.TrimSpace(raw)
	switch {
	case description == "":
		problems.Add("description", "is required")
	case len([]rune(description)) > maxDescriptionLength:
		problems.Add("description", "is too long")
	}
	return description
}

func validateKind(raw entities.DecisionKind, problems *domainerrors.ValidationError) entities.DecisionKind {
	kind := entities.DecisionKind(strings.TrimSpace(string(raw)))
	if kind == "" {
		return entities.DecisionKindCommunity
	}
	if !kind.Valid() {
		problems.Add("kind", "is not supported")
	}
	return kind
}

func validateOptions(raw []string, problems *domainerrors.ValidationError) []string {
	options := services.SanitizeOptions(raw)
	if len(options) < services.MinDecisionOptions {
		problems.Add("options", "at least two non-empty options are required")
		return options
	}
	if duplicate, ok := services.DuplicateOption(options); ok {
		problems.Add("options", "duplicate option "+duplicate)
	}
	return options
}

func validateClosingAt(raw string, problems *domainerrors.ValidationError) time.Time {
	closingAt, err := services.ParseClosingAt(raw)
	if err != nil {
		problems.Add("closingAt", err.Error())
	}
	return closingAt
}

func validateQuorum(value float64, problems *domainerrors.ValidationError) {
	if value < 0 || value > 100 {
		problems.Add("quorumRequired", "must be between 0 and 100")
	}
}

func validateEligibleVoters(value int, problems *domainerrors.ValidationError) {
	if value < 0 {
		problems.Add("totalEligibleVoters", "must not be negative")
	}
}
