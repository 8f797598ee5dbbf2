package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "propdesk/contexts/community-governance/decision-service/application"
	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/services"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
	"propdesk/contexts/community-governance/decision-service/ports"
)

type CastBallotCommand struct {
	Tenant         valueobjects.TenantContext
	DecisionID     string
	SelectedOption string
}

// CastBallotResult identifies the stored ballot. Replaced is set when the
// voter already had a ballot on the decision.
type CastBallotResult struct {
	BallotID       string
	DecisionID     string
	SelectedOption string
	CastAt         time.Time
	Replaced       bool
}

// BallotUseCase records one ballot per voter on open decisions.
type BallotUseCase struct {
	Ballots ports.BallotRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc BallotUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (CastBallotResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	companyID := strings.TrimSpace(cmd.Tenant.CompanyID)
	decisionID := strings.TrimSpace(cmd.DecisionID)
	voterID := strings.TrimSpace(cmd.Tenant.UserID)

	problems := domainerrors.NewValidationError()
	validateTenant(cmd.Tenant, problems)
	if decisionID == "" {
		problems.Add("decisionId", "is required")
	}
	if strings.TrimSpace(cmd.SelectedOption) == "" {
		problems.Add("selectedOption", "is required")
	}
	if err := problems.OrNil(); err != nil {
		return CastBallotResult{}, err
	}

	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastBallotResult{}, err
	}

	ballot, replaced, err := uc.Ballots.RecordBallot(ctx, companyID, decisionID, voterID,
		func(decision entities.Decision, existing *entities.Ballot) (entities.Ballot, error) {
			if decision.Status.IsTerminal() {
				return entities.Ballot{}, domainerrors.ErrDecisionTerminal
			}
			if !decision.AcceptsBallots(now) {
				return entities.Ballot{}, domainerrors.ErrVotingClosed
			}
			option, ok := services.MatchOption(decision.Options, cmd.SelectedOption)
			if !ok {
				invalid := domainerrors.NewValidationError()
				invalid.Add("selectedOption", "is not one of the decision options")
				return entities.Ballot{}, invalid
			}
			next := entities.Ballot{
				BallotID:       ballotID,
				DecisionID:     decision.DecisionID,
				VoterID:        voterID,
				SelectedOption: option,
				CastAt:         now,
			}
			if existing != nil {
				next.BallotID = existing.BallotID
			}
			return next, nil
		},
	)
	if err != nil {
		level := logger.Error
		if errors.Is(err, domainerrors.ErrValidation) || errors.Is(err, domainerrors.ErrNotFound) {
			level = logger.Warn
		}
		level("ballot cast failed",
			"event", "decision_ballot_cast_failed",
			"module", "community-governance/decision-service",
			"layer", "application",
			"company_id", companyID,
			"decision_id", decisionID,
			"error", err.Error(),
		)
		return CastBallotResult{}, err
	}

	logger.Info("ballot cast",
		"event", "decision_ballot_cast",
		"module", "community-governance/decision-service",
		"layer", "application",
		"company_id", companyID,
		"decision_id", decisionID,
		"replaced", replaced,
	)
	return CastBallotResult{
		BallotID:       ballot.BallotID,
		DecisionID:     ballot.DecisionID,
		SelectedOption: ballot.SelectedOption,
		CastAt:         ballot.CastAt,
		Replaced:       replaced,
	}, nil
}
