package services

import (
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
)

// CloseDecision freezes the winner and ballot count from the given ballots.
// Quorum is informational and never blocks closing.
func CloseDecision(decision entities.Decision, ballots []entities.Ballot, now time.Time) (entities.Decision, error) {
	if decision.Status.IsTerminal() {
		return decision, domainerrors.ErrDecisionTerminal
	}

	tally := Tally(decision.Options, ballots)
	total := len(ballots)
	decision.Status = entities.DecisionStatusClosed
	decision.TotalBallotsAtClose = &total
	decision.WinningOption = nil
	if winner, ok := ResolveWinner(tally); ok {
		option := winner.Option
		decision.WinningOption = &option
	}
	closedAt := now.UTC()
	decision.ClosedAt = &closedAt
	decision.UpdatedAt = closedAt
	return decision, nil
}

// CancelDecision soft deletes an open decision.
func CancelDecision(decision entities.Decision, now time.Time) (entities.Decision, error) {
	if decision.Status.IsTerminal() {
		return decision, domainerrors.ErrDecisionTerminal
	}

	cancelledAt := now.UTC()
	decision.Status = entities.DecisionStatusCancelled
	decision.WinningOption = nil
	decision.CancelledAt = &cancelledAt
	decision.UpdatedAt = cancelledAt
	return decision, nil
}
