package services

import (
	"errors"
	"testing"
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
)

func openDecision() entities.Decision {
	return entities.Decision{
		DecisionID:          "dec-1",
		CompanyID:           "company-1",
		Options:             []string{"Sí", "No"},
		QuorumRequired:      50,
		TotalEligibleVoters: 10,
		Status:              entities.DecisionStatusOpen,
		ClosingAt:           time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildResultOpenUsesLiveWinner(t *testing.T) {
	result := BuildResult(openDecision(), ballotsFor("Sí", "Sí", "Sí", "Sí", "No"))
	if result.TotalBallots != 5 || !result.QuorumMet {
		t.Fatalf("unexpected totals: %+v", result)
	}
	if result.WinningOption == nil || *result.WinningOption != "Sí" {
		t.Fatalf("expected live winner Sí, got %v", result.WinningOption)
	}
	if result.ResultDrift {
		t.Fatalf("open decisions never drift")
	}
}

func TestBuildResultCancelledHasNoWinner(t *testing.T) {
	decision := openDecision()
	decision.Status = entities.DecisionStatusCancelled
	result := BuildResult(decision, ballotsFor("Sí", "Sí", "No"))
	if result.WinningOption != nil {
		t.Fatalf("expected no winner for cancelled decision, got %q", *result.WinningOption)
	}
	if result.TotalBallots != 3 || len(result.TallyResults) != 2 || result.TallyResults[0].Count != 2 {
		t.Fatalf("expected tally kept for cancelled decision: %+v", result)
	}
	if result.ResultDrift {
		t.Fatalf("cancelled decisions never drift")
	}
}

func TestCloseDecisionFreezesSnapshot(t *testing.T) {
	now := time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)
	closed, err := CloseDecision(openDecision(), ballotsFor("No", "Sí", "No"), now)
	if err != nil {
		t.Fatalf("close decision: %v", err)
	}
	if closed.Status != entities.DecisionStatusClosed {
		t.Fatalf("expected closed, got %s", closed.Status)
	}
	if closed.WinningOption == nil || *closed.WinningOption != "No" {
		t.Fatalf("expected frozen winner No, got %v", closed.WinningOption)
	}
	if closed.TotalBallotsAtClose == nil || *closed.TotalBallotsAtClose != 3 {
		t.Fatalf("expected 3 frozen ballots, got %v", closed.TotalBallotsAtClose)
	}
	if closed.ClosedAt == nil || !closed.ClosedAt.Equal(now) {
		t.Fatalf("expected closedAt %s, got %v", now, closed.ClosedAt)
	}

	late := BuildResult(closed, ballotsFor("No", "Sí", "No", "Sí", "Sí"))
	if late.WinningOption == nil || *late.WinningOption != "No" {
		t.Fatalf("expected frozen winner to survive late ballots, got %v", late.WinningOption)
	}
	if !late.ResultDrift {
		t.Fatalf("expected drift to be flagged")
	}

	same := BuildResult(closed, ballotsFor("No", "Sí", "No"))
	if same.ResultDrift {
		t.Fatalf("expected no drift for unchanged ballots")
	}
}

func TestCloseDecisionWithoutBallots(t *testing.T) {
	closed, err := CloseDecision(openDecision(), nil, time.Now())
	if err != nil {
		t.Fatalf("close decision: %v", err)
	}
	if closed.WinningOption != nil {
		t.Fatalf("expected no winner, got %q", *closed.WinningOption)
	}
	if closed.TotalBallotsAtClose == nil || *closed.TotalBallotsAtClose != 0 {
		t.Fatalf("expected 0 frozen ballots, got %v", closed.TotalBallotsAtClose)
	}
}

func TestTerminalDecisionsRejectTransitions(t *testing.T) {
	cancelled, err := CancelDecision(openDecision(), time.Now())
	if err != nil {
		t.Fatalf("cancel decision: %v", err)
	}
	if _, err := CancelDecision(cancelled, time.Now()); !errors.Is(err, domainerrors.ErrDecisionTerminal) {
		t.Fatalf("expected terminal error on re-cancel, got %v", err)
	}
	if _, err := CloseDecision(cancelled, nil, time.Now()); !errors.Is(err, domainerrors.ErrDecisionTerminal) {
		t.Fatalf("expected terminal error on close after cancel, got %v", err)
	}
	if !errors.Is(domainerrors.ErrDecisionTerminal, domainerrors.ErrValidation) {
		t.Fatalf("expected terminal error in validation family")
	}
}
