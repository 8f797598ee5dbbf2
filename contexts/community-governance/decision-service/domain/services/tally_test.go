package services

import (
	"testing"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
)

func ballotsFor(options ...string) []entities.Ballot {
	items := make([]entities.Ballot, 0, len(options))
	for _, option := range options {
		items = append(items, entities.Ballot{SelectedOption: option})
	}
	return items
}

func TestTallyKeepsDeclaredOrderAndPercentages(t *testing.T) {
	results := Tally([]string{"Sí", "No"}, ballotsFor("Sí", "No", "Sí", "Sí", "Sí"))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Option != "Sí" || results[0].Count != 4 || results[0].Percentage != 80 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Option != "No" || results[1].Count != 1 || results[1].Percentage != 20 {
		t.Fatalf("unexpected second result: %+v", results[1])
	}
}

func TestTallyWithoutBallotsReportsZeroPercentages(t *testing.T) {
	results := Tally([]string{"A", "B", "C"}, nil)
	for _, item := range results {
		if item.Count != 0 || item.Percentage != 0 {
			t.Fatalf("expected zero tally, got %+v", item)
		}
	}
}

func TestTallyUsesExactMatch(t *testing.T) {
	results := Tally([]string{"Yes", "No"}, ballotsFor("yes", "Yes"))
	if results[0].Count != 1 {
		t.Fatalf("expected exact match count 1, got %d", results[0].Count)
	}
	if results[0].Percentage != 50 {
		t.Fatalf("expected percentage over all ballots, got %v", results[0].Percentage)
	}
}

func TestQuorumMet(t *testing.T) {
	cases := []struct {
		name     string
		eligible int
		quorum   float64
		ballots  int
		want     bool
	}{
		{name: "exact threshold", eligible: 10, quorum: 50, ballots: 5, want: true},
		{name: "below threshold", eligible: 10, quorum: 50, ballots: 4, want: false},
		{name: "fractional threshold", eligible: 3, quorum: 50, ballots: 1, want: false},
		{name: "zero quorum", eligible: 10, quorum: 0, ballots: 0, want: true},
		{name: "no eligible voters", eligible: 0, quorum: 1, ballots: 100, want: false},
		{name: "no eligible voters zero quorum", eligible: 0, quorum: 0, ballots: 0, want: false},
		{name: "negative eligible voters", eligible: -4, quorum: 10, ballots: 3, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := QuorumMet(tc.eligible, tc.quorum, tc.ballots); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestResolveWinnerFirstOptionWinsTie(t *testing.T) {
	tally := Tally([]string{"A", "B"}, ballotsFor("B", "A", "B", "A", "A", "B"))
	winner, ok := ResolveWinner(tally)
	if !ok {
		t.Fatalf("expected a winner")
	}
	if winner.Option != "A" || winner.Count != 3 {
		t.Fatalf("expected A with 3, got %+v", winner)
	}
}

func TestResolveWinnerWithoutBallots(t *testing.T) {
	if _, ok := ResolveWinner(Tally([]string{"A", "B"}, nil)); ok {
		t.Fatalf("expected no winner for zero ballots")
	}
	if _, ok := ResolveWinner(nil); ok {
		t.Fatalf("expected no winner for empty tally")
	}
}

func TestResolveWinnerStrictlyGreaterReplaces(t *testing.T) {
	winner, ok := ResolveWinner(Tally([]string{"A", "B", "C"}, ballotsFor("C", "B", "C")))
	if !ok || winner.Option != "C" {
		t.Fatalf("expected C, got %+v", winner)
	}
}
