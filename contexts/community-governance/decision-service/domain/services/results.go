package services

import "propdesk/contexts/community-governance/decision-service/domain/entities"

// BuildResult derives the live tally of a decision. A closed decision keeps
// its frozen winner; ResultDrift flags a live result that disagrees with it.
func BuildResult(decision entities.Decision, ballots []entities.Ballot) entities.DecisionResult {
	tally := Tally(decision.Options, ballots)
	totalBallots := len(ballots)

	result := entities.DecisionResult{
		Decision:     decision,
		TallyResults: tally,
		TotalBallots: totalBallots,
		QuorumMet:    QuorumMet(decision.TotalEligibleVoters, decision.QuorumRequired, totalBallots),
	}

	liveWinner, hasWinner := ResolveWinner(tally)
	switch decision.Status {
	case entities.DecisionStatusClosed:
		result.WinningOption = copyString(decision.WinningOption)
		result.ResultDrift = hasDrift(decision, liveWinner, hasWinner, totalBallots)
	case entities.DecisionStatusOpen:
		if hasWinner {
			option := liveWinner.Option
			result.WinningOption = &option
		}
	}
	return result
}

func hasDrift(decision entities.Decision, liveWinner entities.OptionTally, hasWinner bool, totalBallots int) bool {
	if decision.TotalBallotsAtClose != nil && *decision.TotalBallotsAtClose != totalBallots {
		return true
	}
	switch {
	case decision.WinningOption == nil && hasWinner:
		return true
	case decision.WinningOption != nil && !hasWinner:
		return true
	case decision.WinningOption != nil && *decision.WinningOption != liveWinner.Option:
		return true
	}
	return false
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
