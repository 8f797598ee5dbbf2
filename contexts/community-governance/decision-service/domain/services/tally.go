package services

import "propdesk/contexts/community-governance/decision-service/domain/entities"

// Tally counts ballots per option in declared option order.
// Ballots naming an unknown option still count towards the total.
func Tally(options []string, ballots []entities.Ballot) []entities.OptionTally {
	counts := make(map[string]int, len(options))
	for _, ballot := range ballots {
		counts[ballot.SelectedOption]++
	}

	total := len(ballots)
	results := make([]entities.OptionTally, 0, len(options))
	for _, option := range options {
		count := counts[option]
		percentage := 0.0
		if total > 0 {
			percentage = float64(count) / float64(total) * 100
		}
		results = append(results, entities.OptionTally{
			Option:     option,
			Count:      count,
			Percentage: percentage,
		})
	}
	return results
}
