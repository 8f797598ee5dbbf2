package services

import "propdesk/contexts/community-governance/decision-service/domain/entities"

// ResolveWinner returns the option with the highest count. The first option
// in declared order wins ties; no winner when every count is zero.
func ResolveWinner(results []entities.OptionTally) (entities.OptionTally, bool) {
	var (
		best  entities.OptionTally
		found bool
	)
	for _, item := range results {
		if !found || item.Count > best.Count {
			best = item
			found = true
		}
	}
	if !found || best.Count == 0 {
		return entities.OptionTally{}, false
	}
	return best, true
}
