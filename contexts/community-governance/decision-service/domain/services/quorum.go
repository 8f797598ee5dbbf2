package services

// QuorumMet is false whenever no eligible voter count is configured,
// including a zero quorum percentage.
func QuorumMet(totalEligibleVoters int, quorumRequired float64, totalBallots int) bool {
	if totalEligibleVoters <= 0 {
		return false
	}
	required := float64(totalEligibleVoters) * quorumRequired / 100
	return float64(totalBallots) >= required
}
