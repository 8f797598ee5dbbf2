package entities

import "time"

type DecisionStatus string

const (
	DecisionStatusOpen      DecisionStatus = "open"
	DecisionStatusClosed    DecisionStatus = "closed"
	DecisionStatusCancelled DecisionStatus = "cancelled"
)

func (s DecisionStatus) Valid() bool {
	switch s {
	case DecisionStatusOpen, DecisionStatusClosed, DecisionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s DecisionStatus) IsTerminal() bool {
	return s == DecisionStatusClosed || s == DecisionStatusCancelled
}

type DecisionKind string

const (
	DecisionKindCommunity   DecisionKind = "community_decision"
	DecisionKindImprovement DecisionKind = "improvement"
	DecisionKindExpense     DecisionKind = "expense"
	DecisionKindPolicy      DecisionKind = "policy"
	DecisionKindOther       DecisionKind = "other"
)

func (k DecisionKind) Valid() bool {
	switch k {
	case DecisionKindCommunity, DecisionKindImprovement, DecisionKindExpense, DecisionKindPolicy, DecisionKindOther:
		return true
	default:
		return false
	}
}

type Decision struct {
	DecisionID          string
	CompanyID           string
	BuildingID          string
	Title               string
	Description         string
	Kind                DecisionKind
	Options             []string
	ClosingAt           time.Time
	QuorumRequired      float64
	TotalEligibleVoters int
	Status              DecisionStatus
	WinningOption       *string
	TotalBallotsAtClose *int
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ClosedAt            *time.Time
	CancelledAt         *time.Time
}

func (d Decision) RequiresQuorum() bool {
	return d.TotalEligibleVoters > 0
}

// AcceptsBallots reports whether a ballot cast at now may be recorded.
func (d Decision) AcceptsBallots(now time.Time) bool {
	return d.Status == DecisionStatusOpen && !now.After(d.ClosingAt)
}

type Ballot struct {
	BallotID       string
	DecisionID     string
	VoterID        string
	SelectedOption string
	CastAt         time.Time
}

type OptionTally struct {
	Option     string
	Count      int
	Percentage float64
}

// DecisionResult is the read model returned for every decision lookup.
type DecisionResult struct {
	Decision      Decision
	TallyResults  []OptionTally
	TotalBallots  int
	QuorumMet     bool
	WinningOption *string
	ResultDrift   bool
}
