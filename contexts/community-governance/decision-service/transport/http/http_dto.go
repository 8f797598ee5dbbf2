package http

import "time"

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type CreateDecisionRequest struct {
	BuildingID          string   `json:"buildingId"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Kind                string   `json:"kind,omitempty"`
	Options             []string `json:"options"`
	ClosingAt           string   `json:"closingAt"`
	QuorumRequired      float64  `json:"quorumRequired"`
	TotalEligibleVoters int      `json:"totalEligibleVoters"`
}

// UpdateDecisionRequest is a partial update; absent fields stay unchanged.
type UpdateDecisionRequest struct {
	Title               *string  `json:"title,omitempty"`
	Description         *string  `json:"description,omitempty"`
	Kind                *string  `json:"kind,omitempty"`
	Options             []string `json:"options,omitempty"`
	BuildingID          *string  `json:"buildingId,omitempty"`
	ClosingAt           *string  `json:"closingAt,omitempty"`
	QuorumRequired      *float64 `json:"quorumRequired,omitempty"`
	TotalEligibleVoters *int     `json:"totalEligibleVoters,omitempty"`
	Status              *string  `json:"status,omitempty"`
}

type OptionTallyResponse struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DecisionResponse struct {
	ID                  string                `json:"id"`
	CompanyID           string                `json:"companyId"`
	BuildingID          string                `json:"buildingId"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	Kind                string                `json:"kind"`
	Options             []string              `json:"options"`
	ClosingAt           time.Time             `json:"closingAt"`
	QuorumRequired      float64               `json:"quorumRequired"`
	TotalEligibleVoters int                   `json:"totalEligibleVoters"`
	RequiresQuorum      bool                  `json:"requiresQuorum"`
	Status              string                `json:"status"`
	WinningOption       *string               `json:"winningOption"`
	TotalBallotsAtClose *int                  `json:"totalBallotsAtClose"`
	CreatedBy           string                `json:"createdBy"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
	ClosedAt            *time.Time            `json:"closedAt,omitempty"`
	CancelledAt         *time.Time            `json:"cancelledAt,omitempty"`
	TallyResults        []OptionTallyResponse `json:"tallyResults"`
	TotalBallots        int                   `json:"totalBallots"`
	QuorumMet           bool                  `json:"quorumMet"`
	ResultDrift         bool                  `json:"resultDrift"`
	Replayed            bool                  `json:"replayed,omitempty"`
}

type ListDecisionsResponse struct {
	Items []DecisionResponse `json:"items"`
}

type CastBallotRequest struct {
	SelectedOption string `json:"selectedOption"`
}

type BallotReceiptResponse struct {
	DecisionID     string    `json:"decisionId"`
	SelectedOption string    `json:"selectedOption"`
	CastAt         time.Time `json:"castAt"`
	Replaced       bool      `json:"replaced"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
