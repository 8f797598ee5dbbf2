package postgresadapter

import (
	"strings"
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"

	"gorm.io/datatypes"
)

type decisionModel struct {
	ID                  string                      `gorm:"column:id;primaryKey"`
	CompanyID           string                      `gorm:"column:company_id;not null;index:idx_community_decisions_company_created,priority:1"`
	BuildingID          string                      `gorm:"column:building_id;not null;index:idx_community_decisions_building"`
	Title               string                      `gorm:"column:title;not null"`
	Description         string                      `gorm:"column:description;not null"`
	Kind                string                      `gorm:"column:kind;not null"`
	Options             datatypes.JSONSlice[string] `gorm:"column:options;not null"`
	ClosingAt           time.Time                   `gorm:"column:closing_at;not null;index:idx_community_decisions_status_closing,priority:2"`
	QuorumRequired      float64                     `gorm:"column:quorum_required;not null"`
	TotalEligibleVoters int                         `gorm:"column:total_eligible_voters;not null"`
	Status              string                      `gorm:"column:status;not null;index:idx_community_decisions_status_closing,priority:1"`
	WinningOption       *string                     `gorm:"column:winning_option"`
	TotalBallotsAtClose *int                        `gorm:"column:total_ballots_at_close"`
	CreatedBy           string                      `gorm:"column:created_by"`
	CreatedAt           time.Time                   `gorm:"column:created_at;index:idx_community_decisions_company_created,priority:2"`
	UpdatedAt           time.Time                   `gorm:"column:updated_at"`
	ClosedAt            *time.Time                  `gorm:"column:closed_at"`
	CancelledAt         *time.Time                  `gorm:"column:cancelled_at"`
}

func (decisionModel) TableName() string {
	return "community_decisions"
}

func decisionModelFromEntity(decision entities.Decision) decisionModel {
	row := decisionModel{
		ID:                  strings.TrimSpace(decision.DecisionID),
		CompanyID:           strings.TrimSpace(decision.CompanyID),
		BuildingID:          strings.TrimSpace(decision.BuildingID),
		Title:               decision.Title,
		Description:         decision.Description,
		Kind:                string(decision.Kind),
		Options:             datatypes.JSONSlice[string](append([]string(nil), decision.Options...)),
		ClosingAt:           decision.ClosingAt.UTC(),
		QuorumRequired:      decision.QuorumRequired,
		TotalEligibleVoters: decision.TotalEligibleVoters,
		Status:              string(decision.Status),
		WinningOption:       decision.WinningOption,
		TotalBallotsAtClose: decision.TotalBallotsAtClose,
		CreatedBy:           strings.TrimSpace(decision.CreatedBy),
		CreatedAt:           decision.CreatedAt.UTC(),
		UpdatedAt:           decision.UpdatedAt.UTC(),
		ClosedAt:            normalizeOptionalTime(decision.ClosedAt),
		CancelledAt:         normalizeOptionalTime(decision.CancelledAt),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

// changes lists the mutable columns written back after a locked mutation.
func (m decisionModel) changes() map[string]any {
	return map[string]any{
		"building_id":            m.BuildingID,
		"title":                  m.Title,
		"description":            m.Description,
		"kind":                   m.Kind,
		"options":                m.Options,
		"closing_at":             m.ClosingAt,
		"quorum_required":        m.QuorumRequired,
		"total_eligible_voters":  m.TotalEligibleVoters,
		"status":                 m.Status,
		"winning_option":         m.WinningOption,
		"total_ballots_at_close": m.TotalBallotsAtClose,
		"updated_at":             m.UpdatedAt,
		"closed_at":              m.ClosedAt,
		"cancelled_at":           m.CancelledAt,
	}
}

func (m decisionModel) toEntity() entities.Decision {
	return entities.Decision{
		DecisionID:          m.ID,
		CompanyID:           m.CompanyID,
		BuildingID:          m.BuildingID,
		Title:               m.Title,
		Description:         m.Description,
		Kind:                entities.DecisionKind(m.Kind),
		Options:             append([]string(nil), m.Options...),
		ClosingAt:           m.ClosingAt.UTC(),
		QuorumRequired:      m.QuorumRequired,
		TotalEligibleVoters: m.TotalEligibleVoters,
		Status:              entities.DecisionStatus(m.Status),
		WinningOption:       m.WinningOption,
		TotalBallotsAtClose: m.TotalBallotsAtClose,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
		ClosedAt:            normalizeOptionalTime(m.ClosedAt),
		CancelledAt:         normalizeOptionalTime(m.CancelledAt),
	}
}

type ballotModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	DecisionID     string    `gorm:"column:decision_id;not null;uniqueIndex:idx_community_decision_ballots_voter,priority:1"`
	VoterID        string    `gorm:"column:voter_id;not null;uniqueIndex:idx_community_decision_ballots_voter,priority:2"`
	SelectedOption string    `gorm:"column:selected_option;not null"`
	CastAt         time.Time `gorm:"column:cast_at;not null"`
}

func (ballotModel) TableName() string {
	return "community_decision_ballots"
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:       m.ID,
		DecisionID:     m.DecisionID,
		VoterID:        m.VoterID,
		SelectedOption: m.SelectedOption,
		CastAt:         m.CastAt.UTC(),
	}
}

type buildingProjectionModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	CompanyID string `gorm:"column:company_id"`
	Name      string `gorm:"column:name"`
}

func (buildingProjectionModel) TableName() string {
	return "buildings"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	DecisionID  string    `gorm:"column:decision_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "community_decision_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index:idx_community_decision_outbox_status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "community_decision_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "community_decision_event_dedup"
}

func toBallotEntities(rows []ballotModel) []entities.Ballot {
	if len(rows) == 0 {
		return nil
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
