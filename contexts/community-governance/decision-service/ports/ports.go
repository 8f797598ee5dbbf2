package ports

import (
	"context"
	"time"

	contractsv1 "propdesk/contracts/gen/events/v1"
	"propdesk/contexts/community-governance/decision-service/domain/entities"
)

type EventEnvelope = contractsv1.Envelope

// DecisionMutation receives the locked decision and its ballots and returns
// the next state plus the events to append in the same transaction.
type DecisionMutation func(current entities.Decision, ballots []entities.Ballot) (entities.Decision, []EventEnvelope, error)

// BallotRecorder receives the locked decision and the voter's previous
// ballot, if any, and returns the ballot to store.
type BallotRecorder func(decision entities.Decision, existing *entities.Ballot) (entities.Ballot, error)

type DecisionFilter struct {
	CompanyID  string
	BuildingID string
	Status     entities.DecisionStatus
	Limit      int
}

type DecisionRepository interface {
	// CreateDecision stores the decision and its events. A non-nil claim is
	// written in the same transaction; an unexpired claim already held on the
	// key fails the create with ErrIdempotencyConflict and stores nothing.
	CreateDecision(ctx context.Context, decision entities.Decision, events []EventEnvelope, claim *IdempotencyRecord) error
	GetDecision(ctx context.Context, companyID string, decisionID string) (entities.Decision, []entities.Ballot, error)
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]entities.Decision, error)
	ListDueDecisions(ctx context.Context, now time.Time, limit int) ([]entities.Decision, error)
	MutateDecision(ctx context.Context, companyID string, decisionID string, mutate DecisionMutation) (entities.Decision, []entities.Ballot, error)
}

type BallotRepository interface {
	ListBallots(ctx context.Context, companyID string, decisionIDs []string) (map[string][]entities.Ballot, error)
	RecordBallot(ctx context.Context, companyID string, decisionID string, voterID string, record BallotRecorder) (entities.Ballot, bool, error)
}

type BuildingProjection struct {
	BuildingID string
	CompanyID  string
	Name       string
}

// BuildingDirectory resolves buildings owned by a company.
type BuildingDirectory interface {
	FindBuilding(ctx context.Context, companyID string, buildingID string) (BuildingProjection, bool, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	DecisionID  string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type DecisionNotification struct {
	EventType           string
	DecisionID          string
	CompanyID           string
	BuildingID          string
	Title               string
	Status              string
	ClosingAt           time.Time
	WinningOption       *string
	TotalBallotsAtClose *int
}

// DecisionNotifier delivers decision notifications to humans.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, notification DecisionNotification) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// DecisionEventData is the data payload of decision.* events.
type DecisionEventData struct {
	DecisionID          string    `json:"decision_id"`
	CompanyID           string    `json:"company_id"`
	BuildingID          string    `json:"building_id"`
	Title               string    `json:"title"`
	Status              string    `json:"status"`
	ClosingAt           time.Time `json:"closing_at"`
	ActorID             string    `json:"actor_id,omitempty"`
	WinningOption       *string   `json:"winning_option,omitempty"`
	TotalBallotsAtClose *int      `json:"total_ballots_at_close,omitempty"`
}

const (
	EventDecisionCreated   = "decision.created"
	EventDecisionClosed    = "decision.closed"
	EventDecisionCancelled = "decision.cancelled"
)
