package commands

import (
	"context"
	"encoding/json"
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	"propdesk/contexts/community-governance/decision-service/ports"
)

func newDecisionEnvelope(
	eventID string,
	eventType string,
	decision entities.Decision,
	actorID string,
	occurredAt time.Time,
) (ports.EventEnvelope, error) {
	// Partitioned by decision so consumers see a decision's events in order.
	payload, err := json.Marshal(ports.DecisionEventData{
		DecisionID:          decision.DecisionID,
		CompanyID:           decision.CompanyID,
		BuildingID:          decision.BuildingID,
		Title:               decision.Title,
		Status:              string(decision.Status),
		ClosingAt:           decision.ClosingAt.UTC(),
		ActorID:             actorID,
		WinningOption:       decision.WinningOption,
		TotalBallotsAtClose: decision.TotalBallotsAtClose,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "decision-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "decision_id",
		PartitionKey:     decision.DecisionID,
		Data:             payload,
	}, nil
}

func (uc DecisionUseCase) buildEvent(
	ctx context.Context,
	eventType string,
	decision entities.Decision,
	actorID string,
	occurredAt time.Time,
) (ports.EventEnvelope, error) {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return newDecisionEnvelope(eventID, eventType, decision, actorID, occurredAt)
}
