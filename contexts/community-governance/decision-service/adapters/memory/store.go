package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store keeps decisions in process memory. Every mutation holds the store
// lock for its whole closure, which gives the same atomicity as a row lock.
type Store struct {
	mu sync.RWMutex

	decisions   map[string]entities.Decision
	ballots     map[string][]entities.Ballot
	buildings   map[string]ports.BuildingProjection
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	outboxSeq   []string
	eventDedup  map[string]dedupRecord
}

func NewStore(seed []entities.Decision) *Store {
	decisions := make(map[string]entities.Decision, len(seed))
	for _, decision := range seed {
		decisions[decision.DecisionID] = cloneDecision(decision)
	}
	return &Store{
		decisions:   decisions,
		ballots:     make(map[string][]entities.Ballot),
		buildings:   make(map[string]ports.BuildingProjection),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
		eventDedup:  make(map[string]dedupRecord),
	}
}

func (s *Store) SetBuilding(building ports.BuildingProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildings[strings.TrimSpace(building.BuildingID)] = ports.BuildingProjection{
		BuildingID: strings.TrimSpace(building.BuildingID),
		CompanyID:  strings.TrimSpace(building.CompanyID),
		Name:       strings.TrimSpace(building.Name),
	}
}

// InsertBallot stores a ballot without any lifecycle check.
func (s *Store) InsertBallot(ballot entities.Ballot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballots[ballot.DecisionID] = append(s.ballots[ballot.DecisionID], ballot)
}

func (s *Store) FindBuilding(_ context.Context, companyID string, buildingID string) (ports.BuildingProjection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	building, ok := s.buildings[strings.TrimSpace(buildingID)]
	if !ok || building.CompanyID != strings.TrimSpace(companyID) {
		return ports.BuildingProjection{}, false, nil
	}
	return building, true, nil
}

func (s *Store) CreateDecision(
	_ context.Context,
	decision entities.Decision,
	events []ports.EventEnvelope,
	claim *ports.IdempotencyRecord,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[decision.DecisionID]; exists {
		return domainerrors.ErrConflict
	}
	var claimKey string
	if claim != nil {
		claimKey = strings.TrimSpace(claim.Key)
		if existing, held := s.idempotency[claimKey]; held && existing.ExpiresAt.After(decision.CreatedAt.UTC()) {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	for _, event := range events {
		if err := s.appendOutboxLocked(event); err != nil {
			return err
		}
	}
	s.decisions[decision.DecisionID] = cloneDecision(decision)
	if claim != nil {
		s.idempotency[claimKey] = ports.IdempotencyRecord{
			Key:         claimKey,
			RequestHash: strings.TrimSpace(claim.RequestHash),
			DecisionID:  strings.TrimSpace(claim.DecisionID),
			ExpiresAt:   claim.ExpiresAt.UTC(),
		}
	}
	return nil
}

func (s *Store) GetDecision(_ context.Context, companyID string, decisionID string) (entities.Decision, []entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decision, ok := s.lookupLocked(companyID, decisionID)
	if !ok {
		return entities.Decision{}, nil, domainerrors.ErrDecisionNotFound
	}
	return cloneDecision(decision), cloneBallots(s.ballots[decision.DecisionID]), nil
}

func (s *Store) ListDecisions(_ context.Context, filter ports.DecisionFilter) ([]entities.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Decision, 0)
	for _, decision := range s.decisions {
		if decision.CompanyID != strings.TrimSpace(filter.CompanyID) {
			continue
		}
		if filter.BuildingID != "" && decision.BuildingID != filter.BuildingID {
			continue
		}
		if filter.Status != "" && decision.Status != filter.Status {
			continue
		}
		items = append(items, cloneDecision(decision))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].DecisionID > items[j].DecisionID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) ListDueDecisions(_ context.Context, now time.Time, limit int) ([]entities.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Decision, 0)
	for _, decision := range s.decisions {
		if decision.Status != entities.DecisionStatusOpen || decision.ClosingAt.After(now) {
			continue
		}
		items = append(items, cloneDecision(decision))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ClosingAt.Before(items[j].ClosingAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MutateDecision(
	_ context.Context,
	companyID string,
	decisionID string,
	mutate ports.DecisionMutation,
) (entities.Decision, []entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.lookupLocked(companyID, decisionID)
	if !ok {
		return entities.Decision{}, nil, domainerrors.ErrDecisionNotFound
	}
	ballots := cloneBallots(s.ballots[current.DecisionID])
	next, events, err := mutate(cloneDecision(current), ballots)
	if err != nil {
		return entities.Decision{}, nil, err
	}
	next.DecisionID = current.DecisionID
	next.CompanyID = current.CompanyID
	for _, event := range events {
		if err := s.appendOutboxLocked(event); err != nil {
			return entities.Decision{}, nil, err
		}
	}
	s.decisions[current.DecisionID] = cloneDecision(next)
	return next, ballots, nil
}

func (s *Store) ListBallots(_ context.Context, companyID string, decisionIDs []string) (map[string][]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]entities.Ballot, len(decisionIDs))
	for _, decisionID := range decisionIDs {
		if _, ok := s.lookupLocked(companyID, decisionID); !ok {
			continue
		}
		out[decisionID] = cloneBallots(s.ballots[decisionID])
	}
	return out, nil
}

func (s *Store) RecordBallot(
	_ context.Context,
	companyID string,
	decisionID string,
	voterID string,
	record ports.BallotRecorder,
) (entities.Ballot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.lookupLocked(companyID, decisionID)
	if !ok {
		return entities.Ballot{}, false, domainerrors.ErrDecisionNotFound
	}

	items := s.ballots[decision.DecisionID]
	index := -1
	for i, ballot := range items {
		if ballot.VoterID == voterID {
			index = i
			break
		}
	}
	var existing *entities.Ballot
	if index >= 0 {
		copied := items[index]
		existing = &copied
	}

	ballot, err := record(cloneDecision(decision), existing)
	if err != nil {
		return entities.Ballot{}, false, err
	}
	ballot.DecisionID = decision.DecisionID
	ballot.VoterID = voterID
	if index >= 0 {
		items[index] = ballot
	} else {
		items = append(items, ballot)
	}
	s.ballots[decision.DecisionID] = items
	return ballot, index >= 0, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	s.outboxSeq = append(s.outboxSeq, outboxID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outboxSeq))
	for _, outboxID := range s.outboxSeq {
		row := s.outbox[outboxID]
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if existing, ok := s.eventDedup[key]; ok {
		if existing.expiresAt.IsZero() || time.Now().UTC().Before(existing.expiresAt) {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
		delete(s.eventDedup, key)
	}
	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) lookupLocked(companyID string, decisionID string) (entities.Decision, bool) {
	decision, ok := s.decisions[strings.TrimSpace(decisionID)]
	if !ok || decision.CompanyID != strings.TrimSpace(companyID) {
		return entities.Decision{}, false
	}
	return decision, true
}

func cloneDecision(decision entities.Decision) entities.Decision {
	decision.Options = append([]string(nil), decision.Options...)
	if decision.WinningOption != nil {
		value := *decision.WinningOption
		decision.WinningOption = &value
	}
	if decision.TotalBallotsAtClose != nil {
		value := *decision.TotalBallotsAtClose
		decision.TotalBallotsAtClose = &value
	}
	return decision
}

func cloneBallots(items []entities.Ballot) []entities.Ballot {
	if len(items) == 0 {
		return nil
	}
	return append([]entities.Ballot(nil), items...)
}
