package postgresadapter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/services"
	"propdesk/contexts/community-governance/decision-service/ports"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "decisions.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(db, nil)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.AutoMigrate(&buildingProjectionModel{}); err != nil {
		t.Fatalf("migrate buildings: %v", err)
	}
	if err := db.Create(&buildingProjectionModel{ID: "building-1", CompanyID: "company-1", Name: "Torre Norte"}).Error; err != nil {
		t.Fatalf("seed building: %v", err)
	}
	return repo
}

func sampleDecision(id string, createdAt time.Time) entities.Decision {
	return entities.Decision{
		DecisionID:          id,
		CompanyID:           "company-1",
		BuildingID:          "building-1",
		Title:               "Elevator upgrade",
		Description:         "Replace the main elevator",
		Kind:                entities.DecisionKindImprovement,
		Options:             []string{"Sí", "No"},
		ClosingAt:           createdAt.Add(72 * time.Hour),
		QuorumRequired:      50,
		TotalEligibleVoters: 10,
		Status:              entities.DecisionStatusOpen,
		CreatedBy:           "manager-1",
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}
}

func recordChoice(option string, castAt time.Time) ports.BallotRecorder {
	return func(decision entities.Decision, existing *entities.Ballot) (entities.Ballot, error) {
		ballot := entities.Ballot{BallotID: "ballot-" + option + castAt.Format("150405.000000000"), SelectedOption: option, CastAt: castAt}
		if existing != nil {
			ballot.BallotID = existing.BallotID
		}
		return ballot, nil
	}
}

func TestRepositoryDecisionLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	decision := sampleDecision("dec-1", now)
	event := ports.EventEnvelope{EventID: "evt-1", EventType: ports.EventDecisionCreated, OccurredAt: now, PartitionKey: "dec-1"}
	if err := repo.CreateDecision(ctx, decision, []ports.EventEnvelope{event}, nil); err != nil {
		t.Fatalf("create decision: %v", err)
	}

	stored, ballots, err := repo.GetDecision(ctx, "company-1", "dec-1")
	if err != nil {
		t.Fatalf("get decision: %v", err)
	}
	if len(stored.Options) != 2 || stored.Options[0] != "Sí" || stored.Options[1] != "No" {
		t.Fatalf("unexpected options: %#v", stored.Options)
	}
	if len(ballots) != 0 {
		t.Fatalf("expected no ballots, got %d", len(ballots))
	}
	if _, _, err := repo.GetDecision(ctx, "company-2", "dec-1"); !errors.Is(err, domainerrors.ErrDecisionNotFound) {
		t.Fatalf("expected tenant-scoped not found, got %v", err)
	}

	if _, replaced, err := repo.RecordBallot(ctx, "company-1", "dec-1", "voter-1", recordChoice("No", now.Add(time.Minute))); err != nil || replaced {
		t.Fatalf("first ballot: replaced=%v err=%v", replaced, err)
	}
	if _, replaced, err := repo.RecordBallot(ctx, "company-1", "dec-1", "voter-1", recordChoice("Sí", now.Add(2*time.Minute))); err != nil || !replaced {
		t.Fatalf("recast ballot: replaced=%v err=%v", replaced, err)
	}
	if _, _, err := repo.RecordBallot(ctx, "company-1", "dec-1", "voter-2", recordChoice("Sí", now.Add(3*time.Minute))); err != nil {
		t.Fatalf("second voter ballot: %v", err)
	}
	if _, _, err := repo.RecordBallot(ctx, "company-2", "dec-1", "voter-3", recordChoice("No", now)); !errors.Is(err, domainerrors.ErrDecisionNotFound) {
		t.Fatalf("expected cross-tenant ballot to be rejected, got %v", err)
	}

	closed, closeBallots, err := repo.MutateDecision(ctx, "company-1", "dec-1",
		func(current entities.Decision, ballots []entities.Ballot) (entities.Decision, []ports.EventEnvelope, error) {
			next, err := services.CloseDecision(current, ballots, now.Add(time.Hour))
			return next, []ports.EventEnvelope{{EventID: "evt-2", EventType: ports.EventDecisionClosed, OccurredAt: now.Add(time.Hour)}}, err
		},
	)
	if err != nil {
		t.Fatalf("close decision: %v", err)
	}
	if len(closeBallots) != 2 {
		t.Fatalf("expected 2 ballots at close, got %d", len(closeBallots))
	}
	if closed.WinningOption == nil || *closed.WinningOption != "Sí" {
		t.Fatalf("expected winner Sí, got %v", closed.WinningOption)
	}

	reloaded, ballots, err := repo.GetDecision(ctx, "company-1", "dec-1")
	if err != nil {
		t.Fatalf("reload decision: %v", err)
	}
	if reloaded.Status != entities.DecisionStatusClosed || reloaded.ClosedAt == nil {
		t.Fatalf("expected persisted close, got %+v", reloaded)
	}
	if reloaded.TotalBallotsAtClose == nil || *reloaded.TotalBallotsAtClose != 2 {
		t.Fatalf("expected 2 frozen ballots, got %v", reloaded.TotalBallotsAtClose)
	}
	if reloaded.WinningOption == nil || *reloaded.WinningOption != "Sí" {
		t.Fatalf("expected persisted winner, got %v", reloaded.WinningOption)
	}
	for _, ballot := range ballots {
		if ballot.SelectedOption != "Sí" {
			t.Fatalf("expected recast ballots for Sí, got %+v", ballot)
		}
	}

	pending, err := repo.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt-1" || pending[1].OutboxID != "evt-2" {
		t.Fatalf("unexpected outbox rows: %+v", pending)
	}
	if err := repo.MarkOutboxPublished(ctx, "evt-1", now); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	pending, err = repo.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending row, got %d %v", len(pending), err)
	}
}

func TestRepositoryMutationErrorLeavesRowUntouched(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.CreateDecision(ctx, sampleDecision("dec-1", now), nil, nil); err != nil {
		t.Fatalf("create decision: %v", err)
	}

	_, _, err := repo.MutateDecision(ctx, "company-1", "dec-1",
		func(current entities.Decision, _ []entities.Ballot) (entities.Decision, []ports.EventEnvelope, error) {
			current.Title = "should not persist"
			return current, nil, domainerrors.ErrDecisionTerminal
		},
	)
	if !errors.Is(err, domainerrors.ErrDecisionTerminal) {
		t.Fatalf("expected domain error to pass through, got %v", err)
	}
	if errors.Is(err, domainerrors.ErrPersistence) {
		t.Fatalf("domain error must not be reported as persistence failure")
	}
	stored, _, err := repo.GetDecision(ctx, "company-1", "dec-1")
	if err != nil {
		t.Fatalf("get decision: %v", err)
	}
	if stored.Title != "Elevator upgrade" {
		t.Fatalf("expected title unchanged, got %q", stored.Title)
	}
}

func TestRepositoryListDecisionsFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	older := sampleDecision("dec-old", now)
	newer := sampleDecision("dec-new", now.Add(time.Hour))
	other := sampleDecision("dec-other", now.Add(2*time.Hour))
	other.CompanyID = "company-2"
	for _, decision := range []entities.Decision{older, newer, other} {
		if err := repo.CreateDecision(ctx, decision, nil, nil); err != nil {
			t.Fatalf("create %s: %v", decision.DecisionID, err)
		}
	}

	items, err := repo.ListDecisions(ctx, ports.DecisionFilter{CompanyID: "company-1"})
	if err != nil {
		t.Fatalf("list decisions: %v", err)
	}
	if len(items) != 2 || items[0].DecisionID != "dec-new" || items[1].DecisionID != "dec-old" {
		t.Fatalf("unexpected list order: %+v", items)
	}

	items, err = repo.ListDecisions(ctx, ports.DecisionFilter{CompanyID: "company-1", Status: entities.DecisionStatusClosed})
	if err != nil || len(items) != 0 {
		t.Fatalf("expected no closed decisions, got %d %v", len(items), err)
	}

	grouped, err := repo.ListBallots(ctx, "company-2", []string{"dec-old", "dec-new"})
	if err != nil || len(grouped) != 0 {
		t.Fatalf("expected no ballots visible to other tenant, got %v %v", grouped, err)
	}
}

func TestRepositoryBuildingIdempotencyAndDedup(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	building, found, err := repo.FindBuilding(ctx, "company-1", "building-1")
	if err != nil || !found || building.Name != "Torre Norte" {
		t.Fatalf("expected building, got %+v %v %v", building, found, err)
	}
	if _, found, err := repo.FindBuilding(ctx, "company-2", "building-1"); err != nil || found {
		t.Fatalf("expected building hidden from other company, got %v %v", found, err)
	}

	first := sampleDecision("dec-1", now)
	record := ports.IdempotencyRecord{Key: "company-1:idem-1", RequestHash: "hash-a", DecisionID: "dec-1", ExpiresAt: now.Add(time.Hour)}
	if err := repo.CreateDecision(ctx, first, nil, &record); err != nil {
		t.Fatalf("create with key: %v", err)
	}
	retry := record
	retry.DecisionID = "dec-2"
	if err := repo.CreateDecision(ctx, sampleDecision("dec-2", now), nil, &retry); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
	if _, _, err := repo.GetDecision(ctx, "company-1", "dec-2"); !errors.Is(err, domainerrors.ErrDecisionNotFound) {
		t.Fatalf("expected losing create rolled back, got %v", err)
	}
	got, found, err := repo.Get(ctx, "company-1:idem-1", now)
	if err != nil || !found || got.DecisionID != "dec-1" || got.RequestHash != "hash-a" {
		t.Fatalf("unexpected idempotency record: %+v %v %v", got, found, err)
	}

	processed, err := repo.ReserveEvent(ctx, "evt-1", "payload-a", now.Add(time.Hour))
	if err != nil || processed {
		t.Fatalf("first reservation: processed=%v err=%v", processed, err)
	}
	processed, err = repo.ReserveEvent(ctx, "evt-1", "payload-a", now.Add(time.Hour))
	if err != nil || !processed {
		t.Fatalf("second reservation: processed=%v err=%v", processed, err)
	}
}

func TestRepositoryExpiredIdempotencyKeyIsReclaimed(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	first := ports.IdempotencyRecord{Key: "company-1:idem-1", RequestHash: "hash-a", DecisionID: "dec-1", ExpiresAt: now.Add(time.Hour)}
	if err := repo.CreateDecision(ctx, sampleDecision("dec-1", now), nil, &first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	later := now.Add(2 * time.Hour)
	if _, found, err := repo.Get(ctx, "company-1:idem-1", later); err != nil || found {
		t.Fatalf("expected expired key to be invisible, got found=%v err=%v", found, err)
	}
	second := ports.IdempotencyRecord{Key: "company-1:idem-1", RequestHash: "hash-b", DecisionID: "dec-2", ExpiresAt: later.Add(time.Hour)}
	if err := repo.CreateDecision(ctx, sampleDecision("dec-2", later), nil, &second); err != nil {
		t.Fatalf("create after expiry: %v", err)
	}

	got, found, err := repo.Get(ctx, "company-1:idem-1", later)
	if err != nil || !found {
		t.Fatalf("expected reclaimed key, got found=%v err=%v", found, err)
	}
	if got.DecisionID != "dec-2" || got.RequestHash != "hash-b" {
		t.Fatalf("expected key to point at dec-2, got %+v", got)
	}
	if _, _, err := repo.GetDecision(ctx, "company-1", "dec-2"); err != nil {
		t.Fatalf("expected dec-2 stored, got %v", err)
	}
}
