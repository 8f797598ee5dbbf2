package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"propdesk/contexts/community-governance/decision-service/domain/entities"
	domainerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the tables owned by the decision service. The buildings
// projection belongs to the building directory and is never migrated here.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&decisionModel{},
		&ballotModel{},
		&idempotencyModel{},
		&outboxModel{},
		&eventDedupModel{},
	); err != nil {
		return r.logError("decision_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateDecision(
	ctx context.Context,
	decision entities.Decision,
	events []ports.EventEnvelope,
	claim *ports.IdempotencyRecord,
) error {
	row := decisionModelFromEntity(decision)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if claim != nil {
			if err := claimIdempotencyKey(tx, *claim, decision.CreatedAt); err != nil {
				return err
			}
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, event := range events {
			if err := appendOutbox(tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.classify("decision_repo_create_failed", err,
			"decision_id", row.ID,
			"company_id", row.CompanyID,
		)
	}
	return nil
}

func (r *Repository) GetDecision(
	ctx context.Context,
	companyID string,
	decisionID string,
) (entities.Decision, []entities.Ballot, error) {
	var (
		decision entities.Decision
		ballots  []entities.Ballot
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findDecision(tx, companyID, decisionID, false)
		if err != nil {
			return err
		}
		byDecision, err := listBallots(tx, row.CompanyID, []string{row.ID})
		if err != nil {
			return err
		}
		decision = row.toEntity()
		ballots = byDecision[row.ID]
		return nil
	})
	if err != nil {
		return entities.Decision{}, nil, r.classify("decision_repo_get_failed", err,
			"decision_id", strings.TrimSpace(decisionID),
			"company_id", strings.TrimSpace(companyID),
		)
	}
	return decision, ballots, nil
}

func (r *Repository) ListDecisions(ctx context.Context, filter ports.DecisionFilter) ([]entities.Decision, error) {
	tx := r.db.WithContext(ctx).Model(&decisionModel{}).
		Where("company_id = ?", strings.TrimSpace(filter.CompanyID))
	if strings.TrimSpace(filter.BuildingID) != "" {
		tx = tx.Where("building_id = ?", strings.TrimSpace(filter.BuildingID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var rows []decisionModel
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_failed", err,
			"company_id", strings.TrimSpace(filter.CompanyID),
		)
	}
	items := make([]entities.Decision, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListDueDecisions(ctx context.Context, now time.Time, limit int) ([]entities.Decision, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []decisionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.DecisionStatusOpen)).
		Where("closing_at <= ?", now.UTC()).
		Order("closing_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_due_failed", err, "limit", limit)
	}
	items := make([]entities.Decision, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// MutateDecision runs mutate against the decision row locked FOR UPDATE and
// writes the result and its events in the same transaction.
func (r *Repository) MutateDecision(
	ctx context.Context,
	companyID string,
	decisionID string,
	mutate ports.DecisionMutation,
) (entities.Decision, []entities.Ballot, error) {
	var (
		updated entities.Decision
		ballots []entities.Ballot
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findDecision(tx, companyID, decisionID, true)
		if err != nil {
			return err
		}
		byDecision, err := listBallots(tx, row.CompanyID, []string{row.ID})
		if err != nil {
			return err
		}
		ballots = byDecision[row.ID]

		next, events, err := mutate(row.toEntity(), ballots)
		if err != nil {
			return err
		}
		next.DecisionID = row.ID
		next.CompanyID = row.CompanyID
		nextRow := decisionModelFromEntity(next)
		if err := tx.Model(&decisionModel{}).
			Where("id = ? AND company_id = ?", row.ID, row.CompanyID).
			Updates(nextRow.changes()).Error; err != nil {
			return err
		}
		for _, event := range events {
			if err := appendOutbox(tx, event); err != nil {
				return err
			}
		}
		updated = nextRow.toEntity()
		return nil
	})
	if err != nil {
		return entities.Decision{}, nil, r.classify("decision_repo_mutate_failed", err,
			"decision_id", strings.TrimSpace(decisionID),
			"company_id", strings.TrimSpace(companyID),
		)
	}
	return updated, ballots, nil
}

func (r *Repository) ListBallots(
	ctx context.Context,
	companyID string,
	decisionIDs []string,
) (map[string][]entities.Ballot, error) {
	items, err := listBallots(r.db.WithContext(ctx), companyID, decisionIDs)
	if err != nil {
		return nil, r.logError("decision_repo_list_ballots_failed", err,
			"company_id", strings.TrimSpace(companyID),
			"decision_count", len(decisionIDs),
		)
	}
	return items, nil
}

// RecordBallot stores the voter's ballot while holding the decision row
// lock, so a ballot never interleaves with a concurrent close.
func (r *Repository) RecordBallot(
	ctx context.Context,
	companyID string,
	decisionID string,
	voterID string,
	record ports.BallotRecorder,
) (entities.Ballot, bool, error) {
	var (
		stored   entities.Ballot
		replaced bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findDecision(tx, companyID, decisionID, true)
		if err != nil {
			return err
		}

		var existingRow ballotModel
		var existing *entities.Ballot
		err = tx.Where("decision_id = ? AND voter_id = ?", row.ID, strings.TrimSpace(voterID)).
			First(&existingRow).Error
		switch {
		case err == nil:
			current := existingRow.toEntity()
			existing = &current
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		ballot, err := record(row.toEntity(), existing)
		if err != nil {
			return err
		}
		next := ballotModel{
			ID:             strings.TrimSpace(ballot.BallotID),
			DecisionID:     row.ID,
			VoterID:        strings.TrimSpace(voterID),
			SelectedOption: ballot.SelectedOption,
			CastAt:         ballot.CastAt.UTC(),
		}
		if existing != nil {
			next.ID = existingRow.ID
			if err := tx.Model(&ballotModel{}).
				Where("id = ?", existingRow.ID).
				Updates(map[string]any{
					"selected_option": next.SelectedOption,
					"cast_at":         next.CastAt,
				}).Error; err != nil {
				return err
			}
			replaced = true
		} else if err := tx.Create(&next).Error; err != nil {
			return err
		}
		stored = next.toEntity()
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return entities.Ballot{}, false, domainerrors.ErrConflict
		}
		return entities.Ballot{}, false, r.classify("decision_repo_record_ballot_failed", err,
			"decision_id", strings.TrimSpace(decisionID),
			"company_id", strings.TrimSpace(companyID),
		)
	}
	return stored, replaced, nil
}

func (r *Repository) FindBuilding(
	ctx context.Context,
	companyID string,
	buildingID string,
) (ports.BuildingProjection, bool, error) {
	var row buildingProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", strings.TrimSpace(buildingID), strings.TrimSpace(companyID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BuildingProjection{}, false, nil
		}
		if isUndefinedTable(err) {
			r.logger.Warn("buildings projection table is missing",
				"event", "decision_repo_buildings_table_missing",
				"module", "community-governance/decision-service",
				"layer", "adapter",
			)
		}
		return ports.BuildingProjection{}, false, r.logError("decision_repo_find_building_failed", err,
			"building_id", strings.TrimSpace(buildingID),
			"company_id", strings.TrimSpace(companyID),
		)
	}
	return ports.BuildingProjection{
		BuildingID: row.ID,
		CompanyID:  row.CompanyID,
		Name:       row.Name,
	}, true, nil
}

func findDecision(tx *gorm.DB, companyID string, decisionID string, lock bool) (decisionModel, error) {
	query := tx.Where("id = ? AND company_id = ?", strings.TrimSpace(decisionID), strings.TrimSpace(companyID))
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row decisionModel
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decisionModel{}, domainerrors.ErrDecisionNotFound
		}
		return decisionModel{}, err
	}
	return row, nil
}

func listBallots(tx *gorm.DB, companyID string, decisionIDs []string) (map[string][]entities.Ballot, error) {
	out := make(map[string][]entities.Ballot, len(decisionIDs))
	if len(decisionIDs) == 0 {
		return out, nil
	}
	var rows []ballotModel
	if err := tx.Table("community_decision_ballots AS b").
		Select("b.id, b.decision_id, b.voter_id, b.selected_option, b.cast_at").
		Joins("JOIN community_decisions AS d ON d.id = b.decision_id").
		Where("d.company_id = ?", strings.TrimSpace(companyID)).
		Where("b.decision_id IN ?", decisionIDs).
		Order("b.cast_at ASC").
		Order("b.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	grouped := make(map[string][]ballotModel, len(decisionIDs))
	for _, row := range rows {
		grouped[row.DecisionID] = append(grouped[row.DecisionID], row)
	}
	for decisionID, items := range grouped {
		out[decisionID] = toBallotEntities(items)
	}
	return out, nil
}

// classify passes domain errors through and logs everything else as a
// persistence failure.
func (r *Repository) classify(event string, err error, attrs ...any) error {
	switch {
	case errors.Is(err, domainerrors.ErrValidation),
		errors.Is(err, domainerrors.ErrNotFound),
		errors.Is(err, domainerrors.ErrConflict),
		errors.Is(err, domainerrors.ErrIdempotencyConflict),
		errors.Is(err, domainerrors.ErrPersistence):
		return err
	}
	return r.logError(event, err, attrs...)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-governance/decision-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("decision repository operation failed", fields...)
	return fmt.Errorf("%w: %w", domainerrors.ErrPersistence, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.DecisionRepository = (*Repository)(nil)
var _ ports.BallotRepository = (*Repository)(nil)
var _ ports.BuildingDirectory = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
