package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// LeadsRepository handles lead persistence.
type LeadsRepository struct {
	db         *sql.DB
	activities *ActivitiesRepository
}

// NewLeadsRepository creates a new leads repository.
func NewLeadsRepository(db *sql.DB) *LeadsRepository {
	return &LeadsRepository{db: db, activities: NewActivitiesRepository(db)}
}

// CreateWithActivity creates a lead and an accompanying activity as one
// transaction. Used by ingestion so a crash leaves no half-imported lead.
func (r *LeadsRepository) CreateWithActivity(ctx context.Context, lead *domain.Lead, activity *domain.Activity) error {
	if activity == nil {
		return r.Create(ctx, lead)
	}
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.CreateTx(ctx, tx, lead); err != nil {
			return err
		}
		return r.activities.CreateTx(ctx, tx, activity)
	})
}

// UpdateWithActivity updates a lead and appends an activity as one
// transaction. A nil activity degrades to a plain update.
func (r *LeadsRepository) UpdateWithActivity(ctx context.Context, lead *domain.Lead, activity *domain.Activity) error {
	if activity == nil {
		return r.Update(ctx, lead)
	}
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.UpdateTx(ctx, tx, lead); err != nil {
			return err
		}
		return r.activities.CreateTx(ctx, tx, activity)
	})
}

// Create creates a new lead.
func (r *LeadsRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.CreateTx(ctx, r.db, lead)
}

// CreateTx creates a new lead within a transaction.
func (r *LeadsRepository) CreateTx(ctx context.Context, q Querier, lead *domain.Lead) error {
	query := `
		INSERT INTO leads (id, company_id, name, phone, email, source, stage, vehicle_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		lead.ID, lead.CompanyID, lead.Name, lead.Phone, lead.Email,
		lead.Source, lead.Stage, lead.VehicleID, lead.CreatedAt,
	)
	return err
}

// GetByID retrieves a lead by ID.
func (r *LeadsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	query := `
		SELECT id, company_id, name, phone, email, source, stage, vehicle_id, created_at
		FROM leads
		WHERE id = $1
	`
	var l domain.Lead
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.CompanyID, &l.Name, &l.Phone, &l.Email,
		&l.Source, &l.Stage, &l.VehicleID, &l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetStage retrieves only the currently persisted stage of a lead.
// Used by the stage-change audit trail to diff against the incoming value.
func (r *LeadsRepository) GetStage(ctx context.Context, id uuid.UUID) (domain.LeadStage, error) {
	var stage domain.LeadStage
	err := r.db.QueryRowContext(ctx,
		`SELECT stage FROM leads WHERE id = $1`, id,
	).Scan(&stage)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrLeadNotFound
	}
	if err != nil {
		return "", err
	}
	return stage, nil
}

// Update updates a lead.
func (r *LeadsRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.UpdateTx(ctx, r.db, lead)
}

// UpdateTx updates a lead within a transaction.
func (r *LeadsRepository) UpdateTx(ctx context.Context, q Querier, lead *domain.Lead) error {
	query := `
		UPDATE leads
		SET name = $2, phone = $3, email = $4, source = $5, stage = $6, vehicle_id = $7
		WHERE id = $1
	`
	result, err := q.ExecContext(ctx, query,
		lead.ID, lead.Name, lead.Phone, lead.Email,
		lead.Source, lead.Stage, lead.VehicleID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

// ListByCompany retrieves all leads owned by a company, newest first.
func (r *LeadsRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Lead, error) {
	query := `
		SELECT id, company_id, name, phone, email, source, stage, vehicle_id, created_at
		FROM leads
		WHERE company_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(
			&l.ID, &l.CompanyID, &l.Name, &l.Phone, &l.Email,
			&l.Source, &l.Stage, &l.VehicleID, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, &l)
	}
	return leads, rows.Err()
}
