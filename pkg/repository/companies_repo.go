package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// CompaniesRepository handles company persistence.
type CompaniesRepository struct {
	db *sql.DB
}

// NewCompaniesRepository creates a new companies repository.
func NewCompaniesRepository(db *sql.DB) *CompaniesRepository {
	return &CompaniesRepository{db: db}
}

// Create creates a new company.
func (r *CompaniesRepository) Create(ctx context.Context, company *domain.Company) error {
	return r.CreateTx(ctx, r.db, company)
}

// CreateWithOwner creates a company and its OWNER membership as one
// transaction. Both rows land or neither does.
func (r *CompaniesRepository) CreateWithOwner(ctx context.Context, company *domain.Company, owner *domain.Membership) error {
	memberships := &MembershipsRepository{db: r.db}
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.CreateTx(ctx, tx, company); err != nil {
			return err
		}
		return memberships.CreateTx(ctx, tx, owner)
	})
}

// CreateTx creates a new company within a transaction.
func (r *CompaniesRepository) CreateTx(ctx context.Context, q Querier, company *domain.Company) error {
	query := `
		INSERT INTO companies (id, name, slug, status, created_by, approved_by, approved_at, rejection_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		company.ID, company.Name, company.Slug, company.Status,
		company.CreatedBy, company.ApprovedBy, company.ApprovedAt,
		company.RejectionReason, company.CreatedAt,
	)
	return err
}

// GetByID retrieves a company by ID.
func (r *CompaniesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	query := `
		SELECT id, name, slug, status, created_by, approved_by, approved_at, rejection_reason, created_at
		FROM companies
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a company by slug.
func (r *CompaniesRepository) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	query := `
		SELECT id, name, slug, status, created_by, approved_by, approved_at, rejection_reason, created_at
		FROM companies
		WHERE slug = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

// SlugExists reports whether a company with the given slug exists.
func (r *CompaniesRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM companies WHERE slug = $1)`, slug,
	).Scan(&exists)
	return exists, err
}

// UpdateStatus persists the approval-state fields of a company.
func (r *CompaniesRepository) UpdateStatus(ctx context.Context, company *domain.Company) error {
	query := `
		UPDATE companies
		SET status = $2, approved_by = $3, approved_at = $4, rejection_reason = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		company.ID, company.Status, company.ApprovedBy, company.ApprovedAt, company.RejectionReason,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCompanyNotFound
	}
	return nil
}

// List retrieves all companies ordered by creation time. Staff only.
func (r *CompaniesRepository) List(ctx context.Context) ([]*domain.Company, error) {
	query := `
		SELECT id, name, slug, status, created_by, approved_by, approved_at, rejection_reason, created_at
		FROM companies
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Status,
			&c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt,
			&c.RejectionReason, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

func (r *CompaniesRepository) scanOne(row *sql.Row) (*domain.Company, error) {
	var c domain.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Status,
		&c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt,
		&c.RejectionReason, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
