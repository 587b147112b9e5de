package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// MembershipsRepository handles membership persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

// Create creates a new membership.
func (r *MembershipsRepository) Create(ctx context.Context, membership *domain.Membership) error {
	return r.CreateTx(ctx, r.db, membership)
}

// CreateTx creates a new membership within a transaction.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (id, user_id, company_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.ExecContext(ctx, query,
		membership.ID, membership.UserID, membership.CompanyID,
		membership.Role, membership.CreatedAt,
	)
	return err
}

// ListByUserID retrieves all memberships for a user, earliest first.
// Provisioning guarantees at most one row per user; the resolver checks.
func (r *MembershipsRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT id, user_id, company_id, role, created_at
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

// GetOwnerByUserID retrieves the OWNER membership for a user, if any,
// together with the owned company.
func (r *MembershipsRepository) GetOwnerByUserID(ctx context.Context, userID uuid.UUID) (*domain.Membership, *domain.Company, error) {
	query := `
		SELECT m.id, m.user_id, m.company_id, m.role, m.created_at,
		       c.id, c.name, c.slug, c.status, c.created_by, c.approved_by, c.approved_at, c.rejection_reason, c.created_at
		FROM memberships m
		INNER JOIN companies c ON c.id = m.company_id
		WHERE m.user_id = $1 AND m.role = $2
		ORDER BY m.created_at ASC
		LIMIT 1
	`
	var m domain.Membership
	var c domain.Company
	err := r.db.QueryRowContext(ctx, query, userID, domain.RoleOwner).Scan(
		&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.CreatedAt,
		&c.ID, &c.Name, &c.Slug, &c.Status,
		&c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt,
		&c.RejectionReason, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrMembershipNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &m, &c, nil
}
