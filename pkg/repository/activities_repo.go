package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// ActivitiesRepository handles activity persistence. Activities are
// append-only: there are no update or delete methods.
type ActivitiesRepository struct {
	db *sql.DB
}

// NewActivitiesRepository creates a new activities repository.
func NewActivitiesRepository(db *sql.DB) *ActivitiesRepository {
	return &ActivitiesRepository{db: db}
}

// Create creates a new activity.
func (r *ActivitiesRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.CreateTx(ctx, r.db, activity)
}

// CreateTx creates a new activity within a transaction.
func (r *ActivitiesRepository) CreateTx(ctx context.Context, q Querier, activity *domain.Activity) error {
	query := `
		INSERT INTO activities (id, lead_id, type, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.ExecContext(ctx, query,
		activity.ID, activity.LeadID, activity.Type, activity.Text, activity.CreatedAt,
	)
	return err
}

// ListByLead retrieves all activities for a lead, newest first.
func (r *ActivitiesRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.Activity, error) {
	query := `
		SELECT id, lead_id, type, text, created_at
		FROM activities
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Type, &a.Text, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// likeEscaper neutralizes LIKE wildcards in user-supplied fragments so they
// match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLikePattern escapes \, % and _ for use inside a LIKE pattern.
func EscapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

// ExistsByTextMarker reports whether any activity contains the given marker
// in its text. Used for inbound message deduplication. The marker embeds an
// external message ID, so wildcards in it must match literally.
func (r *ActivitiesRepository) ExistsByTextMarker(ctx context.Context, marker string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM activities WHERE text LIKE '%' || $1 || '%')`,
		EscapeLikePattern(marker),
	).Scan(&exists)
	return exists, err
}
