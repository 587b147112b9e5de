package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// VehiclesRepository handles vehicle persistence.
type VehiclesRepository struct {
	db *sql.DB
}

// NewVehiclesRepository creates a new vehicles repository.
func NewVehiclesRepository(db *sql.DB) *VehiclesRepository {
	return &VehiclesRepository{db: db}
}

// Create creates a new vehicle.
func (r *VehiclesRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, company_id, make, model, year, mileage_km, fuel, transmission, price_eur, status, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		vehicle.ID, vehicle.CompanyID, vehicle.Make, vehicle.Model,
		vehicle.Year, vehicle.MileageKM, vehicle.Fuel, vehicle.Transmission,
		vehicle.PriceEUR, vehicle.Status, vehicle.Title, vehicle.Description,
		vehicle.CreatedAt,
	)
	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehiclesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	query := `
		SELECT id, company_id, make, model, year, mileage_km, fuel, transmission, price_eur, status, title, description, created_at
		FROM vehicles
		WHERE id = $1
	`
	var v domain.Vehicle
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.CompanyID, &v.Make, &v.Model,
		&v.Year, &v.MileageKM, &v.Fuel, &v.Transmission,
		&v.PriceEUR, &v.Status, &v.Title, &v.Description,
		&v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Update updates a vehicle.
func (r *VehiclesRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET make = $2, model = $3, year = $4, mileage_km = $5, fuel = $6,
		    transmission = $7, price_eur = $8, status = $9, title = $10, description = $11
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		vehicle.ID, vehicle.Make, vehicle.Model, vehicle.Year,
		vehicle.MileageKM, vehicle.Fuel, vehicle.Transmission,
		vehicle.PriceEUR, vehicle.Status, vehicle.Title, vehicle.Description,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrVehicleNotFound
	}
	return nil
}

// ListByCompany retrieves all vehicles owned by a company, newest first.
func (r *VehiclesRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, company_id, make, model, year, mileage_km, fuel, transmission, price_eur, status, title, description, created_at
		FROM vehicles
		WHERE company_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(
			&v.ID, &v.CompanyID, &v.Make, &v.Model,
			&v.Year, &v.MileageKM, &v.Fuel, &v.Transmission,
			&v.PriceEUR, &v.Status, &v.Title, &v.Description,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &v)
	}
	return vehicles, rows.Err()
}
