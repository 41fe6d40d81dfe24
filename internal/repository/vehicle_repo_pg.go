package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGReferenceRepository struct {
	db *pgxpool.Pool
}

func NewReferenceRepository(db *pgxpool.Pool) ReferenceRepository {
	return &PGReferenceRepository{db: db}
}

func (r *PGReferenceRepository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1 AND role='customer')`, id).Scan(&exists)
	return exists, err
}

func (r *PGReferenceRepository) VehicleExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

var _ ReferenceRepository = (*PGReferenceRepository)(nil)
