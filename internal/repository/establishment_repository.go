package repository

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hospitality-auth/internal/domain"
)

// EstablishmentRepository persists hotel and restaurant tenants.
type EstablishmentRepository interface {
	Create(ctx context.Context, est *domain.Establishment) error
	GetByID(ctx context.Context, id string) (*domain.Establishment, error)
	UpdateStatus(ctx context.Context, id string, status domain.EstablishmentStatus) error
}

type establishmentRepository struct {
	pool   *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

// NewEstablishmentRepository returns a Postgres-backed implementation.
func NewEstablishmentRepository(pool *pgxpool.Pool) EstablishmentRepository {
	return &establishmentRepository{pool: pool, getter: trmpgx.DefaultCtxGetter}
}

func (r *establishmentRepository) db(ctx context.Context) trmpgx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.pool)
}

func (r *establishmentRepository) Create(ctx context.Context, est *domain.Establishment) error {
	const query = `
        INSERT INTO establishments (name, type, address, phone, tin_number, status, subscription_tier)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.db(ctx).QueryRow(ctx, query,
		est.Name,
		est.Type,
		est.Address,
		est.Phone,
		est.TINNumber,
		est.Status,
		est.SubscriptionTier,
	).Scan(&est.ID, &est.CreatedAt, &est.UpdatedAt)
}

func (r *establishmentRepository) GetByID(ctx context.Context, id string) (*domain.Establishment, error) {
	const query = `
        SELECT id, name, type, address, phone, tin_number, status, subscription_tier, created_at, updated_at
        FROM establishments WHERE id=$1`

	var est domain.Establishment
	if err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&est.ID,
		&est.Name,
		&est.Type,
		&est.Address,
		&est.Phone,
		&est.TINNumber,
		&est.Status,
		&est.SubscriptionTier,
		&est.CreatedAt,
		&est.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &est, nil
}

func (r *establishmentRepository) UpdateStatus(ctx context.Context, id string, status domain.EstablishmentStatus) error {
	const query = `
        UPDATE establishments SET status=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.db(ctx).Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
