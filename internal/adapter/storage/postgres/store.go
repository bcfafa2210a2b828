package postgres

import (
	"context"
	"fmt"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Querier
	ExecTx(ctx context.Context, fn func(Querier) error) error
	AssignRouteTx(ctx context.Context, arg AssignRouteTxParams) error
}

type SQLStore struct {
	*Queries
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) Store {
	return &SQLStore{
		Queries: New(db),
		db:      db,
	}
}

func (store *SQLStore) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := store.db.Begin(ctx)
	if err != nil {
		return err
	}

	q := New(tx)
	err = fn(q)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

type AssignRouteTxParams struct {
	DriverID   uuid.UUID
	PackageIDs []uuid.UUID
}

// AssignRouteTx hands a batch of pending packages to a driver in delivery
// order and flips the driver to DELIVERING. Either the whole route lands or
// none of it does.
func (store *SQLStore) AssignRouteTx(ctx context.Context, arg AssignRouteTxParams) error {
	return store.ExecTx(ctx, func(q Querier) error {
		for i, packageID := range arg.PackageIDs {
			if err := q.AssignPackageToDriver(ctx, packageID, arg.DriverID, i+1); err != nil {
				return err
			}
		}
		return q.SetDriverStatus(ctx, arg.DriverID, domain.DriverStatusDelivering)
	})
}
