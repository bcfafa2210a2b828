package postgres

import (
	"context"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type Querier interface {
	CreateDriver(ctx context.Context, arg CreateDriverParams) (domain.Driver, error)
	GetDriverByEmail(ctx context.Context, email string) (DriverAuthRow, error)
	SetDriverStatus(ctx context.Context, id uuid.UUID, status domain.DriverStatus) error
	CreatePackage(ctx context.Context, arg CreatePackageParams) (domain.Package, error)
	GetPackage(ctx context.Context, id uuid.UUID) (domain.Package, error)
	ListPackagesByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Package, error)
	AssignPackageToDriver(ctx context.Context, packageID, driverID uuid.UUID, sequenceNum int) error
	MarkPackageDelivered(ctx context.Context, packageID, driverID uuid.UUID) (int64, error)
}

var _ Querier = (*Queries)(nil)

type CreateDriverParams struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

const createDriver = `
INSERT INTO drivers (id, name, email, phone, password_hash, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, email, phone, status, created_at, updated_at
`

func (q *Queries) CreateDriver(ctx context.Context, arg CreateDriverParams) (domain.Driver, error) {
	row := q.db.QueryRow(ctx, createDriver,
		uuid.New(), arg.Name, arg.Email, arg.Phone, arg.PasswordHash, domain.DriverStatusOffline)
	var d domain.Driver
	var id uuid.UUID
	err := row.Scan(&id, &d.Name, &d.Email, &d.Phone, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	d.ID = id.String()
	return d, err
}

type DriverAuthRow struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

const getDriverByEmail = `
SELECT id, email, password_hash FROM drivers WHERE email = $1
`

func (q *Queries) GetDriverByEmail(ctx context.Context, email string) (DriverAuthRow, error) {
	row := q.db.QueryRow(ctx, getDriverByEmail, email)
	var r DriverAuthRow
	err := row.Scan(&r.ID, &r.Email, &r.PasswordHash)
	return r, err
}

const setDriverStatus = `
UPDATE drivers SET status = $2, updated_at = now() WHERE id = $1
`

func (q *Queries) SetDriverStatus(ctx context.Context, id uuid.UUID, status domain.DriverStatus) error {
	_, err := q.db.Exec(ctx, setDriverStatus, id, status)
	return err
}

type CreatePackageParams struct {
	DriverID      *uuid.UUID
	RecipientName string
	Address       string
	Latitude      float64
	Longitude     float64
	SequenceNum   int
}

const createPackage = `
INSERT INTO packages (id, driver_id, recipient_name, address, latitude, longitude, status, sequence_num)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, driver_id, recipient_name, address, latitude, longitude, status, sequence_num, created_at, updated_at
`

func (q *Queries) CreatePackage(ctx context.Context, arg CreatePackageParams) (domain.Package, error) {
	status := domain.PackageStatusPending
	var driverID pgtype.UUID
	if arg.DriverID != nil {
		driverID = pgtype.UUID{Bytes: *arg.DriverID, Valid: true}
		status = domain.PackageStatusAssigned
	}
	row := q.db.QueryRow(ctx, createPackage,
		uuid.New(), driverID, arg.RecipientName, arg.Address, arg.Latitude, arg.Longitude, status, arg.SequenceNum)
	return scanPackage(row)
}

const getPackage = `
SELECT id, driver_id, recipient_name, address, latitude, longitude, status, sequence_num, created_at, updated_at
FROM packages WHERE id = $1
`

func (q *Queries) GetPackage(ctx context.Context, id uuid.UUID) (domain.Package, error) {
	return scanPackage(q.db.QueryRow(ctx, getPackage, id))
}

const listPackagesByDriver = `
SELECT id, driver_id, recipient_name, address, latitude, longitude, status, sequence_num, created_at, updated_at
FROM packages
WHERE driver_id = $1 AND status IN ('ASSIGNED', 'IN_TRANSIT')
ORDER BY sequence_num, created_at
`

func (q *Queries) ListPackagesByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Package, error) {
	rows, err := q.db.Query(ctx, listPackagesByDriver, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []domain.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

const assignPackageToDriver = `
UPDATE packages SET driver_id = $2, status = 'ASSIGNED', sequence_num = $3, updated_at = now()
WHERE id = $1 AND status = 'PENDING'
`

func (q *Queries) AssignPackageToDriver(ctx context.Context, packageID, driverID uuid.UUID, sequenceNum int) error {
	tag, err := q.db.Exec(ctx, assignPackageToDriver, packageID, pgtype.UUID{Bytes: driverID, Valid: true}, sequenceNum)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

const markPackageDelivered = `
UPDATE packages SET status = 'DELIVERED', updated_at = now()
WHERE id = $1 AND driver_id = $2 AND status IN ('ASSIGNED', 'IN_TRANSIT')
`

func (q *Queries) MarkPackageDelivered(ctx context.Context, packageID, driverID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, markPackageDelivered, packageID, pgtype.UUID{Bytes: driverID, Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPackage(row pgx.Row) (domain.Package, error) {
	var p domain.Package
	var driverID pgtype.UUID
	err := row.Scan(&p.ID, &driverID, &p.RecipientName, &p.Address, &p.Latitude, &p.Longitude,
		&p.Status, &p.SequenceNum, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Package{}, err
	}
	if driverID.Valid {
		id := uuid.UUID(driverID.Bytes)
		p.DriverID = &id
	}
	return p, nil
}
