package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core/bus"
)

type busRepository struct {
	db *sqlx.DB
}

var _ bus.Repository = (*busRepository)(nil) // interface compliance check

func NewBusRepository(db *sqlx.DB) *busRepository {
	return &busRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to bus.ErrNotFound
func (repo busRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return bus.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo busRepository) CheckNameUniqueness(ctx context.Context, name string, excludedBuses ...bus.Bus) error {
	q := `SELECT EXISTS (SELECT 1 FROM bus WHERE name = $1)`
	args := []interface{}{name}
	if len(excludedBuses) > 0 {
		ids := make([]string, 0, len(excludedBuses))
		for _, b := range excludedBuses {
			ids = append(ids, b.ID)
		}
		q = `SELECT EXISTS (SELECT 1 FROM bus WHERE name = ? AND id NOT IN (?))`
		var err error
		q, args, err = sqlx.In(q, name, ids)
		if err != nil {
			return errors.Wrap(err, "expanding excluded bus IDs")
		}
		q = repo.db.Rebind(q)
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking bus name uniqueness")
	}
	if exists {
		return bus.ErrNameExists
	}
	return nil
}

func (repo busRepository) CreateBus(ctx context.Context, b bus.Bus) (bus.Bus, error) {
	q := `
		INSERT INTO bus (id, name, description, created_at, updated_at)
		VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, b); err != nil {
		return bus.Bus{}, errors.Wrap(err, "inserting bus")
	}
	return b, nil
}

func (repo busRepository) QueryAllBuses(ctx context.Context) ([]bus.Bus, error) {
	var buses []bus.Bus
	q := `SELECT * FROM bus ORDER BY name`
	if err := repo.db.SelectContext(ctx, &buses, q); err != nil {
		return nil, errors.Wrap(err, "querying buses")
	}
	return buses, nil
}

func (repo busRepository) GetBusByID(ctx context.Context, id string) (bus.Bus, error) {
	var b bus.Bus
	q := `SELECT * FROM bus WHERE id = $1`
	if err := repo.db.GetContext(ctx, &b, q, id); err != nil {
		return bus.Bus{}, repo.trapNoRowsErr(err, "getting bus")
	}
	return b, nil
}

func (repo busRepository) UpdateBus(ctx context.Context, b bus.Bus) (bus.Bus, error) {
	q := `
		UPDATE bus SET
			name        = COALESCE(NULLIF($2, ''), name),
			description = COALESCE(NULLIF($3, ''), description),
			updated_at  = $4
		WHERE id = $1
		RETURNING *`
	var updated bus.Bus
	err := repo.db.QueryRowxContext(ctx, q, b.ID, b.Name, b.Description, b.UpdatedAt).StructScan(&updated)
	if err != nil {
		return bus.Bus{}, repo.trapNoRowsErr(err, "updating bus")
	}
	return updated, nil
}

func (repo busRepository) DeleteBusesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM bus WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding bus IDs")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return errors.Wrap(err, "deleting buses")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return bus.ErrNotFound
	}
	return nil
}
