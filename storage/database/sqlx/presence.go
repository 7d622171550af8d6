package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core/presence"
)

// pqUniqueViolation is the postgres error code raised when an insert hits
// the (student_id, call_date) unique index.
const pqUniqueViolation = "23505"

type presenceRepository struct {
	db *sqlx.DB
}

var _ presence.Repository = (*presenceRepository)(nil) // interface compliance check

func NewPresenceRepository(db *sqlx.DB) *presenceRepository {
	return &presenceRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to presence.ErrNotFound
func (repo presenceRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return presence.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo presenceRepository) CreatePresence(ctx context.Context, prs presence.Presence) (presence.Presence, error) {
	q := `
		INSERT INTO presence (id, student_id, bus_id, call_date, weekday,
		                      intends_outbound, intends_return, outbound_confirmed, return_confirmed,
		                      created_at, updated_at)
		VALUES (:id, :student_id, :bus_id, :call_date, :weekday,
		        :intends_outbound, :intends_return, :outbound_confirmed, :return_confirmed,
		        :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, prs); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			// a concurrent registration won the race
			return presence.Presence{}, &presence.DuplicateRegistrationError{Weekday: prs.Weekday}
		}
		return presence.Presence{}, errors.Wrap(err, "inserting presence")
	}
	return prs, nil
}

func (repo presenceRepository) GetPresence(ctx context.Context, studentID, callDate string) (presence.Presence, error) {
	var prs presence.Presence
	q := `SELECT * FROM presence WHERE student_id = $1 AND call_date = $2`
	if err := repo.db.GetContext(ctx, &prs, q, studentID, callDate); err != nil {
		return presence.Presence{}, repo.trapNoRowsErr(err, "getting presence")
	}
	return prs, nil
}

func (repo presenceRepository) GetBusPresence(ctx context.Context, busID, studentID, callDate string) (presence.Presence, error) {
	var prs presence.Presence
	q := `SELECT * FROM presence WHERE bus_id = $1 AND student_id = $2 AND call_date = $3`
	if err := repo.db.GetContext(ctx, &prs, q, busID, studentID, callDate); err != nil {
		return presence.Presence{}, repo.trapNoRowsErr(err, "getting bus presence")
	}
	return prs, nil
}

func (repo presenceRepository) QueryPresencesByStudent(ctx context.Context, studentID, busID string) ([]presence.Presence, error) {
	var prss []presence.Presence
	q := `SELECT * FROM presence WHERE student_id = $1 ORDER BY call_date DESC`
	args := []interface{}{studentID}
	if busID != "" {
		q = `SELECT * FROM presence WHERE student_id = $1 AND bus_id = $2 ORDER BY call_date DESC`
		args = append(args, busID)
	}
	if err := repo.db.SelectContext(ctx, &prss, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying presences by student")
	}
	return prss, nil
}

func (repo presenceRepository) QueryPresencesByBus(ctx context.Context, busID string) ([]presence.Presence, error) {
	var prss []presence.Presence
	q := `SELECT * FROM presence WHERE bus_id = $1 ORDER BY call_date DESC`
	if err := repo.db.SelectContext(ctx, &prss, q, busID); err != nil {
		return nil, errors.Wrap(err, "querying presences by bus")
	}
	return prss, nil
}

func (repo presenceRepository) QueryPresencesByDate(ctx context.Context, callDate string) ([]presence.Presence, error) {
	var prss []presence.Presence
	q := `SELECT * FROM presence WHERE call_date = $1`
	if err := repo.db.SelectContext(ctx, &prss, q, callDate); err != nil {
		return nil, errors.Wrap(err, "querying presences by date")
	}
	return prss, nil
}

func (repo presenceRepository) UpdateConfirmation(
	ctx context.Context,
	id, busID string,
	intendsOutbound, intendsReturn, outboundConfirmed, returnConfirmed bool,
) (presence.Presence, error) {
	q := `
		UPDATE presence SET
			intends_outbound   = $3,
			intends_return     = $4,
			outbound_confirmed = $5,
			return_confirmed   = $6,
			updated_at         = now()
		WHERE id = $1 AND bus_id = $2
		RETURNING *`
	var updated presence.Presence
	err := repo.db.QueryRowxContext(
		ctx, q,
		id, busID, intendsOutbound, intendsReturn, outboundConfirmed, returnConfirmed,
	).StructScan(&updated)
	if err != nil {
		return presence.Presence{}, repo.trapNoRowsErr(err, "updating confirmation")
	}
	return updated, nil
}

func (repo presenceRepository) SetConfirmation(ctx context.Context, id string, outboundConfirmed, returnConfirmed bool) (presence.Presence, error) {
	q := `
		UPDATE presence SET
			outbound_confirmed = $2,
			return_confirmed   = $3,
			updated_at         = now()
		WHERE id = $1
		RETURNING *`
	var updated presence.Presence
	err := repo.db.QueryRowxContext(ctx, q, id, outboundConfirmed, returnConfirmed).StructScan(&updated)
	if err != nil {
		return presence.Presence{}, repo.trapNoRowsErr(err, "setting confirmation")
	}
	return updated, nil
}

func (repo presenceRepository) DeletePresencesByStudent(ctx context.Context, studentID string) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM presence WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting presences")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted presences")
	}
	return n, nil
}
