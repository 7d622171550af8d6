package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core/user"
)

// nullTime maps the zero time to SQL NULL so COALESCE keeps the stored value.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = ? AND id NOT IN (?))`
		var err error
		q, args, err = sqlx.In(q, email, ids)
		if err != nil {
			return errors.Wrap(err, "expanding excluded user IDs")
		}
		q = repo.db.Rebind(q)
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
		INSERT INTO "user" (id, name, email, phone, is_active, is_admin, password_hash, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :is_active, :is_admin, :password_hash, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	q := `SELECT * FROM "user" ORDER BY name`
	if err := repo.db.SelectContext(ctx, &users, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := `SELECT * FROM "user" WHERE `
	var args []interface{}
	switch {
	case filter.ID != "" && filter.Email != "":
		q += `id = $1 AND email = $2`
		args = []interface{}{filter.ID, filter.Email}
	case filter.ID != "":
		q += `id = $1`
		args = []interface{}{filter.ID}
	case filter.Email != "":
		q += `email = $1`
		args = []interface{}{filter.Email}
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, q, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive, isAdmin *bool) (user.User, error) {
	q := `
		UPDATE "user" SET
			name          = COALESCE(NULLIF($2, ''), name),
			email         = COALESCE(NULLIF($3, ''), email),
			phone         = COALESCE(NULLIF($4, ''), phone),
			is_active     = COALESCE($5, is_active),
			is_admin      = COALESCE($6, is_admin),
			password_hash = COALESCE($7, password_hash),
			last_login    = COALESCE($8, last_login),
			updated_at    = COALESCE($9, updated_at)
		WHERE id = $1
		RETURNING *`
	var hash interface{}
	if usr.PasswordHash != nil {
		hash = usr.PasswordHash
	}
	var updated user.User
	err := repo.db.QueryRowxContext(
		ctx, q,
		usr.ID, usr.Name, usr.Email, usr.Phone, isActive, isAdmin, hash, nullTime(usr.LastLogin), nullTime(usr.UpdatedAt),
	).StructScan(&updated)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return updated, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding user IDs")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
