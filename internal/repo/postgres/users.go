package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/madialex/accounthub/internal/domain/user"
	"github.com/madialex/accounthub/internal/observability"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

const userColumns = `id, name, email, password_hash, profile_picture, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.ProfilePicture,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

// Create inserts a new user. A unique violation on email — whether the
// caller pre-checked or lost a signup race — surfaces as ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, profile_picture, is_admin, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.ProfilePicture, u.IsAdmin, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// Update persists mutated fields and bumps updated_at. Callers decide
// whether password_hash changed; the repo never re-hashes.
func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	var tag pgconn.CommandTag

	err := r.observe("users.update", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`UPDATE users
			 SET name = $2, email = $3, password_hash = $4, profile_picture = $5, is_admin = $6, updated_at = NOW()
			 WHERE id = $1`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.ProfilePicture, u.IsAdmin,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	if tag.RowsAffected() == 0 {
		return user.User{}, user.ErrNotFound
	}

	return r.GetByID(ctx, u.ID)
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("users.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []user.User{}
	}

	return out, nil
}
