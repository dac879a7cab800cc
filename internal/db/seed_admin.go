package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/madialex/accounthub/internal/config"
	"github.com/madialex/accounthub/internal/domain/user"
	"github.com/madialex/accounthub/internal/security"
)

// EnsureAdminUser seeds the admin account from the environment. There is
// no HTTP route that creates admins, so this runs at startup instead.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.New(cfg.AdminName, cfg.AdminEmail, hash)
	u.IsAdmin = true

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, profile_picture, is_admin, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.ProfilePicture, u.IsAdmin, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
