package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crowdspark/crowdspark-api/internal/domain"
	"github.com/crowdspark/crowdspark-api/internal/domain/repository"
)

// UserRepo implementa repository.Users sobre la tabla app_user.
type UserRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, password_hash, google_id,
	display_name, first_name, last_name, avatar_url,
	is_creator, email_verified, is_verified,
	refresh_token, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.GoogleID,
		&u.DisplayName, &u.FirstName, &u.LastName, &u.AvatarURL,
		&u.IsCreator, &u.EmailVerified, &u.IsVerified,
		&u.RefreshToken, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE google_id = $1`, googleID)
	return scanUser(row)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO app_user
			(email, password_hash, google_id,
			 display_name, first_name, last_name, avatar_url,
			 is_creator, email_verified, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.GoogleID,
		u.DisplayName, u.FirstName, u.LastName, u.AvatarURL,
		u.IsCreator, u.EmailVerified, u.IsVerified,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *UserRepo) LinkGoogle(ctx context.Context, id uuid.UUID, googleID, displayName, avatarURL string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user SET
			google_id      = $2,
			display_name   = CASE WHEN $3 <> '' THEN $3 ELSE display_name END,
			avatar_url     = CASE WHEN $4 <> '' THEN $4 ELSE avatar_url END,
			email_verified = TRUE,
			updated_at     = now()
		WHERE id = $1`,
		id, googleID, displayName, avatarURL,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) TouchProviderProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user SET
			display_name = CASE WHEN $2 <> '' THEN $2 ELSE display_name END,
			avatar_url   = CASE WHEN $3 <> '' THEN $3 ELSE avatar_url END,
			updated_at   = now()
		WHERE id = $1`,
		id, displayName, avatarURL,
	)
	if err != nil {
		return fmt.Errorf("postgres: touch profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SaveLoginArtifacts(ctx context.Context, id uuid.UUID, refreshToken string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user SET
			refresh_token = $2,
			last_login    = now(),
			updated_at    = now()
		WHERE id = $1`,
		id, refreshToken,
	)
	if err != nil {
		return fmt.Errorf("postgres: save login artifacts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetCreator(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user SET is_creator = TRUE, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: set creator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// mapUniqueViolation traduce el 23505 de Postgres al sentinel del dominio
// según el índice violado.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return repository.ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "google"):
			return repository.ErrDuplicateGoogleID
		}
	}
	return fmt.Errorf("postgres: %w", err)
}
