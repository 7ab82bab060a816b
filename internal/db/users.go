package db

import (
	"context"
	"fmt"

	"github.com/megbaru-hub/teffexpo/internal/models"
)

const userColumns = `id, name, email, phone, role, active, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	rows, err := s.q.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpsertUser inserts a user or refreshes an existing one matched by email.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO users (id, name, email, phone, role, active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			active = EXCLUDED.active,
			password_hash = EXCLUDED.password_hash,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`, u.ID, u.Name, u.Email, u.Phone, string(u.Role), u.Active, u.PasswordHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
	}
	return nil
}
