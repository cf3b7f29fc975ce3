package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/neven/neven/internal/models"
	"github.com/sirupsen/logrus"
)

const adminColumns = `id, email, name, role, permissions, password_hash, is_active, last_login, created_at`

type PostgresAdminRepository struct {
	db     PgxQuerier
	logger *logrus.Logger
}

func NewPostgresAdminRepository(db PgxQuerier, logger *logrus.Logger) *PostgresAdminRepository {
	return &PostgresAdminRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	row := r.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, strings.ToLower(email))
	return r.scan(row)
}

func (r *PostgresAdminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	row := r.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return r.scan(row)
}

func (r *PostgresAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	admin.Email = strings.ToLower(admin.Email)
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO admins (`+adminColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		admin.ID, admin.Email, admin.Name, string(admin.Role), admin.Permissions,
		admin.PasswordHash, admin.IsActive, admin.LastLogin, admin.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAdminExists
		}
		r.logger.WithError(err).Error("Failed to create admin in Postgres")
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

func (r *PostgresAdminRepository) UpdateLastLogin(ctx context.Context, admin *models.Admin, at time.Time) error {
	if _, err := r.db.Exec(ctx, `UPDATE admins SET last_login = $1 WHERE id = $2`, at.UTC(), admin.ID); err != nil {
		r.logger.WithError(err).Error("Failed to update admin last login in Postgres")
		return fmt.Errorf("failed to update admin last login: %w", err)
	}

	admin.LastLogin = &at
	return nil
}

func (r *PostgresAdminRepository) SetPassword(ctx context.Context, email, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE admins SET password_hash = $1 WHERE email = $2`, passwordHash, strings.ToLower(email))
	if err != nil {
		r.logger.WithError(err).Error("Failed to update admin password in Postgres")
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}

	return nil
}

func (r *PostgresAdminRepository) scan(row pgx.Row) (*models.Admin, error) {
	var admin models.Admin
	var role string
	err := row.Scan(
		&admin.ID, &admin.Email, &admin.Name, &role, &admin.Permissions,
		&admin.PasswordHash, &admin.IsActive, &admin.LastLogin, &admin.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get admin from Postgres")
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	admin.Role = models.AdminRole(role)
	return &admin, nil
}
