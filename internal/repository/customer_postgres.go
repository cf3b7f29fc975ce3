package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/neven/neven/internal/models"
	"github.com/sirupsen/logrus"
)

const customerColumns = `id, name, phone, email, is_active, created_at`

type PostgresCustomerRepository struct {
	db     PgxQuerier
	logger *logrus.Logger
}

func NewPostgresCustomerRepository(db PgxQuerier, logger *logrus.Logger) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresCustomerRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1`, phone)
	return r.scan(row)
}

func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return r.scan(row)
}

func (r *PostgresCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		customer.ID, customer.Name, customer.Phone, customer.Email, customer.IsActive, customer.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCustomerExists
		}
		r.logger.WithError(err).Error("Failed to create customer in Postgres")
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

func (r *PostgresCustomerRepository) scan(row pgx.Row) (*models.Customer, error) {
	var customer models.Customer
	err := row.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Email, &customer.IsActive, &customer.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get customer from Postgres")
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}
