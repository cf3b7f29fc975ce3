package repository

import (
	"context"
	"errors"
	"time"

	"github.com/neven/neven/internal/models"
)

var (
	ErrAdminExists    = errors.New("admin already exists")
	ErrAdminNotFound  = errors.New("admin not found")
	ErrCustomerExists = errors.New("customer already exists")
)

// AdminRepository lookups return nil, nil when no admin matches.
type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	UpdateLastLogin(ctx context.Context, admin *models.Admin, at time.Time) error
	SetPassword(ctx context.Context, email, passwordHash string) error
}

// CustomerRepository lookups return nil, nil when no customer matches.
type CustomerRepository interface {
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
}
