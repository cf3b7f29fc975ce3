package repository

import (
	"context"

	"github.com/neven/neven/internal/config"
	"github.com/sirupsen/logrus"
)

// AccountStores bundles the repositories of the configured backend.
type AccountStores struct {
	Admins    AdminRepository
	Customers CustomerRepository
	close     func()
}

func (s *AccountStores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// OpenAccountStores connects to the backend named by cfg.Backend: the
// relational store (postgres) or the document store (dynamodb).
func OpenAccountStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*AccountStores, error) {
	if cfg.Backend == config.BackendPostgres {
		pool, err := NewPostgresPool(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return &AccountStores{
			Admins:    NewPostgresAdminRepository(pool, logger),
			Customers: NewPostgresCustomerRepository(pool, logger),
			close:     pool.Close,
		}, nil
	}

	client, err := NewDynamoClient(ctx, &cfg.DynamoDB, logger)
	if err != nil {
		return nil, err
	}
	return &AccountStores{
		Admins:    NewDynamoAdminRepository(client, cfg.DynamoDB.TableName, logger),
		Customers: NewDynamoCustomerRepository(client, cfg.DynamoDB.TableName, logger),
	}, nil
}
