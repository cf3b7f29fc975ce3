package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/neven/neven/internal/models"
	"github.com/sirupsen/logrus"
)

// DynamoCustomerRepository stores customers under CUSTOMER#<phone> with a
// CUSTOMER_ID#<id> pointer item, so a phone number maps to one account.
type DynamoCustomerRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewDynamoCustomerRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *DynamoCustomerRepository {
	return &DynamoCustomerRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func customerIDKey(id string) string {
	return "CUSTOMER_ID#" + id
}

func (r *DynamoCustomerRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	customer := &models.Customer{Phone: phone}

	var dbCustomer models.Customer
	found, err := getItem(ctx, r.client, r.tableName, customer.GetPK(), &dbCustomer)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get customer from DynamoDB")
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &dbCustomer, nil
}

func (r *DynamoCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var pointer struct {
		Phone string `dynamodbav:"phone"`
	}
	found, err := getItem(ctx, r.client, r.tableName, customerIDKey(id), &pointer)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get customer pointer from DynamoDB")
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if !found {
		return nil, nil
	}

	return r.GetByPhone(ctx, pointer.Phone)
}

func (r *DynamoCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	pointer := map[string]types.AttributeValue{
		"phone": &types.AttributeValueMemberS{Value: customer.Phone},
	}

	if err := putWithPointer(ctx, r.client, r.tableName, customer.GetPK(), customer, customerIDKey(customer.ID), pointer, ErrCustomerExists); err != nil {
		if errors.Is(err, ErrCustomerExists) {
			return err
		}
		r.logger.WithError(err).Error("Failed to create customer in DynamoDB")
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}
