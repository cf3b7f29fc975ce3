package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/neven/neven/internal/models"
	"github.com/sirupsen/logrus"
)

// DynamoAdminRepository stores admins under ADMIN#<email> with an
// ADMIN_ID#<id> pointer item for lookups by id.
type DynamoAdminRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewDynamoAdminRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *DynamoAdminRepository {
	return &DynamoAdminRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func adminIDKey(id string) string {
	return "ADMIN_ID#" + id
}

func (r *DynamoAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{Email: strings.ToLower(email)}

	var dbAdmin models.Admin
	found, err := getItem(ctx, r.client, r.tableName, admin.GetPK(), &dbAdmin)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get admin from DynamoDB")
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &dbAdmin, nil
}

func (r *DynamoAdminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	var pointer struct {
		Email string `dynamodbav:"email"`
	}
	found, err := getItem(ctx, r.client, r.tableName, adminIDKey(id), &pointer)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get admin pointer from DynamoDB")
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if !found {
		return nil, nil
	}

	return r.GetByEmail(ctx, pointer.Email)
}

func (r *DynamoAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	admin.Email = strings.ToLower(admin.Email)
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}

	pointer := map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: admin.Email},
	}

	if err := putWithPointer(ctx, r.client, r.tableName, admin.GetPK(), admin, adminIDKey(admin.ID), pointer, ErrAdminExists); err != nil {
		if errors.Is(err, ErrAdminExists) {
			return err
		}
		r.logger.WithError(err).Error("Failed to create admin in DynamoDB")
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

func (r *DynamoAdminRepository) UpdateLastLogin(ctx context.Context, admin *models.Admin, at time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              itemKey(admin.GetPK()),
		UpdateExpression: aws.String("SET last_login = :last_login"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":last_login": &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to update admin last login in DynamoDB")
		return fmt.Errorf("failed to update admin last login: %w", err)
	}

	admin.LastLogin = &at
	return nil
}

func (r *DynamoAdminRepository) SetPassword(ctx context.Context, email, passwordHash string) error {
	admin := &models.Admin{Email: strings.ToLower(email)}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 itemKey(admin.GetPK()),
		UpdateExpression:    aws.String("SET password_hash = :hash"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":hash": &types.AttributeValueMemberS{Value: passwordHash},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrAdminNotFound
		}
		r.logger.WithError(err).Error("Failed to update admin password in DynamoDB")
		return fmt.Errorf("failed to update admin password: %w", err)
	}

	return nil
}
