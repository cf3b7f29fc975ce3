package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const minAdminPasswordLength = 8

type AdminSetup struct {
	Email    string
	Name     string
	Password string
	Role     models.AdminRole
	// ResetPassword updates the password of an existing admin instead of failing.
	ResetPassword bool
	BcryptCost    int
}

// EnsureAdmin creates the admin described by setup, or resets its password
// when it exists and ResetPassword is set. It reports whether a new admin was created.
func EnsureAdmin(ctx context.Context, admins repository.AdminRepository, setup AdminSetup) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(setup.Email))
	if email == "" {
		return false, fmt.Errorf("admin email is required")
	}
	if len(setup.Password) < minAdminPasswordLength {
		return false, fmt.Errorf("admin password must be at least %d characters", minAdminPasswordLength)
	}

	role := setup.Role
	if role == "" {
		role = models.AdminRoleSuperAdmin
	}
	if !role.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidAdminRole, role)
	}

	cost := setup.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(setup.Password), cost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := admins.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if !setup.ResetPassword {
			return false, repository.ErrAdminExists
		}
		if err := admins.SetPassword(ctx, email, string(hash)); err != nil {
			return false, err
		}
		return false, nil
	}

	permissions := models.AdminPermissions{Products: true, Orders: true, Customers: true}
	if role == models.AdminRoleSuperAdmin {
		permissions = models.FullPermissions()
	}

	admin := &models.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         setup.Name,
		Role:         role,
		Permissions:  permissions,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdminExists) && setup.ResetPassword {
			return false, admins.SetPassword(ctx, email, string(hash))
		}
		return false, err
	}

	return true, nil
}

// GenerateSecret returns n random bytes, base64url encoded.
func GenerateSecret(n int) (string, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}
