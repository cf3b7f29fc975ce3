package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*models.Admin
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{admins: make(map[string]*models.Admin)}
}

func (r *stubAdminRepo) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admins[email], nil
}

func (r *stubAdminRepo) GetByID(_ context.Context, id string) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.ID == id {
			return admin, nil
		}
	}
	return nil, nil
}

func (r *stubAdminRepo) Create(_ context.Context, admin *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[admin.Email]; ok {
		return repository.ErrAdminExists
	}
	r.admins[admin.Email] = admin
	return nil
}

func (r *stubAdminRepo) UpdateLastLogin(_ context.Context, admin *models.Admin, at time.Time) error {
	admin.LastLogin = &at
	return nil
}

func (r *stubAdminRepo) SetPassword(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[email]
	if !ok {
		return repository.ErrAdminNotFound
	}
	admin.PasswordHash = passwordHash
	return nil
}

func TestEnsureAdmin_CreatesSuperAdmin(t *testing.T) {
	repo := newStubAdminRepo()

	created, err := EnsureAdmin(context.Background(), repo, AdminSetup{
		Email:      "Owner@Neven.com",
		Name:       "Owner",
		Password:   "correct-horse",
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	assert.True(t, created)

	admin := repo.admins["owner@neven.com"]
	require.NotNil(t, admin)
	assert.Equal(t, models.AdminRoleSuperAdmin, admin.Role)
	assert.Equal(t, models.FullPermissions(), admin.Permissions)
	assert.True(t, admin.IsActive)
	assert.NotEmpty(t, admin.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("correct-horse")))
}

func TestEnsureAdmin_ExistingWithoutReset(t *testing.T) {
	repo := newStubAdminRepo()
	setup := AdminSetup{Email: "owner@neven.com", Password: "correct-horse", BcryptCost: bcrypt.MinCost}

	_, err := EnsureAdmin(context.Background(), repo, setup)
	require.NoError(t, err)

	_, err = EnsureAdmin(context.Background(), repo, setup)
	assert.ErrorIs(t, err, repository.ErrAdminExists)
}

func TestEnsureAdmin_ResetPassword(t *testing.T) {
	repo := newStubAdminRepo()
	ctx := context.Background()

	_, err := EnsureAdmin(ctx, repo, AdminSetup{Email: "owner@neven.com", Password: "correct-horse", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	created, err := EnsureAdmin(ctx, repo, AdminSetup{
		Email:         "owner@neven.com",
		Password:      "battery-staple",
		ResetPassword: true,
		BcryptCost:    bcrypt.MinCost,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.admins["owner@neven.com"].PasswordHash), []byte("battery-staple")))
}

func TestEnsureAdmin_RejectsWeakInput(t *testing.T) {
	repo := newStubAdminRepo()

	_, err := EnsureAdmin(context.Background(), repo, AdminSetup{Email: "owner@neven.com", Password: "short"})
	assert.Error(t, err)

	_, err = EnsureAdmin(context.Background(), repo, AdminSetup{Email: " ", Password: "long-enough"})
	assert.Error(t, err)
	assert.Empty(t, repo.admins)
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret(48)
	require.NoError(t, err)
	b, err := GenerateSecret(48)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestEnsureAdmin_RejectsUnknownRole(t *testing.T) {
	repo := newStubAdminRepo()

	_, err := EnsureAdmin(context.Background(), repo, AdminSetup{
		Email:      "owner@neven.com",
		Password:   "correct-horse",
		Role:       models.AdminRole("owner"),
		BcryptCost: bcrypt.MinCost,
	})
	assert.ErrorIs(t, err, ErrInvalidAdminRole)
	assert.Empty(t, repo.admins)

	created, err := EnsureAdmin(context.Background(), repo, AdminSetup{
		Email:      "staff@neven.com",
		Password:   "correct-horse",
		Role:       models.AdminRoleStaff,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.AdminRoleStaff, repo.admins["staff@neven.com"].Role)
	assert.False(t, repo.admins["staff@neven.com"].Permissions.Admins)
}
