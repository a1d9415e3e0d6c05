package owner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/internal/repository/redis"
	"github.com/domflow/tigerad/pkg/utils"
)

func init() {
	utils.InitJWT("test-secret-key", 24)
}

type fakeOwnerRepo struct {
	owners  map[string]*domain.StoreOwner
	apiKeys []domain.APIKey
	nextID  uint64
}

func newFakeOwnerRepo() *fakeOwnerRepo {
	return &fakeOwnerRepo{owners: map[string]*domain.StoreOwner{}}
}

func (f *fakeOwnerRepo) Create(_ context.Context, owner *domain.StoreOwner) error {
	if _, exists := f.owners[owner.Email]; exists {
		return domain.ErrEmailExists
	}
	f.nextID++
	owner.ID = f.nextID
	f.owners[owner.Email] = owner
	return nil
}

func (f *fakeOwnerRepo) FindByEmail(_ context.Context, email string) (domain.StoreOwner, error) {
	owner, ok := f.owners[email]
	if !ok {
		return domain.StoreOwner{}, domain.ErrNotFound
	}
	return *owner, nil
}

func (f *fakeOwnerRepo) FindByID(_ context.Context, id uint64) (domain.StoreOwner, error) {
	for _, owner := range f.owners {
		if owner.ID == id {
			return *owner, nil
		}
	}
	return domain.StoreOwner{}, domain.ErrNotFound
}

func (f *fakeOwnerRepo) CreateAPIKey(_ context.Context, key *domain.APIKey) error {
	f.apiKeys = append(f.apiKeys, *key)
	return nil
}

type fakeTokens struct {
	stored  map[string]redis.TokenData
	revoked []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{stored: map[string]redis.TokenData{}}
}

func (f *fakeTokens) StoreToken(_ context.Context, ownerID string, data redis.TokenData, ttl time.Duration) error {
	f.stored[ownerID] = data
	return nil
}

func (f *fakeTokens) RevokeToken(_ context.Context, ownerID, token string) error {
	f.revoked = append(f.revoked, token)
	delete(f.stored, ownerID)
	return nil
}

func register(t *testing.T, svc *OwnerService, email string) AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), RegisterRequest{
		BusinessName: "Corner Cafe LLC",
		OwnerName:    "Jordan Reyes",
		Email:        email,
		Phone:        "+15550100",
		Password:     "correct horse battery",
	})
	require.NoError(t, err)
	return result
}

func TestRegisterIssuesTokenAndAPIKey(t *testing.T) {
	repo := newFakeOwnerRepo()
	tokens := newFakeTokens()
	svc := NewOwnerService(repo, tokens, 24)

	result := register(t, svc, "jordan@example.com")

	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.APIKey)
	assert.Equal(t, domain.VerificationPending, result.Owner.VerificationStatus)
	assert.NotEqual(t, "correct horse battery", result.Owner.PasswordHash)
	require.Len(t, repo.apiKeys, 1)
	assert.Len(t, tokens.stored, 1, "session mirrored into the token store")
}

func TestRegisterNormalizesEmail(t *testing.T) {
	repo := newFakeOwnerRepo()
	svc := NewOwnerService(repo, newFakeTokens(), 24)

	result := register(t, svc, "  Jordan@Example.COM ")
	assert.Equal(t, "jordan@example.com", result.Owner.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewOwnerService(newFakeOwnerRepo(), newFakeTokens(), 24)

	register(t, svc, "jordan@example.com")
	_, err := svc.Register(context.Background(), RegisterRequest{
		BusinessName: "Other", OwnerName: "Other", Email: "jordan@example.com",
		Phone: "+15550101", Password: "another password",
	})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	svc := NewOwnerService(newFakeOwnerRepo(), newFakeTokens(), 24)
	register(t, svc, "jordan@example.com")

	result, err := svc.Login(context.Background(), "jordan@example.com", "correct horse battery", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Empty(t, result.APIKey, "login does not mint a new API key")
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewOwnerService(newFakeOwnerRepo(), newFakeTokens(), 24)
	register(t, svc, "jordan@example.com")

	_, err := svc.Login(context.Background(), "jordan@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewOwnerService(newFakeOwnerRepo(), newFakeTokens(), 24)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever", "", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginRejectedAccount(t *testing.T) {
	repo := newFakeOwnerRepo()
	svc := NewOwnerService(repo, newFakeTokens(), 24)
	register(t, svc, "jordan@example.com")

	repo.owners["jordan@example.com"].VerificationStatus = domain.VerificationRejected

	_, err := svc.Login(context.Background(), "jordan@example.com", "correct horse battery", "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogoutRevokesSession(t *testing.T) {
	tokens := newFakeTokens()
	svc := NewOwnerService(newFakeOwnerRepo(), tokens, 24)
	result := register(t, svc, "jordan@example.com")

	err := svc.Logout(context.Background(), result.Owner.ID, result.Token)
	require.NoError(t, err)
	assert.Contains(t, tokens.revoked, result.Token)
}
