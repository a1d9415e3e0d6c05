// Package owner handles store owner registration and login. Issued JWTs are
// mirrored into Redis so a token can be revoked before it expires.
package owner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/internal/repository/redis"
	"github.com/domflow/tigerad/pkg/logger"
	"github.com/domflow/tigerad/pkg/utils"
	"github.com/google/uuid"
)

type OwnerRepository interface {
	Create(ctx context.Context, owner *domain.StoreOwner) error
	FindByEmail(ctx context.Context, email string) (domain.StoreOwner, error)
	FindByID(ctx context.Context, id uint64) (domain.StoreOwner, error)
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
}

type TokenStore interface {
	StoreToken(ctx context.Context, ownerID string, data redis.TokenData, ttl time.Duration) error
	RevokeToken(ctx context.Context, ownerID, token string) error
}

type OwnerService struct {
	ownerRepo OwnerRepository
	tokens    TokenStore
	tokenTTL  time.Duration
}

func NewOwnerService(ownerRepo OwnerRepository, tokens TokenStore, tokenExpirationHours int) *OwnerService {
	return &OwnerService{
		ownerRepo: ownerRepo,
		tokens:    tokens,
		tokenTTL:  time.Duration(tokenExpirationHours) * time.Hour,
	}
}

type RegisterRequest struct {
	BusinessName string
	OwnerName    string
	Email        string
	Phone        string
	Password     string
	ClientIP     string
	UserAgent    string
}

type AuthResult struct {
	Owner  domain.StoreOwner `json:"owner"`
	Token  string            `json:"token"`
	APIKey string            `json:"api_key,omitempty"`
}

// Register creates a pending owner account, issues an API key and logs the
// account in.
func (s *OwnerService) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.StoreOwner{
		BusinessName:       req.BusinessName,
		OwnerName:          req.OwnerName,
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:              req.Phone,
		PasswordHash:       hash,
		VerificationStatus: domain.VerificationPending,
	}
	if err := s.ownerRepo.Create(ctx, &account); err != nil {
		return AuthResult{}, err
	}

	apiKey := domain.APIKey{
		StoreOwnerID: account.ID,
		APIKey:       uuid.NewString(),
		KeyName:      "Default",
		IsActive:     true,
	}
	if err := s.ownerRepo.CreateAPIKey(ctx, &apiKey); err != nil {
		return AuthResult{}, err
	}

	token, err := s.issueToken(ctx, account, req.ClientIP, req.UserAgent)
	if err != nil {
		return AuthResult{}, err
	}

	logger.Info("owner registered", "owner_id", account.ID, "email", account.Email)

	return AuthResult{Owner: account, Token: token, APIKey: apiKey.APIKey}, nil
}

// Login authenticates by email and password. Rejected accounts cannot log in;
// pending accounts can, since verification gates payouts rather than access.
func (s *OwnerService) Login(ctx context.Context, email, password, clientIP, userAgent string) (AuthResult, error) {
	account, err := s.ownerRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AuthResult{}, domain.ErrUnauthorized
		}
		return AuthResult{}, err
	}

	if !utils.CheckPassword(account.PasswordHash, password) {
		return AuthResult{}, domain.ErrUnauthorized
	}

	if account.VerificationStatus == domain.VerificationRejected {
		return AuthResult{}, domain.ErrForbidden
	}

	token, err := s.issueToken(ctx, account, clientIP, userAgent)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Owner: account, Token: token}, nil
}

func (s *OwnerService) Logout(ctx context.Context, ownerID uint64, token string) error {
	return s.tokens.RevokeToken(ctx, strconv.FormatUint(ownerID, 10), token)
}

func (s *OwnerService) Profile(ctx context.Context, ownerID uint64) (domain.StoreOwner, error) {
	return s.ownerRepo.FindByID(ctx, ownerID)
}

func (s *OwnerService) issueToken(ctx context.Context, account domain.StoreOwner, clientIP, userAgent string) (string, error) {
	token, err := utils.GenerateJWT(account.ID, domain.RoleStoreOwner)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	now := time.Now()
	ownerID := strconv.FormatUint(account.ID, 10)
	err = s.tokens.StoreToken(ctx, ownerID, redis.TokenData{
		OwnerID:   ownerID,
		Role:      domain.RoleStoreOwner,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenTTL),
		IPAddress: clientIP,
		UserAgent: userAgent,
	}, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("store session token: %w", err)
	}

	return token, nil
}
