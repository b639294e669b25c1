package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgauth "github.com/solmart/solmart-backend/pkg/auth"
	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/security"
	"github.com/solmart/solmart-backend/pkg/solana"
)

const invalidCredentialsMessage = "invalid credentials"

// Session is the issued wallet session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// ConnectInput carries optional profile fields supplied at connect time.
type ConnectInput struct {
	Email *string
	Name  *string
}

// sessionStore is the Redis surface wallet sessions need.
type sessionStore interface {
	StoreSession(ctx context.Context, sessionID, payload string, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (string, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

// Service issues and verifies wallet-bound sessions. Connect is the mock
// wallet handshake: possession of the address is taken at face value, the
// way a devnet storefront trusts the adapter.
type Service interface {
	Connect(ctx context.Context, wallet string, input ConnectInput) (*Session, error)
	ElevateAdmin(ctx context.Context, wallet, secret string) (*Session, error)
	Disconnect(ctx context.Context, jti string) error
	Verify(ctx context.Context, token string) (*pkgauth.AccessTokenClaims, error)
	Me(ctx context.Context, wallet string) (*models.User, error)
}

type service struct {
	repo     *Repository
	sessions sessionStore
	jwtCfg   config.JWTConfig
	adminCfg config.AdminConfig
}

// NewService constructs the wallet session service.
func NewService(repo *Repository, sessions sessionStore, jwtCfg config.JWTConfig, adminCfg config.AdminConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		jwtCfg:   jwtCfg,
		adminCfg: adminCfg,
	}, nil
}

func (s *service) Connect(ctx context.Context, wallet string, input ConnectInput) (*Session, error) {
	wallet = strings.TrimSpace(wallet)
	if _, err := solana.ParsePublicKey(wallet); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet address")
	}

	user, err := s.upsertUser(ctx, wallet, input)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, user.Role)
}

func (s *service) ElevateAdmin(ctx context.Context, wallet, secret string) (*Session, error) {
	if s.adminCfg.SecretHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access is not configured")
	}

	ok, err := security.VerifySecret(secret, s.adminCfg.SecretHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	wallet = strings.TrimSpace(wallet)
	if _, err := solana.ParsePublicKey(wallet); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet address")
	}

	user, err := s.upsertUser(ctx, wallet, ConnectInput{})
	if err != nil {
		return nil, err
	}
	if user.Role != enums.UserRoleAdmin {
		user.Role = enums.UserRoleAdmin
		if user, err = s.repo.Save(ctx, user); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to grant admin role")
		}
	}
	return s.issue(ctx, user, enums.UserRoleAdmin)
}

func (s *service) Disconnect(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.RevokeSession(ctx, jti); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to revoke session")
	}
	return nil
}

func (s *service) Verify(ctx context.Context, token string) (*pkgauth.AccessTokenClaims, error) {
	claims, err := pkgauth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	// A valid JWT whose session was revoked is no longer a session.
	if _, err := s.sessions.GetSession(ctx, claims.ID); err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check session")
	}
	return claims, nil
}

// Me loads the account behind an authenticated wallet.
func (s *service) Me(ctx context.Context, wallet string) (*models.User, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet address is required")
	}
	user, err := s.repo.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	return user, nil
}

func (s *service) upsertUser(ctx context.Context, wallet string, input ConnectInput) (*models.User, error) {
	user, err := s.repo.FindByWallet(ctx, wallet)
	if err == nil {
		if applyProfile(user, input) {
			if user, err = s.repo.Save(ctx, user); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update profile")
			}
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load user")
	}

	created, err := s.repo.Create(ctx, &models.User{
		WalletAddress: wallet,
		Email:         input.Email,
		Name:          input.Name,
		Role:          enums.UserRoleBuyer,
		VendorStatus:  enums.VendorStatusPending,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create user")
	}
	return created, nil
}

func applyProfile(user *models.User, input ConnectInput) bool {
	changed := false
	if input.Email != nil {
		user.Email = input.Email
		changed = true
	}
	if input.Name != nil {
		user.Name = input.Name
		changed = true
	}
	return changed
}

func (s *service) issue(ctx context.Context, user *models.User, role enums.UserRole) (*Session, error) {
	now := time.Now().UTC()
	payload := pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Wallet: user.WalletAddress,
		Role:   role,
	}
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint token")
	}

	claims, err := pkgauth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to read minted token")
	}
	ttl := s.jwtCfg.SessionTTL()
	if ttl <= 0 {
		ttl = claims.ExpiresAt.Sub(now)
	}
	if err := s.sessions.StoreSession(ctx, claims.ID, user.WalletAddress, ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store session")
	}

	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}
