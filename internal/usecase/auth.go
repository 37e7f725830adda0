package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/core/port"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/infra/security"
	"github.com/husnainn01/dealership-gateway/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrNoToken indicates the expected cookie slot was empty.
	ErrNoToken = errors.New("no session token")
	// ErrInvalidToken indicates the token is malformed or no configured key
	// validates its signature.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("session token expired")
	// ErrWrongPrincipalKind indicates a token of one principal class was
	// presented where the other is required.
	ErrWrongPrincipalKind = errors.New("wrong principal kind")
	// ErrUnrecognizedRole indicates the stored role value maps to no known
	// role. Login and resolution fail closed on it.
	ErrUnrecognizedRole = errors.New("invalid user role")
	// ErrStoreUnavailable indicates the account collaborator could not be
	// reached. Never treated as "unauthenticated".
	ErrStoreUnavailable = errors.New("account store unavailable")
)

// AuthService authenticates credentials, mints session tokens, and resolves
// presented tokens into principals.
type AuthService struct {
	cfg       *config.AppConfig
	admins    port.AdminAccountRepository
	customers port.CustomerAccountRepository
	roles     *RoleService
	codec     *security.TokenCodec
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	admins port.AdminAccountRepository,
	customers port.CustomerAccountRepository,
	roles *RoleService,
	codec *security.TokenCodec,
	events port.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		cfg:       cfg,
		admins:    admins,
		customers: customers,
		roles:     roles,
		codec:     codec,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// LoginAdmin verifies back-office credentials and issues an admin session
// token. The stored role value must normalize to a canonical role before a
// token is minted; unrecognized values fail closed.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password, clientIP string) (string, domain.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", domain.Principal{}, ErrInvalidCredentials
	}

	account, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.publishLoginFailed(ctx, domain.PrincipalKindAdmin, email, "unknown account", clientIP)
			return "", domain.Principal{}, ErrInvalidCredentials
		}
		return "", domain.Principal{}, fmt.Errorf("%w: lookup admin: %v", ErrStoreUnavailable, err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return "", domain.Principal{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.publishLoginFailed(ctx, domain.PrincipalKindAdmin, email, "bad password", clientIP)
		return "", domain.Principal{}, ErrInvalidCredentials
	}

	if !account.IsActive {
		s.publishLoginFailed(ctx, domain.PrincipalKindAdmin, email, "inactive account", clientIP)
		return "", domain.Principal{}, ErrInactiveAccount
	}

	role, err := s.roles.Resolve(ctx, account.Role)
	if err != nil {
		return "", domain.Principal{}, err
	}

	now := s.now().UTC()
	claims, err := security.NewSessionClaims(security.SessionClaimsOptions{
		SubjectID: account.ID,
		Kind:      string(domain.PrincipalKindAdmin),
		Role:      role.Name,
		Email:     account.Email,
		Name:      account.Name,
		Issuer:    s.cfg.Session.Issuer,
		TTL:       s.cfg.Session.AdminTokenTTL,
		IssuedAt:  now,
	})
	if err != nil {
		return "", domain.Principal{}, err
	}

	token, err := s.codec.Sign(claims)
	if err != nil {
		return "", domain.Principal{}, fmt.Errorf("issue admin token: %w", err)
	}

	if err := s.admins.TouchLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("failed to record admin last login", zap.Error(err))
	}

	principal := principalFromClaims(claims)

	if s.events != nil {
		if err := s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
			AccountID: account.ID,
			Kind:      domain.PrincipalKindAdmin,
			Email:     account.Email,
			Role:      role.Name,
			IP:        clientIP,
			At:        now,
		}); err != nil {
			s.logger.Warn("failed to publish login event", zap.Error(err))
		}
	}

	return token, principal, nil
}

// LoginCustomer verifies portal credentials and issues a customer session
// token. Customer principals carry no role.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password, clientIP string) (string, domain.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", domain.Principal{}, ErrInvalidCredentials
	}

	account, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.publishLoginFailed(ctx, domain.PrincipalKindCustomer, email, "unknown account", clientIP)
			return "", domain.Principal{}, ErrInvalidCredentials
		}
		return "", domain.Principal{}, fmt.Errorf("%w: lookup customer: %v", ErrStoreUnavailable, err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return "", domain.Principal{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.publishLoginFailed(ctx, domain.PrincipalKindCustomer, email, "bad password", clientIP)
		return "", domain.Principal{}, ErrInvalidCredentials
	}

	if !account.IsActive {
		s.publishLoginFailed(ctx, domain.PrincipalKindCustomer, email, "inactive account", clientIP)
		return "", domain.Principal{}, ErrInactiveAccount
	}

	now := s.now().UTC()
	claims, err := security.NewSessionClaims(security.SessionClaimsOptions{
		SubjectID: account.ID,
		Kind:      string(domain.PrincipalKindCustomer),
		Email:     account.Email,
		Name:      account.Name,
		Issuer:    s.cfg.Session.Issuer,
		TTL:       s.cfg.Session.CustomerTokenTTL,
		IssuedAt:  now,
	})
	if err != nil {
		return "", domain.Principal{}, err
	}

	token, err := s.codec.Sign(claims)
	if err != nil {
		return "", domain.Principal{}, fmt.Errorf("issue customer token: %w", err)
	}

	if err := s.customers.TouchLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("failed to record customer last login", zap.Error(err))
	}

	principal := principalFromClaims(claims)

	if s.events != nil {
		if err := s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
			AccountID: account.ID,
			Kind:      domain.PrincipalKindCustomer,
			Email:     account.Email,
			IP:        clientIP,
			At:        now,
		}); err != nil {
			s.logger.Warn("failed to publish login event", zap.Error(err))
		}
	}

	return token, principal, nil
}

// ResolveAdmin verifies a presented admin cookie value and returns the
// normalized principal or a typed failure.
func (s *AuthService) ResolveAdmin(ctx context.Context, cookieValue string) (domain.Principal, error) {
	claims, err := s.verify(cookieValue)
	if err != nil {
		return domain.Principal{}, err
	}

	if claims.Kind != string(domain.PrincipalKindAdmin) {
		return domain.Principal{}, ErrWrongPrincipalKind
	}

	// Role values in tokens predate rotations of the role catalogue, so the
	// claimed role is re-validated on every request.
	role, err := s.roles.Resolve(ctx, claims.Role)
	if err != nil {
		return domain.Principal{}, err
	}

	principal := principalFromClaims(claims)
	principal.Role = role.Name

	return principal, nil
}

// ResolveCustomer verifies a presented customer cookie value and returns the
// normalized principal or a typed failure.
func (s *AuthService) ResolveCustomer(_ context.Context, cookieValue string) (domain.Principal, error) {
	claims, err := s.verify(cookieValue)
	if err != nil {
		return domain.Principal{}, err
	}

	if claims.Kind != string(domain.PrincipalKindCustomer) {
		return domain.Principal{}, ErrWrongPrincipalKind
	}

	return principalFromClaims(claims), nil
}

func (s *AuthService) verify(cookieValue string) (*security.SessionClaims, error) {
	cookieValue = strings.TrimSpace(cookieValue)
	if cookieValue == "" {
		return nil, ErrNoToken
	}

	claims, err := s.codec.Verify(cookieValue)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrInvalidToken
		}
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) publishLoginFailed(ctx context.Context, kind domain.PrincipalKind, email, reason, clientIP string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
		Kind:   kind,
		Email:  email,
		Reason: reason,
		IP:     clientIP,
		At:     s.now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to publish login failure event", zap.Error(err))
	}
}

func principalFromClaims(claims *security.SessionClaims) domain.Principal {
	principal := domain.Principal{
		Kind:        domain.PrincipalKind(claims.Kind),
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Role:        claims.Role,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal
}
