package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/infra/security"
	"github.com/husnainn01/dealership-gateway/internal/repository"
)

type fakeAdminRepo struct {
	byEmail map[string]*domain.AdminAccount
	err     error

	lastLoginID string
}

func (f *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.AdminAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	if account, ok := f.byEmail[email]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.AdminAccount, error) {
	for _, account := range f.byEmail {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdminRepo) Create(_ context.Context, account domain.AdminAccount) error {
	if f.byEmail == nil {
		f.byEmail = make(map[string]*domain.AdminAccount)
	}
	f.byEmail[account.Email] = &account
	return nil
}

func (f *fakeAdminRepo) Delete(_ context.Context, id string) error {
	for email, account := range f.byEmail {
		if account.ID == id {
			delete(f.byEmail, email)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAdminRepo) TouchLastLogin(_ context.Context, id string, _ time.Time) error {
	f.lastLoginID = id
	return nil
}

type fakeCustomerRepo struct {
	byEmail map[string]*domain.CustomerAccount
}

func (f *fakeCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.CustomerAccount, error) {
	if account, ok := f.byEmail[email]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.CustomerAccount, error) {
	for _, account := range f.byEmail {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCustomerRepo) TouchLastLogin(context.Context, string, time.Time) error { return nil }

type fakeRoleRepo struct {
	bySlug map[string]domain.DynamicRole
	byID   map[string]domain.DynamicRole
	err    error

	deleted []string
	created []domain.DynamicRole
	updated []domain.DynamicRole
}

func (f *fakeRoleRepo) List(context.Context) ([]domain.DynamicRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.DynamicRole, 0, len(f.bySlug))
	for _, role := range f.bySlug {
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id string) (*domain.DynamicRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	if role, ok := f.byID[id]; ok {
		copied := role
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) GetBySlug(_ context.Context, slug string) (*domain.DynamicRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	if role, ok := f.bySlug[slug]; ok {
		copied := role
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) Create(_ context.Context, role domain.DynamicRole) error {
	f.created = append(f.created, role)
	if f.bySlug == nil {
		f.bySlug = make(map[string]domain.DynamicRole)
	}
	if f.byID == nil {
		f.byID = make(map[string]domain.DynamicRole)
	}
	f.bySlug[role.Slug] = role
	f.byID[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) Update(_ context.Context, role domain.DynamicRole) error {
	f.updated = append(f.updated, role)
	f.bySlug[role.Slug] = role
	f.byID[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	if role, ok := f.byID[id]; ok {
		delete(f.bySlug, role.Slug)
		delete(f.byID, id)
		return nil
	}
	return repository.ErrNotFound
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Session: config.SessionSettings{
			SigningKey:       "test-secret",
			Issuer:           "test",
			AdminTokenTTL:    24 * time.Hour,
			CustomerTokenTTL: 168 * time.Hour,
		},
	}
}

func newAuthEnv(t *testing.T, admins *fakeAdminRepo, customers *fakeCustomerRepo, roles *fakeRoleRepo) (*AuthService, *security.TokenCodec) {
	t.Helper()

	cfg := testConfig()
	codec, err := security.NewTokenCodec(cfg.Session.SigningKeys())
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	log := zaptest.NewLogger(t)
	roleService := NewRoleService(roles, admins, nil, nil, log)
	return NewAuthService(cfg, admins, customers, roleService, codec, nil, log), codec
}

func adminAccount(t *testing.T, email, password, role string) *domain.AdminAccount {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &domain.AdminAccount{
		ID:           "admin-1",
		Email:        email,
		Name:         "Test Admin",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
}

func TestLoginAdminIssuesVerifiableToken(t *testing.T) {
	admins := &fakeAdminRepo{byEmail: map[string]*domain.AdminAccount{
		"boss@dealership.example": adminAccount(t, "boss@dealership.example", "sturdy-pass-1", "admin"),
	}}

	service, codec := newAuthEnv(t, admins, &fakeCustomerRepo{}, &fakeRoleRepo{})

	token, principal, err := service.LoginAdmin(context.Background(), "Boss@Dealership.example", "sturdy-pass-1", "192.0.2.1")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}

	if principal.Kind != domain.PrincipalKindAdmin || principal.Role != "admin" {
		t.Fatalf("unexpected principal %+v", principal)
	}
	if admins.lastLoginID != "admin-1" {
		t.Fatalf("expected last login to be recorded")
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("issued token must verify: %v", err)
	}
	if claims.Kind != "admin" || claims.Role != "admin" || claims.Subject != "admin-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginAdminRejectsBadCredentials(t *testing.T) {
	admins := &fakeAdminRepo{byEmail: map[string]*domain.AdminAccount{
		"boss@dealership.example": adminAccount(t, "boss@dealership.example", "sturdy-pass-1", "admin"),
	}}

	service, _ := newAuthEnv(t, admins, &fakeCustomerRepo{}, &fakeRoleRepo{})

	if _, _, err := service.LoginAdmin(context.Background(), "boss@dealership.example", "wrong", "ip"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}

	if _, _, err := service.LoginAdmin(context.Background(), "ghost@dealership.example", "whatever", "ip"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", err)
	}
}

func TestLoginAdminFailsClosedOnUnrecognizedRole(t *testing.T) {
	admins := &fakeAdminRepo{byEmail: map[string]*domain.AdminAccount{
		"odd@dealership.example": adminAccount(t, "odd@dealership.example", "sturdy-pass-1", "role_ghost"),
	}}

	service, _ := newAuthEnv(t, admins, &fakeCustomerRepo{}, &fakeRoleRepo{})

	if _, _, err := service.LoginAdmin(context.Background(), "odd@dealership.example", "sturdy-pass-1", "ip"); !errors.Is(err, ErrUnrecognizedRole) {
		t.Fatalf("expected ErrUnrecognizedRole, got %v", err)
	}
}

func TestLoginAdminInactiveAccount(t *testing.T) {
	account := adminAccount(t, "gone@dealership.example", "sturdy-pass-1", "admin")
	account.IsActive = false
	admins := &fakeAdminRepo{byEmail: map[string]*domain.AdminAccount{account.Email: account}}

	service, _ := newAuthEnv(t, admins, &fakeCustomerRepo{}, &fakeRoleRepo{})

	if _, _, err := service.LoginAdmin(context.Background(), account.Email, "sturdy-pass-1", "ip"); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestLoginAdminStoreUnavailable(t *testing.T) {
	admins := &fakeAdminRepo{err: errors.New("connection refused")}

	service, _ := newAuthEnv(t, admins, &fakeCustomerRepo{}, &fakeRoleRepo{})

	_, _, err := service.LoginAdmin(context.Background(), "boss@dealership.example", "pass", "ip")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestResolveAdminErrors(t *testing.T) {
	admins := &fakeAdminRepo{}
	service, codec := newAuthEnv(t, admins, &fakeCustomerRepo{}, &fakeRoleRepo{})

	if _, err := service.ResolveAdmin(context.Background(), ""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	if _, err := service.ResolveAdmin(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	expired, err := security.NewSessionClaims(security.SessionClaimsOptions{
		SubjectID: "admin-1",
		Kind:      "admin",
		Role:      "admin",
		TTL:       time.Minute,
		IssuedAt:  time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to build claims: %v", err)
	}
	expiredToken, err := codec.Sign(expired)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if _, err := service.ResolveAdmin(context.Background(), expiredToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	customer, err := security.NewSessionClaims(security.SessionClaimsOptions{
		SubjectID: "cust-1",
		Kind:      "customer",
		TTL:       time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build claims: %v", err)
	}
	customerToken, err := codec.Sign(customer)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if _, err := service.ResolveAdmin(context.Background(), customerToken); !errors.Is(err, ErrWrongPrincipalKind) {
		t.Fatalf("expected ErrWrongPrincipalKind, got %v", err)
	}
}

func TestResolveCustomerIgnoresRoleLookups(t *testing.T) {
	// Customer resolution must not touch the role store at all.
	roles := &fakeRoleRepo{err: errors.New("role store down")}
	service, codec := newAuthEnv(t, &fakeAdminRepo{}, &fakeCustomerRepo{}, roles)

	claims, err := security.NewSessionClaims(security.SessionClaimsOptions{
		SubjectID: "cust-1",
		Kind:      "customer",
		Email:     "buyer@example.com",
		TTL:       time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build claims: %v", err)
	}
	token, err := codec.Sign(claims)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	principal, err := service.ResolveCustomer(context.Background(), token)
	if err != nil {
		t.Fatalf("expected customer resolution to succeed, got %v", err)
	}
	if principal.Kind != domain.PrincipalKindCustomer || principal.Role != "" {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestLoginCustomerLowercasesEmail(t *testing.T) {
	hash, err := security.HashPassword("sturdy-pass-1")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	customers := &fakeCustomerRepo{byEmail: map[string]*domain.CustomerAccount{
		"buyer@example.com": {
			ID:           "cust-1",
			Email:        "buyer@example.com",
			Name:         "Buyer",
			PasswordHash: hash,
			IsActive:     true,
		},
	}}

	service, _ := newAuthEnv(t, &fakeAdminRepo{}, customers, &fakeRoleRepo{})

	_, principal, err := service.LoginCustomer(context.Background(), "  BUYER@example.com ", "sturdy-pass-1", "ip")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if !strings.EqualFold(principal.Email, "buyer@example.com") {
		t.Fatalf("unexpected principal email %q", principal.Email)
	}
}
