// Package auth issues and refreshes JWT pairs for platform admins and tenant
// admins. Credential checks are constant-shape: a missing account and a wrong
// password produce the same error.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	admindomain "prismtrack/backend/internal/admin/domain"
	"prismtrack/backend/internal/events"
	"prismtrack/backend/internal/security"
	tenantdomain "prismtrack/backend/internal/tenant/domain"
)

// ErrInvalidCredentials covers every login failure: unknown account,
// deactivated account, wrong password. The caller learns nothing else.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminRepo is the slice of the platform-admin repository auth needs.
type AdminRepo interface {
	GetByID(ctx context.Context, id int64) (*admindomain.PlatformAdmin, error)
	GetByLogin(ctx context.Context, login string) (*admindomain.PlatformAdmin, error)
}

// TenantRepo is the slice of the tenant repository auth needs.
type TenantRepo interface {
	GetByID(ctx context.Context, id int64) (*tenantdomain.Tenant, error)
	GetByAdminEmail(ctx context.Context, email string) (*tenantdomain.Tenant, error)
}

// TokenPair is an access/refresh pair with the access expiry.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Service implements logins and refresh.
type Service struct {
	admins  AdminRepo
	tenants TenantRepo
	hasher  *security.Hasher
	tokens  *security.TokenProvider
	emitter events.Emitter
}

// NewService returns an auth service.
func NewService(admins AdminRepo, tenants TenantRepo, hasher *security.Hasher, tokens *security.TokenProvider, emitter events.Emitter) *Service {
	return &Service{admins: admins, tenants: tenants, hasher: hasher, tokens: tokens, emitter: emitter}
}

// AdminLogin authenticates a platform admin by username or email.
func (s *Service) AdminLogin(ctx context.Context, login, password string) (*TokenPair, *admindomain.PlatformAdmin, error) {
	admin, err := s.admins.GetByLogin(ctx, login)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup platform admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(admin.PasswordHash, []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.issuePair(security.PrincipalPlatformAdmin, admin.ID)
	if err != nil {
		return nil, nil, err
	}
	events.EmitAsync(s.emitter, events.Event{
		Type: events.TypeAdminLoginSucceeded,
		Data: map[string]any{"admin_id": admin.ID},
	})
	return pair, admin, nil
}

// TenantLogin authenticates a tenant admin by the tenant's admin email.
func (s *Service) TenantLogin(ctx context.Context, email, password string) (*TokenPair, *tenantdomain.Tenant, error) {
	tenant, err := s.tenants.GetByAdminEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup tenant by admin email: %w", err)
	}
	if tenant == nil || !tenant.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(tenant.AdminPasswordHash, []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.issuePair(security.PrincipalTenant, tenant.ID)
	if err != nil {
		return nil, nil, err
	}
	events.EmitAsync(s.emitter, events.Event{
		Type:  events.TypeTenantLoginSucceeded,
		OrgID: tenant.OrgID,
		Data:  map[string]any{"tenant_id": tenant.ID},
	})
	return pair, tenant, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The principal
// must still exist and be active; a deactivated account cannot refresh its
// way back in.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	kind, subject, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	switch kind {
	case security.PrincipalPlatformAdmin:
		admin, err := s.admins.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup platform admin: %w", err)
		}
		if admin == nil || !admin.IsActive {
			return nil, ErrInvalidCredentials
		}
	case security.PrincipalTenant:
		tenant, err := s.tenants.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup tenant: %w", err)
		}
		if tenant == nil || !tenant.IsActive {
			return nil, ErrInvalidCredentials
		}
	default:
		return nil, ErrInvalidCredentials
	}
	return s.issuePair(kind, id)
}

func (s *Service) issuePair(kind string, id int64) (*TokenPair, error) {
	subject := strconv.FormatInt(id, 10)
	access, expiresAt, err := s.tokens.IssueAccess(kind, subject)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, _, err := s.tokens.IssueRefresh(kind, subject)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}
