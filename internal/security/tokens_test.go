package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	access, exp, err := p.IssueAccess(PrincipalTenant, "42")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" {
		t.Fatal("access token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	kind, subject, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if kind != PrincipalTenant || subject != "42" {
		t.Errorf("ValidateAccess = (%q, %q), want (tenant, 42)", kind, subject)
	}
}

func TestTokenProvider_RefreshAndAccessNotInterchangeable(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	access, _, err := p.IssueAccess(PrincipalPlatformAdmin, "1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := p.IssueRefresh(PrincipalPlatformAdmin, "1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, _, err := p.ValidateAccess(refresh); err == nil {
		t.Error("ValidateAccess accepted a refresh token")
	}
	if _, _, err := p.ValidateRefresh(access); err == nil {
		t.Error("ValidateRefresh accepted an access token")
	}

	kind, subject, err := p.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if kind != PrincipalPlatformAdmin || subject != "1" {
		t.Errorf("ValidateRefresh = (%q, %q), want (platform_admin, 1)", kind, subject)
	}
}

func TestTokenProvider_RejectsForeignIssuer(t *testing.T) {
	p1, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	p2, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	// Signed with a different key pair: must not validate.
	token, _, err := p2.IssueAccess(PrincipalTenant, "7")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := p1.ValidateAccess(token); err == nil {
		t.Error("ValidateAccess accepted a token from another provider")
	}

	if _, _, err := p1.ValidateAccess("not-a-token"); err == nil {
		t.Error("ValidateAccess accepted garbage")
	}
}

func TestTokenProvider_RejectsUnknownPrincipalKind(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := p.IssueAccess("superuser", "1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := p.ValidateAccess(token); err == nil {
		t.Error("ValidateAccess accepted an unknown principal kind")
	}
}
