package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	agentdomain "prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/security"
)

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if seen == "" {
		t.Error("no request id attached")
	}
	if got := w.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("header id %q != context id %q", got, seen)
	}

	// Inbound id is honored.
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "rid-from-proxy")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "rid-from-proxy" {
		t.Errorf("inbound id not honored: %q", seen)
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

type stubAgentAuth struct {
	agent *agentdomain.Agent
}

func (s stubAgentAuth) Authenticate(_ context.Context, token string) (*agentdomain.Agent, error) {
	if s.agent != nil && token == s.agent.AgentToken {
		return s.agent, nil
	}
	return nil, errors.New("invalid agent token")
}

func TestAgentAuth(t *testing.T) {
	agent := &agentdomain.Agent{ID: 7, AgentToken: "tok-7"}
	var got *agentdomain.Agent
	h := AgentAuth(stubAgentAuth{agent})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = AgentFrom(r.Context())
	}))

	r := httptest.NewRequest("POST", "/heartbeat", nil)
	r.Header.Set("X-Agent-Token", "tok-7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK || got == nil || got.ID != 7 {
		t.Errorf("valid token rejected: status %d", w.Code)
	}

	for _, token := range []string{"", "wrong"} {
		r := httptest.NewRequest("POST", "/heartbeat", nil)
		if token != "" {
			r.Header.Set("X-Agent-Token", token)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, w.Code)
		}
	}
}

func TestJWTAuth(t *testing.T) {
	tp, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	adminToken, _, err := tp.IssueAccess(security.PrincipalPlatformAdmin, "1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tenantToken, _, err := tp.IssueAccess(security.PrincipalTenant, "10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	refreshToken, _, err := tp.IssueRefresh(security.PrincipalPlatformAdmin, "1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	var got *Principal
	h := JWTAuth(tp, security.PrincipalPlatformAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFrom(r.Context())
	}))

	serve := func(authz string) int {
		r := httptest.NewRequest("GET", "/agents", nil)
		if authz != "" {
			r.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	if code := serve("Bearer " + adminToken); code != http.StatusOK {
		t.Errorf("admin token: status = %d, want 200", code)
	}
	if got == nil || got.Kind != security.PrincipalPlatformAdmin || got.ID != 1 {
		t.Errorf("principal = %+v", got)
	}
	if code := serve("Bearer " + tenantToken); code != http.StatusForbidden {
		t.Errorf("wrong-kind token: status = %d, want 403", code)
	}
	// A refresh token is not an access token.
	if code := serve("Bearer " + refreshToken); code != http.StatusUnauthorized {
		t.Errorf("refresh token: status = %d, want 401", code)
	}
	if code := serve(""); code != http.StatusUnauthorized {
		t.Errorf("no header: status = %d, want 401", code)
	}
	if code := serve(adminToken); code != http.StatusUnauthorized {
		t.Errorf("missing Bearer prefix: status = %d, want 401", code)
	}
	if code := serve("Bearer garbage"); code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", code)
	}
}
