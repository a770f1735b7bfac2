// Package middleware carries the HTTP middleware chain: request ids,
// recovery, logging, tracing, and the two authentication schemes (agent
// bearer tokens and principal JWTs).
package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	agentdomain "prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/server/httpjson"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type contextKey int

const (
	ctxKeyRequestID contextKey = iota
	ctxKeyAgent
	ctxKeyPrincipal
)

// Principal is the authenticated JWT subject attached to the request context.
type Principal struct {
	Kind string
	ID   int64
}

// RequestID attaches a request id, honoring an inbound X-Request-ID if the
// proxy set one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom returns the request id, or "" outside the middleware chain.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// Recover converts panics into 500s so one bad request cannot take the
// process down.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpjson.Error(w, http.StatusInternalServerError, errors.New("panic"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging writes one line per request with method, path, status, duration,
// and request id.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s rid=%s",
			r.Method, r.URL.Path, rec.status, time.Since(start), RequestIDFrom(r.Context()))
	})
}

// Tracing opens a server span per request.
func Tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("prismtrack/backend/internal/server")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AgentAuthenticator resolves an agent bearer token.
type AgentAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*agentdomain.Agent, error)
}

// AgentAuth authenticates agent calls by the X-Agent-Token header and
// attaches the agent to the context. Missing or unknown tokens answer 401.
func AgentAuth(agents AgentAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Agent-Token")
			a, err := agents.Authenticate(r.Context(), token)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, errors.New("invalid agent token"))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyAgent, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AgentFrom returns the authenticated agent, or nil outside AgentAuth.
func AgentFrom(ctx context.Context) *agentdomain.Agent {
	a, _ := ctx.Value(ctxKeyAgent).(*agentdomain.Agent)
	return a
}

// AccessValidator validates an access token and returns the principal kind
// and subject.
type AccessValidator interface {
	ValidateAccess(token string) (kind, subject string, err error)
}

// JWTAuth authenticates bearer JWTs. kinds restricts which principal kinds
// may pass; empty means any authenticated principal.
func JWTAuth(tokens AccessValidator, kinds ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				httpjson.Error(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}
			kind, subject, err := tokens.ValidateAccess(raw)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, errors.New("invalid token"))
				return
			}
			if len(allowed) > 0 && !allowed[kind] {
				httpjson.Error(w, http.StatusForbidden, errors.New("insufficient privileges"))
				return
			}
			id, err := strconv.ParseInt(subject, 10, 64)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, errors.New("invalid token"))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPrincipal, &Principal{Kind: kind, ID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the authenticated principal, or nil outside JWTAuth.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKeyPrincipal).(*Principal)
	return p
}

// Chain applies middlewares left to right: the first listed is outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
