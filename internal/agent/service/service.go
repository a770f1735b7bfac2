// Package service implements agent lifecycle: registration, heartbeat
// liveness, and fleet reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/agent/repository"
	"prismtrack/backend/internal/db"
	"prismtrack/backend/internal/events"
	"prismtrack/backend/internal/hierarchy"
	hierarchydomain "prismtrack/backend/internal/hierarchy/domain"
	"prismtrack/backend/internal/security"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	// ErrOrgNotFound means the registration named an unknown or inactive org id.
	ErrOrgNotFound = errors.New("org id not found or inactive")
	// ErrInvalidToken means no agent carries the presented token.
	ErrInvalidToken = errors.New("invalid agent token")
	// ErrNotFound means the agent id does not exist.
	ErrNotFound = errors.New("agent not found")
)

// tokenMintAttempts bounds retries when a freshly minted token collides with
// an existing one. With 32 random bytes a collision means a broken RNG, but
// the constraint is there and the loop honors it.
const tokenMintAttempts = 5

// Resolver maps an org id to its kind in the tenancy tree.
type Resolver interface {
	Resolve(ctx context.Context, orgID string) (hierarchydomain.OrgKind, error)
}

// RegisterInput is a registration request after transport decoding.
type RegisterInput struct {
	OrgID        string
	MachineName  string
	HardwareUUID string
}

// RegisterResult reports the registration outcome. Created distinguishes a
// first registration from an idempotent re-registration of known hardware.
type RegisterResult struct {
	Agent   *domain.Agent
	Created bool
}

// HeartbeatInput is a heartbeat after transport decoding. Status is optional;
// empty or unparseable values default to ONLINE.
type HeartbeatInput struct {
	Token  string
	Status string
}

// Service carries agent registration and liveness logic.
type Service struct {
	agents     repository.Repository
	hierarchy  Resolver
	emitter    events.Emitter
	tokenBytes int
	staleAfter time.Duration
	now        func() time.Time
}

// NewService returns an agent service. tokenBytes is the size of minted agent
// tokens before hex encoding; staleAfter is the silence window after which an
// agent is reported stale.
func NewService(agents repository.Repository, resolver Resolver, emitter events.Emitter, tokenBytes int, staleAfter time.Duration) *Service {
	return &Service{
		agents:     agents,
		hierarchy:  resolver,
		emitter:    emitter,
		tokenBytes: tokenBytes,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Register registers the machine under the given org scope, or refreshes the
// registration if the hardware uuid is already known. The agent token is
// minted exactly once, on first registration; a re-registration returns the
// original token so a reinstalled agent binary keeps its identity.
//
// Two agents registering the same new hardware uuid concurrently both
// succeed: the loser of the insert race is re-routed to the update path and
// receives the winner's token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	kind, err := s.hierarchy.Resolve(ctx, in.OrgID)
	if err != nil {
		if errors.Is(err, hierarchy.ErrOrgNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("resolve org id: %w", err)
	}

	now := s.now().UTC()

	existing, err := s.agents.GetByHardwareUUID(ctx, in.HardwareUUID)
	if err != nil {
		return nil, fmt.Errorf("lookup agent by hardware uuid: %w", err)
	}
	if existing != nil {
		return s.refresh(ctx, existing, in, kind, now)
	}

	for attempt := 0; attempt < tokenMintAttempts; attempt++ {
		token, err := security.NewAgentToken(s.tokenBytes)
		if err != nil {
			return nil, fmt.Errorf("mint agent token: %w", err)
		}
		a := &domain.Agent{
			OrgID:        in.OrgID,
			OrgKind:      kind,
			MachineName:  in.MachineName,
			HardwareUUID: in.HardwareUUID,
			AgentToken:   token,
			Status:       domain.StatusOnline,
			LastSeen:     now,
		}
		err = s.agents.Create(ctx, a)
		if err == nil {
			s.emit(events.TypeAgentRegistered, a.OrgID, map[string]any{
				"agent_id":     a.ID,
				"machine_name": a.MachineName,
			})
			return &RegisterResult{Agent: a, Created: true}, nil
		}
		if db.IsUniqueViolation(err, "agents_agent_token_key") {
			log.Printf("agent token collision on mint, retrying (attempt %d)", attempt+1)
			continue
		}
		if db.IsUniqueViolation(err, "agents_hardware_uuid_key") {
			// Lost the insert race for this hardware uuid. The row now
			// exists; fall back to the update path.
			winner, lookErr := s.agents.GetByHardwareUUID(ctx, in.HardwareUUID)
			if lookErr != nil {
				return nil, fmt.Errorf("lookup agent after insert race: %w", lookErr)
			}
			if winner == nil {
				return nil, fmt.Errorf("agent vanished after insert race for hardware uuid %s", in.HardwareUUID)
			}
			return s.refresh(ctx, winner, in, kind, now)
		}
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return nil, errors.New("could not mint a unique agent token")
}

// refresh is the update half of registration: scope and machine name follow
// the latest request, the token never changes.
func (s *Service) refresh(ctx context.Context, a *domain.Agent, in RegisterInput, kind hierarchydomain.OrgKind, now time.Time) (*RegisterResult, error) {
	a.OrgID = in.OrgID
	a.OrgKind = kind
	a.MachineName = in.MachineName
	a.Status = domain.StatusOnline
	a.LastSeen = now
	if err := s.agents.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update agent registration: %w", err)
	}
	s.emit(events.TypeAgentReregistered, a.OrgID, map[string]any{
		"agent_id":     a.ID,
		"machine_name": a.MachineName,
	})
	return &RegisterResult{Agent: a, Created: false}, nil
}

// Heartbeat records liveness for the agent holding the token. An absent
// status is recorded as ONLINE, the agent was plainly alive enough to call; a
// present status must be a valid AgentStatus or the call fails with
// domain.ErrUnknownStatus.
func (s *Service) Heartbeat(ctx context.Context, in HeartbeatInput) (*domain.Agent, error) {
	a, err := s.authenticate(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	status := domain.StatusOnline
	if in.Status != "" {
		status, err = domain.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
	}
	now := s.now().UTC()
	if err := s.agents.Touch(ctx, a.ID, now, status); err != nil {
		return nil, fmt.Errorf("record heartbeat: %w", err)
	}
	a.Status = status
	a.LastSeen = now
	s.emit(events.TypeAgentHeartbeat, a.OrgID, map[string]any{
		"agent_id": a.ID,
		"status":   string(status),
	})
	return a, nil
}

// Authenticate returns the agent holding the token, or ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Agent, error) {
	return s.authenticate(ctx, token)
}

func (s *Service) authenticate(ctx context.Context, token string) (*domain.Agent, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	a, err := s.agents.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup agent by token: %w", err)
	}
	if a == nil {
		return nil, ErrInvalidToken
	}
	return a, nil
}

// Get returns one agent by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Agent, error) {
	a, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup agent: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// List returns agents matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]*domain.Agent, int, error) {
	agents, total, err := s.agents.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list agents: %w", err)
	}
	return agents, total, nil
}

// StaleAfter exposes the configured silence window so transports can report
// derived staleness alongside the stored status.
func (s *Service) StaleAfter() time.Duration {
	return s.staleAfter
}

func (s *Service) emit(typ string, orgID string, data map[string]any) {
	events.EmitAsync(s.emitter, events.Event{
		Type:  typ,
		OrgID: orgID,
		Data:  data,
	})
}
