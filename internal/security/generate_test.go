package security

import (
	"strings"
	"testing"
)

func TestNewAgentToken(t *testing.T) {
	tok, err := NewAgentToken(32)
	if err != nil {
		t.Fatalf("NewAgentToken: %v", err)
	}
	if len(tok) != 64 { // hex doubles the byte count
		t.Errorf("token length = %d, want 64", len(tok))
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewAgentToken(32)
		if err != nil {
			t.Fatalf("NewAgentToken: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = true
	}
}

func TestNewAgentToken_MinimumLength(t *testing.T) {
	tok, err := NewAgentToken(1)
	if err != nil {
		t.Fatalf("NewAgentToken: %v", err)
	}
	if len(tok) < 32 {
		t.Errorf("token length = %d, want at least 32 hex chars", len(tok))
	}
}

func TestNewOrgID(t *testing.T) {
	lengths := make(map[int]bool)
	for i := 0; i < 200; i++ {
		id, err := NewOrgID()
		if err != nil {
			t.Fatalf("NewOrgID: %v", err)
		}
		if len(id) < OrgIDMinLen || len(id) > OrgIDMaxLen {
			t.Fatalf("org id %q length %d outside [%d, %d]", id, len(id), OrgIDMinLen, OrgIDMaxLen)
		}
		for _, c := range id {
			if !strings.ContainsRune(orgIDChars, c) {
				t.Fatalf("org id %q contains invalid char %q", id, c)
			}
		}
		lengths[len(id)] = true
	}
	if len(lengths) < 2 {
		t.Error("org id lengths should vary across the allowed range")
	}
}
