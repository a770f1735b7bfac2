package security

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// Org id length bounds and charset. Ids are short so admins can read them off
// an installer dialog; uniqueness across tenants, companies, and branches is
// enforced by the org_registry table, not by length.
const (
	OrgIDMinLen = 5
	OrgIDMaxLen = 8

	orgIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewAgentToken returns a new random agent bearer token: n random bytes,
// hex-encoded. n below 16 is raised to 16.
func NewAgentToken(n int) (string, error) {
	if n < 16 {
		n = 16
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewAPIKey returns a tenant admin API key, same shape as an agent token.
func NewAPIKey() (string, error) {
	return NewAgentToken(32)
}

// NewOrgID returns a random uppercase-alphanumeric org id with a length
// between OrgIDMinLen and OrgIDMaxLen. The caller is responsible for the
// uniqueness check against persisted ids (collisions are possible and must
// be retried).
func NewOrgID() (string, error) {
	span := int64(OrgIDMaxLen - OrgIDMinLen + 1)
	nBig, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}
	length := OrgIDMinLen + int(nBig.Int64())

	out := make([]byte, length)
	max := big.NewInt(int64(len(orgIDChars)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = orgIDChars[idx.Int64()]
	}
	return string(out), nil
}
