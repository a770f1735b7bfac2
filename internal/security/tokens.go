package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed or invalid.
var ErrInvalidToken = errors.New("invalid token")

// Principal kinds carried in JWT claims. A platform admin manages tenants;
// a tenant admin manages its own companies, branches, and agents.
const (
	PrincipalPlatformAdmin = "platform_admin"
	PrincipalTenant        = "tenant"
)

// Claims holds JWT claims for both access and refresh tokens. Kind is the
// principal kind; Subject is the principal's numeric id as a string. Refresh
// tokens additionally carry Refresh=true so the two cannot be swapped.
type Claims struct {
	jwt.RegisteredClaims
	Kind    string `json:"kind"`
	Refresh bool   `json:"refresh,omitempty"`
}

// TokenProvider issues and validates JWT access and refresh tokens using RS256 or ES256.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private key (RS256 or ES256).
// issuer and audience are set on claims and validated on every parse.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access JWT for the given principal.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(kind, subject string) (token string, expiresAt time.Time, err error) {
	return p.issue(kind, subject, false, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT for the given principal.
func (p *TokenProvider) IssueRefresh(kind, subject string) (token string, expiresAt time.Time, err error) {
	return p.issue(kind, subject, true, p.refreshTTL)
}

func (p *TokenProvider) issue(kind, subject string, refresh bool, ttl time.Duration) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:    kind,
		Refresh: refresh,
	}
	token, err := p.sign(claims)
	return token, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// ValidateAccess parses and validates an access token (signature, exp, iss, aud).
// Returns the principal kind and subject, or ErrInvalidToken. Refresh tokens are rejected.
func (p *TokenProvider) ValidateAccess(tokenString string) (kind, subject string, err error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return "", "", err
	}
	if claims.Refresh {
		return "", "", ErrInvalidToken
	}
	return claims.Kind, claims.Subject, nil
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss, aud).
// Returns the principal kind and subject, or ErrInvalidToken. Access tokens are rejected.
func (p *TokenProvider) ValidateRefresh(tokenString string) (kind, subject string, err error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return "", "", err
	}
	if !claims.Refresh {
		return "", "", ErrInvalidToken
	}
	return claims.Kind, claims.Subject, nil
}

func (p *TokenProvider) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	if claims.Kind != PrincipalPlatformAdmin && claims.Kind != PrincipalTenant {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
