// Package domain defines the organizational hierarchy types shared across modules.
package domain

import (
	"errors"
	"fmt"
	"regexp"
)

// OrgKind is the kind of an organizational scope. Tenants are roots; companies
// belong to a tenant; branches belong to a company.
type OrgKind string

const (
	OrgKindTenant  OrgKind = "TENANT"
	OrgKindCompany OrgKind = "COMPANY"
	OrgKindBranch  OrgKind = "BRANCH"
)

// ErrUnknownOrgKind is returned by ParseOrgKind for values outside the closed set.
var ErrUnknownOrgKind = errors.New("unknown org kind")

// ParseOrgKind converts a wire string to an OrgKind. Unknown values are
// rejected rather than coerced.
func ParseOrgKind(s string) (OrgKind, error) {
	switch OrgKind(s) {
	case OrgKindTenant, OrgKindCompany, OrgKindBranch:
		return OrgKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrgKind, s)
	}
}

var orgIDPattern = regexp.MustCompile(`^[A-Z0-9]{5,8}$`)

// ValidOrgID reports whether s is a well-formed org id (5–8 uppercase
// alphanumeric characters). It says nothing about existence.
func ValidOrgID(s string) bool {
	return orgIDPattern.MatchString(s)
}
