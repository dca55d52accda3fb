// Package identity decodes the caller identity that the fronting auth proxy
// injects as the x-ms-client-principal header: a base64-encoded JSON document
// describing the authenticated user and their claims.
package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Header is the request header carrying the encoded principal.
const Header = "x-ms-client-principal"

// Claim type URIs vary by upstream identity provider. The short names are
// emitted by OIDC-style providers; the xmlsoap URIs by older federation
// gateways. Both are honoured.
const (
	claimEmail       = "email"
	claimEmailLegacy = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimName        = "name"
	claimNameLegacy  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

var (
	// ErrNoPrincipal indicates the header was absent or empty.
	ErrNoPrincipal = errors.New("no client principal present")

	// ErrMalformedPrincipal indicates the header was present but could not
	// be decoded. Callers treat this the same as an unauthenticated request
	// rather than leaking decode details to the client.
	ErrMalformedPrincipal = errors.New("malformed client principal")
)

// Claim is a single typed assertion about the user.
type Claim struct {
	Type  string `json:"typ"`
	Value string `json:"val"`
}

// Principal is the decoded identity document.
type Principal struct {
	IdentityProvider string  `json:"identityProvider"`
	UserID           string  `json:"userId"`
	UserDetails      string  `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
	Claims           []Claim `json:"claims"`
}

// Decode parses the raw header value into a Principal. An empty value yields
// ErrNoPrincipal; invalid base64, invalid JSON, or a document without a user
// ID yields ErrMalformedPrincipal.
func Decode(raw string) (*Principal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoPrincipal
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some proxies emit unpadded URL-safe base64.
		decoded, err = base64.RawURLEncoding.DecodeString(raw)
		if err != nil {
			return nil, ErrMalformedPrincipal
		}
	}

	var p Principal
	if err := json.Unmarshal(decoded, &p); err != nil {
		return nil, ErrMalformedPrincipal
	}
	if p.UserID == "" {
		return nil, ErrMalformedPrincipal
	}
	return &p, nil
}

// claim returns the value of the first claim matching any of the given types.
func (p *Principal) claim(types ...string) string {
	for _, c := range p.Claims {
		for _, t := range types {
			if c.Type == t {
				return c.Value
			}
		}
	}
	return ""
}

// Email returns the user's email address, falling back to UserDetails when
// no email claim is present (many providers put the email there).
func (p *Principal) Email() string {
	if v := p.claim(claimEmail, claimEmailLegacy); v != "" {
		return v
	}
	return p.UserDetails
}

// Name returns the user's display name, or empty when no name claim exists.
func (p *Principal) Name() string {
	return p.claim(claimName, claimNameLegacy)
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.UserRoles {
		if r == role {
			return true
		}
	}
	return false
}
