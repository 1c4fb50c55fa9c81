package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the domains the client
// authenticated for
type AccessClaims struct {
	jwt.RegisteredClaims
	HomeDomain    string `json:"home_domain,omitempty"`
	ClientDomain  string `json:"client_domain,omitempty"`
	WebAuthDomain string `json:"web_auth_domain,omitempty"`
}
