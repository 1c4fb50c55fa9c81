package ports

import (
	"github.com/layer-3/webauth/core"
	"github.com/stellar/go/xdr"
)

// TokenIssuer converts between validated entries and bearer tokens
type TokenIssuer interface {
	// Issue mints a token from the identity proven by a validated entry
	Issue(entry xdr.SorobanAuthorizationEntry) (*core.Token, error)

	// Verify parses a token previously issued by Issue
	Verify(token string) (*core.Claims, error)
}
