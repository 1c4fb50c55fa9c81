package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/webauth/core"
	"github.com/stellar/go/xdr"
)

const AudienceAccess = "webauth:access"

// DefaultTTL is the lifetime of issued tokens when none is configured
const DefaultTTL = time.Hour

// JWTTokenizer implements the TokenIssuer interface using ES256 JWTs
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	issuer  string
	ttl     time.Duration
	now     func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, issuer string, ttl time.Duration) *JWTTokenizer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTTokenizer{
		signKey: signKey,
		issuer:  issuer,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue converts a validated authorization entry into an access token. The
// token depends only on the identity the entry proves and on server claims.
func (j *JWTTokenizer) Issue(entry xdr.SorobanAuthorizationEntry) (*core.Token, error) {
	identity, err := core.IdentityFromEntry(entry)
	if err != nil {
		return nil, core.NewError(core.KindTokenIssuance, "entry carries no identity", err)
	}

	now := j.now()
	id := uuid.New().String()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   identity.Subject(),
			ID:        id,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		HomeDomain:    identity.HomeDomain,
		ClientDomain:  identity.ClientDomain,
		WebAuthDomain: identity.WebAuthDomain,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return nil, core.NewError(core.KindTokenIssuance, "failed to sign access token", err)
	}

	return &core.Token{
		Value:     signedToken,
		ID:        id,
		Identity:  identity,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify parses an access token and returns its claims
func (j *JWTTokenizer) Verify(tokenStr string) (*core.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	},
		jwt.WithAudience(AudienceAccess),
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", errors.Join(core.ErrInvalidToken, err))
	}

	// Validate token
	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	// Extract claims
	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	return &core.Claims{
		ID:            claims.ID,
		Subject:       claims.Subject,
		Issuer:        claims.Issuer,
		HomeDomain:    claims.HomeDomain,
		ClientDomain:  claims.ClientDomain,
		WebAuthDomain: claims.WebAuthDomain,
		IssuedAt:      claims.IssuedAt.Time,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}
