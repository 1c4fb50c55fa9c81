package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/webauth/core"
	"github.com/layer-3/webauth/service"
)

// claimsKey is the gin context key holding the verified token claims
const claimsKey = "claims"

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

type challengeRequest struct {
	Account      string `json:"account" form:"account" binding:"required"`
	HomeDomain   string `json:"home_domain" form:"home_domain"`
	Memo         string `json:"memo" form:"memo"`
	ClientDomain string `json:"client_domain" form:"client_domain"`
}

type validationRequest struct {
	AuthorizationEntry string `json:"authorization_entry" binding:"required"`
	ServerSignature    string `json:"server_signature" binding:"required"`
	Credentials        string `json:"credentials" binding:"required"`
}

// ChallengeQuery handles GET /auth with the request in the query string
func (h *AuthHandlers) ChallengeQuery(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": core.KindInvalidRequest})
		return
	}
	h.challenge(c, req)
}

// Challenge handles POST /auth/challenge with a JSON body
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": core.KindInvalidRequest})
		return
	}
	h.challenge(c, req)
}

func (h *AuthHandlers) challenge(c *gin.Context, req challengeRequest) {
	resp, err := h.authService.CreateChallenge(c.Request.Context(), core.ChallengeRequest{
		Account:      req.Account,
		HomeDomain:   req.HomeDomain,
		Memo:         req.Memo,
		ClientDomain: req.ClientDomain,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorization_entry": resp.AuthorizationEntry,
		"server_signature":    resp.ServerSignature,
	})
}

// Validate handles POST /auth, exchanging a counter-signed challenge for a token
func (h *AuthHandlers) Validate(c *gin.Context) {
	var req validationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": core.KindInvalidRequest})
		return
	}

	resp, err := h.authService.ValidateChallenge(c.Request.Context(), core.ValidationRequest{
		AuthorizationEntry: req.AuthorizationEntry,
		ServerSignature:    req.ServerSignature,
		Credentials:        req.Credentials,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": resp.Token})
}

// Me returns the identity carried by the caller's token
func (h *AuthHandlers) Me(c *gin.Context) {
	// Claims are set by the auth middleware
	value, exists := c.Get(claimsKey)
	claims, ok := value.(*core.Claims)
	if !exists || !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Claims not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":         claims.Subject,
		"home_domain":     claims.HomeDomain,
		"client_domain":   claims.ClientDomain,
		"web_auth_domain": claims.WebAuthDomain,
		"expires_at":      claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// StatusFor maps a protocol error onto an HTTP status code
func StatusFor(err error) int {
	var e *core.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case core.KindDecode, core.KindInvalidRequest, core.KindInvalidCredentials:
		return http.StatusBadRequest
	case core.KindSignatureMismatch, core.KindSimulationRejected:
		return http.StatusUnauthorized
	case core.KindAccountLookup, core.KindSimulationTransport:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	// Upstream and internal details stay in the server logs
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": core.KindOf(err)})
}
