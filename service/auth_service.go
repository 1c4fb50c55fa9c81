package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/layer-3/webauth/core"
	"github.com/layer-3/webauth/ports"
)

// Settings are the protocol parameters of the service
type Settings struct {
	Contract      string // C... address of the web auth contract
	WebAuthDomain string // Optional
}

// AuthService handles authentication business logic
type AuthService struct {
	generator *ChallengeGenerator
	validator *ChallengeValidator
	tokenizer ports.TokenIssuer
	eventPub  ports.EventPublisher
	logger    log.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	settings Settings,
	gateway ports.LedgerGateway,
	signer ports.Signer,
	tokenizer ports.TokenIssuer,
	eventPub ports.EventPublisher,
	logger log.Logger,
) (*AuthService, error) {
	builder, err := NewTxBuilder(settings.Contract)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction builder: %w", err)
	}

	return &AuthService{
		generator: NewChallengeGenerator(gateway, signer, builder, settings.WebAuthDomain, logger),
		validator: NewChallengeValidator(gateway, signer, builder, tokenizer, logger),
		tokenizer: tokenizer,
		eventPub:  eventPub,
		logger:    logger,
	}, nil
}

// CreateChallenge generates a new authentication challenge
func (s *AuthService) CreateChallenge(ctx context.Context, req core.ChallengeRequest) (*core.ChallengeResponse, error) {
	resp, err := s.generator.CreateChallenge(ctx, req)
	if err != nil {
		s.logger.Warn("Failed to create challenge", "account", req.Account, "kind", core.KindOf(err), "err", err)
		return nil, err
	}
	return resp, nil
}

// ValidateChallenge authenticates a client using its counter-signed challenge
func (s *AuthService) ValidateChallenge(ctx context.Context, req core.ValidationRequest) (*core.ValidationResponse, error) {
	token, err := s.validator.ValidateChallenge(ctx, req)
	if err != nil {
		kind := core.KindOf(err)
		s.logger.Warn("Challenge validation failed", "kind", kind, "err", err)

		// Forgeries and rejected signatures are what observers care about
		if kind == core.KindSignatureMismatch || kind == core.KindSimulationRejected {
			if pubErr := s.eventPub.PublishRejected(ctx, string(kind), err.Error()); pubErr != nil {
				s.logger.Warn("Failed to publish rejection event", "err", pubErr)
			}
		}
		return nil, err
	}

	// The token is already issued, publishing is best effort
	if err := s.eventPub.PublishAuthenticated(ctx, token.Identity.Subject(), token.Identity.ClientDomain, token.ID); err != nil {
		s.logger.Warn("Failed to publish authentication event", "subject", token.Identity.Subject(), "err", err)
	}

	return &core.ValidationResponse{Token: token.Value}, nil
}

// ValidateAccessToken verifies a bearer token issued by ValidateChallenge
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Claims, error) {
	claims, err := s.tokenizer.Verify(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	return claims, nil
}
