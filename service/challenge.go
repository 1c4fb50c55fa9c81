package service

import (
	"context"
	"encoding/base64"

	"github.com/ethereum/go-ethereum/log"
	"github.com/layer-3/webauth/core"
	"github.com/layer-3/webauth/ports"
	"github.com/stellar/go/xdr"
)

// ChallengeGenerator issues server-signed challenges
type ChallengeGenerator struct {
	gateway       ports.LedgerGateway
	signer        ports.Signer
	builder       *TxBuilder
	webAuthDomain string
	logger        log.Logger
}

// NewChallengeGenerator creates a new challenge generator
func NewChallengeGenerator(gateway ports.LedgerGateway, signer ports.Signer, builder *TxBuilder, webAuthDomain string, logger log.Logger) *ChallengeGenerator {
	return &ChallengeGenerator{
		gateway:       gateway,
		signer:        signer,
		builder:       builder,
		webAuthDomain: webAuthDomain,
		logger:        logger,
	}
}

// CreateChallenge simulates an invocation of the web auth contract on behalf
// of the server account and returns the authorization entry the client has to
// sign, together with the server's signature over it.
func (g *ChallengeGenerator) CreateChallenge(ctx context.Context, req core.ChallengeRequest) (*core.ChallengeResponse, error) {
	if !core.ValidAddress(req.Account) {
		return nil, core.NewError(core.KindInvalidRequest, "invalid account "+req.Account, nil)
	}

	// The server account is always the source, never the client's
	source, err := g.gateway.FetchAccount(ctx, g.signer.Address())
	if err != nil {
		return nil, withKind(err, core.KindAccountLookup, "unable to fetch account")
	}

	args := core.ChallengeArgs(req, g.webAuthDomain)
	tx, err := g.builder.BuildInvocation(source, []xdr.ScVal{core.ArgsToScVal(args)})
	if err != nil {
		return nil, err
	}

	sim, err := g.gateway.Simulate(ctx, tx)
	if err != nil {
		return nil, withKind(err, core.KindSimulationTransport, "error simulating transaction")
	}
	if sim.Error != "" {
		return nil, core.NewError(core.KindEmptyAuthorization, "ledger rejected the challenge invocation: "+sim.Error, nil)
	}
	if len(sim.Auth) == 0 {
		return nil, core.NewError(core.KindEmptyAuthorization, "simulation produced no authorization", nil)
	}
	g.logger.Debug("Simulated challenge", "account", req.Account, "fee", sim.MinResourceFee, "ledger", sim.LatestLedger)

	// Only the client's entry is returned; the server's own source account
	// authorization is implicit.
	raw, err := core.EntryBytes(sim.Auth[0])
	if err != nil {
		return nil, core.NewError(core.KindSigning, "unable to encode authorization entry", err)
	}
	sig, err := g.signer.Sign(raw)
	if err != nil {
		return nil, withKind(err, core.KindSigning, "unable to sign authorization entry")
	}

	g.logger.Debug("Created challenge", "account", req.Account, "home_domain", req.HomeDomain, "client_domain", req.ClientDomain)

	return &core.ChallengeResponse{
		AuthorizationEntry: base64.StdEncoding.EncodeToString(raw),
		ServerSignature:    core.EncodeSignature(sig),
	}, nil
}

// withKind keeps err's protocol kind if it has one and otherwise wraps it
// under kind.
func withKind(err error, kind core.Kind, msg string) error {
	if core.KindOf(err) != "" {
		return err
	}
	return core.NewError(kind, msg, err)
}
