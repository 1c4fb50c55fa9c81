package service

import (
	"context"

	"github.com/ethereum/go-ethereum/log"
	"github.com/layer-3/webauth/core"
	"github.com/layer-3/webauth/ports"
	"github.com/stellar/go/xdr"
)

// ChallengeValidator authenticates clients from counter-signed challenges
type ChallengeValidator struct {
	gateway ports.LedgerGateway
	signer  ports.Signer
	builder *TxBuilder
	issuer  ports.TokenIssuer
	logger  log.Logger
}

// NewChallengeValidator creates a new challenge validator
func NewChallengeValidator(gateway ports.LedgerGateway, signer ports.Signer, builder *TxBuilder, issuer ports.TokenIssuer, logger log.Logger) *ChallengeValidator {
	return &ChallengeValidator{
		gateway: gateway,
		signer:  signer,
		builder: builder,
		issuer:  issuer,
		logger:  logger,
	}
}

// ValidateChallenge checks that the entry is one this server issued, swaps in
// the client's credentials and asks the ledger whether they satisfy the
// account's authorization policy. Local checks run first; a forged or altered
// challenge never reaches the ledger.
func (v *ChallengeValidator) ValidateChallenge(ctx context.Context, req core.ValidationRequest) (*core.Token, error) {
	raw, err := core.DecodeBase64(req.AuthorizationEntry)
	if err != nil {
		return nil, err
	}
	sig, err := core.DecodeSignature(req.ServerSignature)
	if err != nil {
		return nil, err
	}

	// The signature covers the exact bytes issued, so it is checked before
	// the entry is even decoded.
	if err := v.signer.Verify(raw, sig); err != nil {
		return nil, withKind(err, core.KindSignatureMismatch, "server signature does not match")
	}

	issued, err := core.UnmarshalEntry(raw)
	if err != nil {
		return nil, err
	}
	fn := issued.RootInvocation.Function
	if fn.Type != xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn || fn.ContractFn == nil {
		return nil, core.NewError(core.KindDecode, "entry does not authorize a contract call", nil)
	}

	creds, err := core.DecodeCredentials(req.Credentials)
	if err != nil {
		return nil, err
	}
	if err := matchCredentials(issued.Credentials, creds); err != nil {
		return nil, err
	}

	// Decode a second copy so the issued function and arguments are carried
	// over untouched; only the credentials differ.
	authorized, err := core.UnmarshalEntry(raw)
	if err != nil {
		return nil, err
	}
	authorized.Credentials = creds

	source, err := v.gateway.FetchAccount(ctx, v.signer.Address())
	if err != nil {
		return nil, withKind(err, core.KindAccountLookup, "unable to fetch account")
	}

	tx, err := v.builder.BuildAuthorized(source, fn.ContractFn.Args, []xdr.SorobanAuthorizationEntry{authorized})
	if err != nil {
		return nil, err
	}

	sim, err := v.gateway.Simulate(ctx, tx)
	if err != nil {
		return nil, withKind(err, core.KindSimulationTransport, "error simulating transaction")
	}
	if sim.Error != "" {
		return nil, core.NewError(core.KindSimulationRejected, "error validating credentials: "+sim.Error, nil)
	}

	token, err := v.issuer.Issue(authorized)
	if err != nil {
		return nil, withKind(err, core.KindTokenIssuance, "unable to issue token")
	}

	v.logger.Info("Credentials validated", "subject", token.Identity.Subject(), "client_domain", token.Identity.ClientDomain, "ledger", sim.LatestLedger)
	return token, nil
}

// matchCredentials requires the client's credentials to be an address
// signature for the same address and nonce the challenge was issued for.
func matchCredentials(issued, supplied xdr.SorobanCredentials) error {
	if supplied.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || supplied.Address == nil {
		return core.NewError(core.KindInvalidCredentials, "credentials must be address credentials", nil)
	}
	if issued.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || issued.Address == nil {
		return core.NewError(core.KindInvalidCredentials, "challenge does not require address credentials", nil)
	}

	want, err := issued.Address.Address.MarshalBinary()
	if err != nil {
		return core.NewError(core.KindDecode, "malformed challenge address", err)
	}
	got, err := supplied.Address.Address.MarshalBinary()
	if err != nil {
		return core.NewError(core.KindDecode, "malformed credentials address", err)
	}
	if string(want) != string(got) {
		return core.NewError(core.KindInvalidCredentials, "credentials are for a different address", nil)
	}
	if issued.Address.Nonce != supplied.Address.Nonce {
		return core.NewError(core.KindInvalidCredentials, "credentials are for a different nonce", nil)
	}
	return nil
}
