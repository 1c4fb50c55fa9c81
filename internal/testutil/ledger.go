package testutil

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/layer-3/webauth"
	"github.com/layer-3/webauth/core"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// Passphrase is the network the fake ledger runs
const Passphrase = network.TestNetworkPassphrase

// FakeLedger is an in-process LedgerGateway. Simulating without
// authorization entries records one address entry for the "account"
// argument, as a recording simulation does. Simulating with entries enforces
// them: the entry must match the invocation, carry a valid ed25519 signature
// of its account over the authorization payload, and not be expired.
type FakeLedger struct {
	LatestLedger uint32
	FetchErr     error
	SimulateErr  error
	// NoAuth makes recording simulations return no entries
	NoAuth bool

	mu       sync.Mutex
	accounts map[string]int64
	fetches  int
	sims     int
	nonce    atomic.Int64
}

// NewFakeLedger creates a fake ledger knowing the given accounts
func NewFakeLedger(accounts ...string) *FakeLedger {
	l := &FakeLedger{LatestLedger: 1000, accounts: make(map[string]int64)}
	for i, a := range accounts {
		l.accounts[a] = int64(100 + i)
	}
	return l
}

// Calls returns the number of FetchAccount and Simulate calls made so far
func (l *FakeLedger) Calls() (fetches, sims int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches, l.sims
}

func (l *FakeLedger) FetchAccount(ctx context.Context, address string) (*core.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetches++

	if err := ctx.Err(); err != nil {
		return nil, core.NewError(core.KindAccountLookup, "unable to fetch account", err)
	}
	if l.FetchErr != nil {
		return nil, core.NewError(core.KindAccountLookup, "unable to fetch account", l.FetchErr)
	}
	seq, ok := l.accounts[address]
	if !ok {
		return nil, core.NewError(core.KindAccountLookup, "account "+address+" not found", nil)
	}
	return &core.Account{Address: address, Sequence: seq}, nil
}

func (l *FakeLedger) Simulate(ctx context.Context, tx *txnbuild.Transaction) (*core.SimulationResult, error) {
	l.mu.Lock()
	l.sims++
	simErr := l.SimulateErr
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, core.NewError(core.KindSimulationTransport, "error simulating transaction", err)
	}
	if simErr != nil {
		return nil, core.NewError(core.KindSimulationTransport, "error simulating transaction", simErr)
	}

	ops := tx.Operations()
	if len(ops) != 1 {
		return l.reject("expected a single operation"), nil
	}
	op, ok := ops[0].(*txnbuild.InvokeHostFunction)
	if !ok || op.HostFunction.InvokeContract == nil {
		return l.reject("expected a contract invocation"), nil
	}
	call := *op.HostFunction.InvokeContract

	if len(op.Auth) == 0 {
		return l.record(call)
	}
	if err := l.enforce(call, op.Auth); err != nil {
		return l.reject("HostError: Error(Auth, InvalidAction): " + err.Error()), nil
	}
	return &core.SimulationResult{LatestLedger: l.LatestLedger}, nil
}

func (l *FakeLedger) reject(msg string) *core.SimulationResult {
	return &core.SimulationResult{Error: msg, LatestLedger: l.LatestLedger}
}

func (l *FakeLedger) record(call xdr.InvokeContractArgs) (*core.SimulationResult, error) {
	if l.NoAuth || len(call.Args) != 1 {
		return &core.SimulationResult{LatestLedger: l.LatestLedger}, nil
	}
	args, err := core.ArgsFromScVal(call.Args[0])
	if err != nil {
		return l.reject(err.Error()), nil
	}

	var account string
	for _, a := range args {
		if a.Key == core.ArgAccount {
			account = a.Value
		}
	}
	id, err := xdr.AddressToAccountId(account)
	if err != nil {
		return l.reject("account argument is not an account"), nil
	}

	entry := xdr.SorobanAuthorizationEntry{
		Credentials: xdr.SorobanCredentials{
			Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
			Address: &xdr.SorobanAddressCredentials{
				Address:   xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &id},
				Nonce:     xdr.Int64(l.nonce.Add(1)),
				Signature: xdr.ScVal{Type: xdr.ScValTypeScvVoid},
			},
		},
		RootInvocation: xdr.SorobanAuthorizedInvocation{
			Function: xdr.SorobanAuthorizedFunction{
				Type:       xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
				ContractFn: &call,
			},
		},
	}
	return &core.SimulationResult{Auth: []xdr.SorobanAuthorizationEntry{entry}, LatestLedger: l.LatestLedger}, nil
}

func (l *FakeLedger) enforce(call xdr.InvokeContractArgs, auth []xdr.SorobanAuthorizationEntry) error {
	entry := auth[0]
	fn := entry.RootInvocation.Function
	if fn.ContractFn == nil {
		return errors.New("entry authorizes no contract call")
	}

	want, err := call.MarshalBinary()
	if err != nil {
		return err
	}
	got, err := fn.ContractFn.MarshalBinary()
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return errors.New("entry does not match invocation")
	}

	if entry.Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || entry.Credentials.Address == nil {
		return errors.New("missing address credentials")
	}
	creds := *entry.Credentials.Address
	if uint32(creds.SignatureExpirationLedger) < l.LatestLedger {
		return errors.New("signature expired")
	}
	if creds.Address.AccountId == nil {
		return errors.New("not an account address")
	}

	publicKey, err := strkey.Decode(strkey.VersionByteAccountID, creds.Address.AccountId.Address())
	if err != nil {
		return err
	}
	payload, err := webauth.AuthorizationPayload(entry, creds, Passphrase)
	if err != nil {
		return err
	}
	sigs, err := webauth.AccountSignatures(creds)
	if err != nil {
		return err
	}
	for _, s := range sigs {
		if bytes.Equal(s.PublicKey, publicKey) && ed25519.Verify(ed25519.PublicKey(publicKey), payload[:], s.Signature) {
			return nil
		}
	}
	return errors.New("signature does not satisfy account policy")
}
