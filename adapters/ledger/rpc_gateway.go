package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/layer-3/webauth/core"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// DefaultTimeout bounds a single RPC call. It is unrelated to the on-chain
// validity window of the transactions being simulated.
const DefaultTimeout = 10 * time.Second

// RPCGateway implements the LedgerGateway interface against a Stellar RPC node
type RPCGateway struct {
	client  *jrpc2.Client
	timeout time.Duration
}

// NewRPCGateway creates a gateway for the JSON-RPC endpoint at url. Calls do
// not retry; each one is bounded by timeout.
func NewRPCGateway(url string, timeout time.Duration) *RPCGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RPCGateway{
		client:  jrpc2.NewClient(jhttp.NewChannel(url, nil), nil),
		timeout: timeout,
	}
}

type getLedgerEntriesRequest struct {
	Keys []string `json:"keys"`
}

type ledgerEntryResult struct {
	Key                string `json:"key"`
	XDR                string `json:"xdr"`
	LastModifiedLedger uint32 `json:"lastModifiedLedgerSeq"`
}

type getLedgerEntriesResponse struct {
	Entries      []ledgerEntryResult `json:"entries"`
	LatestLedger uint32              `json:"latestLedger"`
}

type simulateTransactionRequest struct {
	Transaction string `json:"transaction"`
}

type simulateHostFunctionResult struct {
	Auth []string `json:"auth"`
	XDR  string   `json:"xdr"`
}

type simulateTransactionResponse struct {
	Error           string                       `json:"error,omitempty"`
	TransactionData string                       `json:"transactionData,omitempty"`
	MinResourceFee  string                       `json:"minResourceFee,omitempty"`
	Results         []simulateHostFunctionResult `json:"results,omitempty"`
	LatestLedger    uint32                       `json:"latestLedger"`
}

type getNetworkResponse struct {
	Passphrase      string `json:"passphrase"`
	ProtocolVersion int    `json:"protocolVersion"`
}

// FetchAccount loads the account's ledger entry and returns its sequence number
func (g *RPCGateway) FetchAccount(ctx context.Context, address string) (*core.Account, error) {
	accountID, err := xdr.AddressToAccountId(address)
	if err != nil {
		return nil, core.NewError(core.KindAccountLookup, "invalid account address", err)
	}

	key := xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: accountID},
	}
	keyXDR, err := xdr.MarshalBase64(key)
	if err != nil {
		return nil, core.NewError(core.KindAccountLookup, "unable to encode ledger key", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var resp getLedgerEntriesResponse
	if err := g.client.CallResult(ctx, "getLedgerEntries", getLedgerEntriesRequest{Keys: []string{keyXDR}}, &resp); err != nil {
		return nil, core.NewError(core.KindAccountLookup, "unable to fetch account", err)
	}
	if len(resp.Entries) == 0 {
		return nil, core.NewError(core.KindAccountLookup, fmt.Sprintf("account %s not found", address), nil)
	}

	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(resp.Entries[0].XDR, &data); err != nil {
		return nil, core.NewError(core.KindAccountLookup, "malformed account entry", err)
	}
	if data.Type != xdr.LedgerEntryTypeAccount || data.Account == nil {
		return nil, core.NewError(core.KindAccountLookup, "ledger entry is not an account", nil)
	}

	return &core.Account{
		Address:  address,
		Sequence: int64(data.Account.SeqNum),
	}, nil
}

// Simulate runs simulateTransaction for tx
func (g *RPCGateway) Simulate(ctx context.Context, tx *txnbuild.Transaction) (*core.SimulationResult, error) {
	envelope, err := tx.Base64()
	if err != nil {
		return nil, core.NewError(core.KindBuild, "unable to encode transaction", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var resp simulateTransactionResponse
	if err := g.client.CallResult(ctx, "simulateTransaction", simulateTransactionRequest{Transaction: envelope}, &resp); err != nil {
		return nil, core.NewError(core.KindSimulationTransport, "error simulating transaction", err)
	}

	result := &core.SimulationResult{
		Error:        resp.Error,
		LatestLedger: resp.LatestLedger,
	}
	if resp.Error != "" {
		return result, nil
	}

	if resp.MinResourceFee != "" {
		fee, err := decimal.NewFromString(resp.MinResourceFee)
		if err != nil {
			return nil, core.NewError(core.KindSimulationTransport, "malformed resource fee", err)
		}
		result.MinResourceFee = fee
	}

	for _, r := range resp.Results {
		for _, a := range r.Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(a, &entry); err != nil {
				return nil, core.NewError(core.KindSimulationTransport, "malformed authorization entry in simulation", err)
			}
			result.Auth = append(result.Auth, entry)
		}
	}

	return result, nil
}

// CheckNetwork fails if the node serves a network other than passphrase
func (g *RPCGateway) CheckNetwork(ctx context.Context, passphrase string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var resp getNetworkResponse
	if err := g.client.CallResult(ctx, "getNetwork", nil, &resp); err != nil {
		return fmt.Errorf("failed to query network: %w", err)
	}
	if resp.Passphrase != passphrase {
		return fmt.Errorf("rpc node serves %q, configured for %q", resp.Passphrase, passphrase)
	}
	return nil
}

// Close releases the underlying client
func (g *RPCGateway) Close() error {
	return g.client.Close()
}
