package ports

import (
	"context"

	"github.com/layer-3/webauth/core"
	"github.com/stellar/go/txnbuild"
)

// LedgerGateway is the remote network node. It is the verification oracle:
// a simulation without error means the attached authorization satisfies the
// signer's policy.
type LedgerGateway interface {
	// FetchAccount resolves an account's sequence number. Failures are
	// core.KindAccountLookup errors.
	FetchAccount(ctx context.Context, address string) (*core.Account, error)

	// Simulate executes tx against current ledger state without submitting
	// it. Transport failures are core.KindSimulationTransport errors; policy
	// rejections are reported in the result, not as an error.
	Simulate(ctx context.Context, tx *txnbuild.Transaction) (*core.SimulationResult, error)
}
