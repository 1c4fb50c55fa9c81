package service

import (
	"time"

	"github.com/layer-3/webauth/core"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

const (
	// WebAuthVerifyFn is the contract entry point every challenge invokes
	WebAuthVerifyFn = "web_auth_verify"

	// BaseFee is the fee per operation of challenge transactions
	BaseFee = txnbuild.MinBaseFee

	// ValidityWindow is the on-chain validity of a challenge transaction
	ValidityWindow = 300 * time.Second
)

// TxBuilder assembles unsigned invocations of the web auth contract
type TxBuilder struct {
	contract xdr.ScAddress
	now      func() time.Time
}

// NewTxBuilder creates a builder for the contract at the given C... address
func NewTxBuilder(contract string) (*TxBuilder, error) {
	addr, err := core.ParseContractAddress(contract)
	if err != nil {
		return nil, core.NewError(core.KindBuild, "invalid contract address "+contract, err)
	}
	return &TxBuilder{contract: addr, now: time.Now}, nil
}

// BuildInvocation builds a transaction invoking the contract with args and no
// attached authorization. Simulating it records the authorization it needs.
func (b *TxBuilder) BuildInvocation(source *core.Account, args []xdr.ScVal) (*txnbuild.Transaction, error) {
	return b.build(source, args, nil)
}

// BuildAuthorized builds the same invocation with auth attached, so that
// simulating it enforces the attached credentials.
func (b *TxBuilder) BuildAuthorized(source *core.Account, args []xdr.ScVal, auth []xdr.SorobanAuthorizationEntry) (*txnbuild.Transaction, error) {
	return b.build(source, args, auth)
}

func (b *TxBuilder) build(source *core.Account, args []xdr.ScVal, auth []xdr.SorobanAuthorizationEntry) (*txnbuild.Transaction, error) {
	if source == nil || !strkey.IsValidEd25519PublicKey(source.Address) {
		return nil, core.NewError(core.KindBuild, "invalid source account", nil)
	}

	op := &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: b.contract,
				FunctionName:    xdr.ScSymbol(WebAuthVerifyFn),
				Args:            args,
			},
		},
		Auth:          auth,
		SourceAccount: source.Address,
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: source.Address, Sequence: source.Sequence},
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              BaseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimebounds(0, b.now().Add(ValidityWindow).Unix()),
		},
	})
	if err != nil {
		return nil, core.NewError(core.KindBuild, "unable to build transaction", err)
	}
	return tx, nil
}
