// Package testutil builds ledger values shared by the package tests.
package testutil

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"
)

// ContractAddress is a well-formed contract strkey used as the web auth contract
var ContractAddress = strkey.MustEncode(strkey.VersionByteContract, make([]byte, 32))

// AccountAddress returns the ScAddress of a G... account
func AccountAddress(t testing.TB, address string) xdr.ScAddress {
	t.Helper()
	id, err := xdr.AddressToAccountId(address)
	require.NoError(t, err)
	return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &id}
}

// AddressCredentials returns unsigned address credentials, as a recording
// simulation produces them.
func AddressCredentials(t testing.TB, address string, nonce int64) xdr.SorobanCredentials {
	t.Helper()
	return xdr.SorobanCredentials{
		Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
		Address: &xdr.SorobanAddressCredentials{
			Address:   AccountAddress(t, address),
			Nonce:     xdr.Int64(nonce),
			Signature: xdr.ScVal{Type: xdr.ScValTypeScvVoid},
		},
	}
}

// Entry returns an authorization entry invoking fn on contract with args,
// requiring the signature of address.
func Entry(t testing.TB, contract xdr.ScAddress, fn string, args []xdr.ScVal, address string, nonce int64) xdr.SorobanAuthorizationEntry {
	t.Helper()
	return xdr.SorobanAuthorizationEntry{
		Credentials: AddressCredentials(t, address, nonce),
		RootInvocation: xdr.SorobanAuthorizedInvocation{
			Function: xdr.SorobanAuthorizedFunction{
				Type: xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
				ContractFn: &xdr.InvokeContractArgs{
					ContractAddress: contract,
					FunctionName:    xdr.ScSymbol(fn),
					Args:            args,
				},
			},
		},
	}
}

// RandomAccount returns a fresh keypair
func RandomAccount(t testing.TB) *keypair.Full {
	t.Helper()
	kp, err := keypair.Random()
	require.NoError(t, err)
	return kp
}
