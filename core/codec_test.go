package core_test

import (
	"encoding/base64"
	"testing"

	"github.com/layer-3/webauth/core"
	"github.com/layer-3/webauth/internal/testutil"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(t *testing.T) (xdr.SorobanAuthorizationEntry, string) {
	t.Helper()
	client := testutil.RandomAccount(t)
	contract, err := core.ParseContractAddress(testutil.ContractAddress)
	require.NoError(t, err)

	args := core.ChallengeArgs(core.ChallengeRequest{
		Account:    client.Address(),
		HomeDomain: "example.com",
	}, "auth.example.com")
	entry := testutil.Entry(t, contract, "web_auth_verify", []xdr.ScVal{core.ArgsToScVal(args)}, client.Address(), 42)
	return entry, client.Address()
}

func TestEntryRoundTrip(t *testing.T) {
	entry, _ := sampleEntry(t)

	encoded, err := core.EncodeEntry(entry)
	require.NoError(t, err)

	decoded, err := core.DecodeEntry(encoded)
	require.NoError(t, err)

	reencoded, err := core.EncodeEntry(decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)
	assert.Equal(t, entry.Credentials.Address.Nonce, decoded.Credentials.Address.Nonce)
}

func TestCredentialsRoundTrip(t *testing.T) {
	creds := testutil.AddressCredentials(t, testutil.RandomAccount(t).Address(), 7)
	creds.Address.SignatureExpirationLedger = 1234

	encoded, err := core.EncodeCredentials(creds)
	require.NoError(t, err)

	decoded, err := core.DecodeCredentials(encoded)
	require.NoError(t, err)
	assert.Equal(t, xdr.Uint32(1234), decoded.Address.SignatureExpirationLedger)
	assert.Equal(t, xdr.Int64(7), decoded.Address.Nonce)
	assert.Equal(t, creds.Address.Address.AccountId.Address(), decoded.Address.Address.AccountId.Address())
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	entry, _ := sampleEntry(t)
	raw, err := core.EntryBytes(entry)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%"},
		{"empty", ""},
		{"truncated", base64.StdEncoding.EncodeToString(raw[:len(raw)-3])},
		{"trailing bytes", base64.StdEncoding.EncodeToString(append(raw, 0, 0, 0, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.DecodeEntry(tt.input)
			assert.ErrorIs(t, err, core.ErrDecode)

			_, err = core.DecodeCredentials(tt.input)
			assert.ErrorIs(t, err, core.ErrDecode)
		})
	}
}

func TestSignatureHex(t *testing.T) {
	sig := []byte{0xde, 0xad, 0xbe, 0xef}
	assert.Equal(t, "deadbeef", core.EncodeSignature(sig))

	decoded, err := core.DecodeSignature("DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)

	_, err = core.DecodeSignature("xyz")
	assert.ErrorIs(t, err, core.ErrDecode)
	_, err = core.DecodeSignature("")
	assert.ErrorIs(t, err, core.ErrDecode)
}

func TestContractAddressRoundTrip(t *testing.T) {
	addr, err := core.ParseContractAddress(testutil.ContractAddress)
	require.NoError(t, err)
	assert.Equal(t, xdr.ScAddressTypeScAddressTypeContract, addr.Type)

	back, err := core.AddressString(addr)
	require.NoError(t, err)
	assert.Equal(t, testutil.ContractAddress, back)

	_, err = core.ParseContractAddress(testutil.RandomAccount(t).Address())
	assert.Error(t, err)
}

func TestValidAddress(t *testing.T) {
	assert.True(t, core.ValidAddress(testutil.RandomAccount(t).Address()))
	assert.True(t, core.ValidAddress(testutil.ContractAddress))
	assert.False(t, core.ValidAddress("GABC"))
	assert.False(t, core.ValidAddress(""))
}
