// Package webauth holds the client side of the challenge protocol: counter
// signing a server-issued authorization entry with an account keypair.
//
// A client requests a challenge, signs the returned entry with
// AuthorizeEntry, and submits the resulting credentials together with the
// untouched entry and server signature to the validation endpoint.
package webauth

import (
	"errors"
	"fmt"

	"github.com/stellar/go/hash"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// Keys of the account signature map, as the account contract expects them
const (
	SignatureKeyPublicKey = "public_key"
	SignatureKeySignature = "signature"
)

var ErrNotAddressCredentials = errors.New("entry does not carry address credentials")

// AuthorizationPayload returns the hash an account signs to authorize entry
// under creds: the SOROBAN_AUTHORIZATION preimage of network id, nonce,
// signature expiration ledger and the root invocation.
func AuthorizationPayload(entry xdr.SorobanAuthorizationEntry, creds xdr.SorobanAddressCredentials, passphrase string) ([32]byte, error) {
	preimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization,
		SorobanAuthorization: &xdr.HashIdPreimageSorobanAuthorization{
			NetworkId:                 xdr.Hash(network.ID(passphrase)),
			Nonce:                     creds.Nonce,
			SignatureExpirationLedger: creds.SignatureExpirationLedger,
			Invocation:                entry.RootInvocation,
		},
	}
	raw, err := preimage.MarshalBinary()
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to encode authorization preimage: %w", err)
	}
	return hash.Hash(raw), nil
}

// AuthorizeEntry returns the entry's credentials signed by kp and valid until
// validUntilLedger. The entry itself is not modified.
func AuthorizeEntry(entry xdr.SorobanAuthorizationEntry, kp *keypair.Full, validUntilLedger uint32, passphrase string) (xdr.SorobanCredentials, error) {
	if entry.Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || entry.Credentials.Address == nil {
		return xdr.SorobanCredentials{}, ErrNotAddressCredentials
	}

	creds := *entry.Credentials.Address
	creds.SignatureExpirationLedger = xdr.Uint32(validUntilLedger)

	payload, err := AuthorizationPayload(entry, creds, passphrase)
	if err != nil {
		return xdr.SorobanCredentials{}, err
	}
	sig, err := kp.Sign(payload[:])
	if err != nil {
		return xdr.SorobanCredentials{}, fmt.Errorf("failed to sign authorization: %w", err)
	}
	publicKey, err := strkey.Decode(strkey.VersionByteAccountID, kp.Address())
	if err != nil {
		return xdr.SorobanCredentials{}, fmt.Errorf("failed to decode public key: %w", err)
	}

	creds.Signature = signatureVal(publicKey, sig)
	return xdr.SorobanCredentials{
		Type:    xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
		Address: &creds,
	}, nil
}

// AccountSignature is one ed25519 signature attached to address credentials
type AccountSignature struct {
	PublicKey []byte
	Signature []byte
}

// AccountSignatures reads back the signatures attached by AuthorizeEntry
func AccountSignatures(creds xdr.SorobanAddressCredentials) ([]AccountSignature, error) {
	v := creds.Signature
	if v.Type != xdr.ScValTypeScvVec || v.Vec == nil || *v.Vec == nil {
		return nil, errors.New("signature is not a vector")
	}

	var out []AccountSignature
	for _, item := range **v.Vec {
		if item.Type != xdr.ScValTypeScvMap || item.Map == nil || *item.Map == nil {
			return nil, errors.New("signature element is not a map")
		}
		var s AccountSignature
		for _, e := range **item.Map {
			if e.Key.Type != xdr.ScValTypeScvSymbol || e.Key.Sym == nil || e.Val.Type != xdr.ScValTypeScvBytes || e.Val.Bytes == nil {
				return nil, errors.New("malformed signature element")
			}
			switch string(*e.Key.Sym) {
			case SignatureKeyPublicKey:
				s.PublicKey = []byte(*e.Val.Bytes)
			case SignatureKeySignature:
				s.Signature = []byte(*e.Val.Bytes)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func signatureVal(publicKey, sig []byte) xdr.ScVal {
	entries := xdr.ScMap{
		{Key: scSymbol(SignatureKeyPublicKey), Val: scBytes(publicKey)},
		{Key: scSymbol(SignatureKeySignature), Val: scBytes(sig)},
	}
	m := &entries
	vec := xdr.ScVec{{Type: xdr.ScValTypeScvMap, Map: &m}}
	v := &vec
	return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &v}
}

func scSymbol(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

func scBytes(b []byte) xdr.ScVal {
	bytes := xdr.ScBytes(b)
	return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &bytes}
}
