package core

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// EncodeEntry returns the base64 wire form of an authorization entry
func EncodeEntry(entry xdr.SorobanAuthorizationEntry) (string, error) {
	return xdr.MarshalBase64(entry)
}

// EntryBytes returns the canonical XDR encoding of an authorization entry
func EntryBytes(entry xdr.SorobanAuthorizationEntry) ([]byte, error) {
	return entry.MarshalBinary()
}

// DecodeBase64 strips the base64 transport wrapping of an XDR payload
func DecodeBase64(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, NewError(KindDecode, "malformed base64", err)
	}
	if len(raw) == 0 {
		return nil, NewError(KindDecode, "empty payload", nil)
	}
	return raw, nil
}

// UnmarshalEntry decodes the XDR bytes of an authorization entry. Trailing
// bytes are rejected.
func UnmarshalEntry(raw []byte) (xdr.SorobanAuthorizationEntry, error) {
	var entry xdr.SorobanAuthorizationEntry
	if err := xdr.SafeUnmarshal(raw, &entry); err != nil {
		return xdr.SorobanAuthorizationEntry{}, NewError(KindDecode, "malformed authorization entry", err)
	}
	return entry, nil
}

// DecodeEntry decodes a base64 authorization entry
func DecodeEntry(s string) (xdr.SorobanAuthorizationEntry, error) {
	raw, err := DecodeBase64(s)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}
	return UnmarshalEntry(raw)
}

// EncodeCredentials returns the base64 wire form of credentials
func EncodeCredentials(creds xdr.SorobanCredentials) (string, error) {
	return xdr.MarshalBase64(creds)
}

// DecodeCredentials decodes base64 credentials supplied by a client
func DecodeCredentials(s string) (xdr.SorobanCredentials, error) {
	raw, err := DecodeBase64(s)
	if err != nil {
		return xdr.SorobanCredentials{}, err
	}
	var creds xdr.SorobanCredentials
	if err := xdr.SafeUnmarshal(raw, &creds); err != nil {
		return xdr.SorobanCredentials{}, NewError(KindDecode, "malformed credentials", err)
	}
	return creds, nil
}

// EncodeSignature returns the hex wire form of a server signature
func EncodeSignature(sig []byte) string {
	return hex.EncodeToString(sig)
}

// DecodeSignature decodes a hex server signature
func DecodeSignature(s string) ([]byte, error) {
	sig, err := hex.DecodeString(s)
	if err != nil {
		return nil, NewError(KindDecode, "malformed server signature", err)
	}
	if len(sig) == 0 {
		return nil, NewError(KindDecode, "empty server signature", nil)
	}
	return sig, nil
}

// ParseContractAddress converts a C... strkey into an ScAddress
func ParseContractAddress(address string) (xdr.ScAddress, error) {
	id, err := strkey.Decode(strkey.VersionByteContract, address)
	if err != nil {
		return xdr.ScAddress{}, err
	}
	// Contract addresses encode as the contract discriminant followed by the
	// 32 byte contract id.
	raw := append([]byte{0, 0, 0, byte(xdr.ScAddressTypeScAddressTypeContract)}, id...)
	var addr xdr.ScAddress
	if err := xdr.SafeUnmarshal(raw, &addr); err != nil {
		return xdr.ScAddress{}, err
	}
	return addr, nil
}

// AddressString converts an account or contract ScAddress into its strkey form
func AddressString(addr xdr.ScAddress) (string, error) {
	switch addr.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		if addr.AccountId == nil {
			return "", NewError(KindDecode, "account address without account id", nil)
		}
		return addr.AccountId.Address(), nil
	case xdr.ScAddressTypeScAddressTypeContract:
		raw, err := addr.MarshalBinary()
		if err != nil {
			return "", err
		}
		return strkey.Encode(strkey.VersionByteContract, raw[4:])
	}
	return "", NewError(KindDecode, "unsupported address type "+addr.Type.String(), nil)
}

// ValidAddress reports whether s is a G... account or a C... contract address
func ValidAddress(s string) bool {
	if strkey.IsValidEd25519PublicKey(s) {
		return true
	}
	_, err := strkey.Decode(strkey.VersionByteContract, s)
	return err == nil
}
