package core

import (
	"github.com/stellar/go/xdr"
)

// Argument keys of the challenge map, in the order they are written.
const (
	ArgAccount       = "account"
	ArgWebAuthDomain = "web_auth_domain"
	ArgHomeDomain    = "home_domain"
	ArgMemo          = "memo"
	ArgClientDomain  = "client_domain"
)

// Arg is a single key/value pair of the challenge argument map
type Arg struct {
	Key   string
	Value string
}

// ChallengeArgs returns the present challenge fields in protocol order:
// account, web_auth_domain, home_domain, memo, client_domain. Absent fields
// are skipped; the relative order of the rest never changes.
func ChallengeArgs(req ChallengeRequest, webAuthDomain string) []Arg {
	candidates := []Arg{
		{ArgAccount, req.Account},
		{ArgWebAuthDomain, webAuthDomain},
		{ArgHomeDomain, req.HomeDomain},
		{ArgMemo, req.Memo},
		{ArgClientDomain, req.ClientDomain},
	}

	args := make([]Arg, 0, len(candidates))
	for _, a := range candidates {
		if a.Value != "" {
			args = append(args, a)
		}
	}
	return args
}

// ArgsToScVal packs the pairs into a single string-to-string ScMap, keeping
// their order.
func ArgsToScVal(args []Arg) xdr.ScVal {
	entries := make(xdr.ScMap, 0, len(args))
	for _, a := range args {
		entries = append(entries, xdr.ScMapEntry{
			Key: scString(a.Key),
			Val: scString(a.Value),
		})
	}
	m := &entries
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &m}
}

// ArgsFromScVal reads back the pairs of a challenge argument map
func ArgsFromScVal(val xdr.ScVal) ([]Arg, error) {
	if val.Type != xdr.ScValTypeScvMap || val.Map == nil || *val.Map == nil {
		return nil, NewError(KindDecode, "challenge argument is not a map", nil)
	}

	entries := **val.Map
	args := make([]Arg, 0, len(entries))
	for _, e := range entries {
		key, ok := stringOf(e.Key)
		if !ok {
			return nil, NewError(KindDecode, "challenge argument key is not a string", nil)
		}
		value, ok := stringOf(e.Val)
		if !ok {
			return nil, NewError(KindDecode, "challenge argument "+key+" is not a string", nil)
		}
		args = append(args, Arg{Key: key, Value: value})
	}
	return args, nil
}

// IdentityFromEntry extracts what a validated entry proves: the authorized
// address from its credentials, and the domains and memo from its arguments.
func IdentityFromEntry(entry xdr.SorobanAuthorizationEntry) (Identity, error) {
	fn := entry.RootInvocation.Function
	if fn.Type != xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn || fn.ContractFn == nil {
		return Identity{}, NewError(KindDecode, "entry does not authorize a contract call", nil)
	}
	if len(fn.ContractFn.Args) != 1 {
		return Identity{}, NewError(KindDecode, "entry does not carry a single argument map", nil)
	}

	args, err := ArgsFromScVal(fn.ContractFn.Args[0])
	if err != nil {
		return Identity{}, err
	}

	var id Identity
	for _, a := range args {
		switch a.Key {
		case ArgAccount:
			id.Account = a.Value
		case ArgWebAuthDomain:
			id.WebAuthDomain = a.Value
		case ArgHomeDomain:
			id.HomeDomain = a.Value
		case ArgMemo:
			id.Memo = a.Value
		case ArgClientDomain:
			id.ClientDomain = a.Value
		}
	}

	if entry.Credentials.Type == xdr.SorobanCredentialsTypeSorobanCredentialsAddress && entry.Credentials.Address != nil {
		addr, err := AddressString(entry.Credentials.Address.Address)
		if err != nil {
			return Identity{}, err
		}
		id.Account = addr
	}

	if id.Account == "" {
		return Identity{}, NewError(KindDecode, "entry names no account", nil)
	}
	return id, nil
}

func scString(s string) xdr.ScVal {
	str := xdr.ScString(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &str}
}

func stringOf(v xdr.ScVal) (string, bool) {
	switch v.Type {
	case xdr.ScValTypeScvString:
		if v.Str == nil {
			return "", false
		}
		return string(*v.Str), true
	case xdr.ScValTypeScvSymbol:
		if v.Sym == nil {
			return "", false
		}
		return string(*v.Sym), true
	}
	return "", false
}
