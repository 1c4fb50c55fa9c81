package core

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/xdr"
)

// ChallengeRequest is the client's request for a new challenge
type ChallengeRequest struct {
	Account      string // G... account or C... contract address to authenticate
	HomeDomain   string // Optional
	Memo         string // Optional
	ClientDomain string // Optional
}

// ChallengeResponse carries the issued authorization entry and the server's
// signature over its canonical encoding. The pair is all the state the server
// needs to validate the challenge later.
type ChallengeResponse struct {
	AuthorizationEntry string // base64 XDR SorobanAuthorizationEntry
	ServerSignature    string // hex
}

// ValidationRequest is the client's counter-signed challenge
type ValidationRequest struct {
	AuthorizationEntry string // base64 XDR, as issued
	ServerSignature    string // hex, as issued
	Credentials        string // base64 XDR SorobanCredentials
}

// ValidationResponse carries the bearer token minted for an authenticated client
type ValidationResponse struct {
	Token string
}

// Account is the ledger view of an account needed to build a transaction
type Account struct {
	Address  string
	Sequence int64
}

// SimulationResult is the outcome of simulating a transaction. Either Error is
// set, or the simulation succeeded and Auth holds the authorization entries
// the invocation requires.
type SimulationResult struct {
	Auth           []xdr.SorobanAuthorizationEntry
	Error          string
	MinResourceFee decimal.Decimal
	LatestLedger   uint32
}

// Identity is what a validated entry proves about the client
type Identity struct {
	Account       string
	Memo          string
	HomeDomain    string
	ClientDomain  string
	WebAuthDomain string
}

// Subject returns the token subject for the identity. Memo-scoped identities
// are written as account:memo.
func (i Identity) Subject() string {
	if i.Memo == "" {
		return i.Account
	}
	return i.Account + ":" + i.Memo
}

// Token is an issued bearer token
type Token struct {
	Value     string
	ID        string
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the verified content of a bearer token
type Claims struct {
	ID            string
	Subject       string
	Issuer        string
	HomeDomain    string
	ClientDomain  string
	WebAuthDomain string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}
