package signer

import (
	"crypto/subtle"
	"fmt"

	"github.com/layer-3/webauth/core"
	"github.com/layer-3/webauth/ports"
	"github.com/stellar/go/hash"
	"github.com/stellar/go/keypair"
)

// KeypairSigner implements the Signer interface with the server's Stellar keypair
type KeypairSigner struct {
	kp *keypair.Full
}

// NewKeypairSigner creates a signer from an S... secret seed
func NewKeypairSigner(seed string) (ports.Signer, error) {
	kp, err := keypair.ParseFull(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing seed: %w", err)
	}
	return &KeypairSigner{kp: kp}, nil
}

// Sign signs the SHA-256 hash of payload. Ed25519 signatures are
// deterministic, so signing the same payload twice yields the same bytes.
func (s *KeypairSigner) Sign(payload []byte) ([]byte, error) {
	digest := hash.Hash(payload)
	sig, err := s.kp.Sign(digest[:])
	if err != nil {
		return nil, core.NewError(core.KindSigning, "unable to sign payload", err)
	}
	return sig, nil
}

// Verify checks that sig is this server's signature over payload
func (s *KeypairSigner) Verify(payload, sig []byte) error {
	expected, err := s.Sign(payload)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(expected, sig) != 1 {
		return core.NewError(core.KindSignatureMismatch, "server signature does not match", nil)
	}
	return nil
}

// Address returns the G... address of the signing key
func (s *KeypairSigner) Address() string {
	return s.kp.Address()
}
