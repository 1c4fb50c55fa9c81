package signer_test

import (
	"testing"

	"github.com/layer-3/webauth/adapters/signer"
	"github.com/layer-3/webauth/core"
	"github.com/stellar/go/hash"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministic(t *testing.T) {
	kp := keypair.MustRandom()
	s, err := signer.NewKeypairSigner(kp.Seed())
	require.NoError(t, err)

	first, err := s.Sign([]byte("challenge"))
	require.NoError(t, err)
	second, err := s.Sign([]byte("challenge"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Equal(t, kp.Address(), s.Address())
}

func TestSignCoversHashOfPayload(t *testing.T) {
	kp := keypair.MustRandom()
	s, err := signer.NewKeypairSigner(kp.Seed())
	require.NoError(t, err)

	payload := []byte("authorization entry bytes")
	sig, err := s.Sign(payload)
	require.NoError(t, err)

	digest := hash.Hash(payload)
	assert.NoError(t, kp.Verify(digest[:], sig))
}

func TestVerify(t *testing.T) {
	s, err := signer.NewKeypairSigner(keypair.MustRandom().Seed())
	require.NoError(t, err)

	sig, err := s.Sign([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, s.Verify([]byte("payload"), sig))

	err = s.Verify([]byte("payloaD"), sig)
	assert.ErrorIs(t, err, core.ErrSignatureMismatch)

	tampered := append([]byte(nil), sig...)
	tampered[0] ^= 0x01
	assert.ErrorIs(t, s.Verify([]byte("payload"), tampered), core.ErrSignatureMismatch)

	assert.ErrorIs(t, s.Verify([]byte("payload"), sig[:10]), core.ErrSignatureMismatch)
}

func TestOtherKeyDoesNotVerify(t *testing.T) {
	a, err := signer.NewKeypairSigner(keypair.MustRandom().Seed())
	require.NoError(t, err)
	b, err := signer.NewKeypairSigner(keypair.MustRandom().Seed())
	require.NoError(t, err)

	sig, err := a.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify([]byte("payload"), sig), core.ErrSignatureMismatch)
}

func TestNewKeypairSignerRejectsBadSeed(t *testing.T) {
	_, err := signer.NewKeypairSigner("not-a-seed")
	assert.Error(t, err)

	_, err = signer.NewKeypairSigner(keypair.MustRandom().Address())
	assert.Error(t, err)
}
