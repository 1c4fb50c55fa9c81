package ports

// Signer holds the server key used to authenticate issued challenges
type Signer interface {
	// Sign returns a deterministic signature over a hash of payload
	Sign(payload []byte) ([]byte, error)

	// Verify recomputes the signature over payload and compares it to sig
	Verify(payload, sig []byte) error

	// Address returns the server's public account address
	Address() string
}
