// Package config loads the service configuration from the environment.
package config

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
)

const (
	DefaultRPCURL     = "https://soroban-testnet.stellar.org"
	DefaultRPCTimeout = 10 * time.Second
	DefaultJWTTTL     = time.Hour
	DefaultRedisURL   = "redis://localhost:6379/0"
	DefaultListenAddr = ":9000"
)

// Config is the service configuration. It is loaded once at startup and not
// modified afterwards.
type Config struct {
	SigningSeed       string
	Contract          string
	WebAuthDomain     string
	NetworkPassphrase string
	RPCURL            string
	RPCTimeout        time.Duration
	JWTKeyFile        string
	JWTIssuer         string
	JWTTTL            time.Duration
	RedisURL          string
	ListenAddr        string
	LogLevel          string
	LogFormat         string
}

// Load reads .env if present, then the environment, and validates the result
func Load() (Config, error) {
	_ = godotenv.Load()

	rpcTimeout, err := envDurationOrDefault("RPC_TIMEOUT", DefaultRPCTimeout)
	if err != nil {
		return Config{}, err
	}
	jwtTTL, err := envDurationOrDefault("JWT_TTL", DefaultJWTTTL)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SigningSeed:       os.Getenv("WEBAUTH_SIGNING_SEED"),
		Contract:          os.Getenv("WEBAUTH_CONTRACT"),
		WebAuthDomain:     os.Getenv("WEBAUTH_DOMAIN"),
		NetworkPassphrase: envOrDefault("STELLAR_NETWORK_PASSPHRASE", network.TestNetworkPassphrase),
		RPCURL:            envOrDefault("STELLAR_RPC_URL", DefaultRPCURL),
		RPCTimeout:        rpcTimeout,
		JWTKeyFile:        os.Getenv("JWT_KEY_FILE"),
		JWTIssuer:         os.Getenv("JWT_ISSUER"),
		JWTTTL:            jwtTTL,
		RedisURL:          envOrDefault("REDIS_URL", DefaultRedisURL),
		ListenAddr:        envOrDefault("LISTEN_ADDR", DefaultListenAddr),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "terminal"),
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = cfg.WebAuthDomain
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the required settings are present and well formed
func (c Config) Validate() error {
	var errs []error
	if !strkey.IsValidEd25519SecretSeed(c.SigningSeed) {
		errs = append(errs, errors.New("WEBAUTH_SIGNING_SEED must be an S... secret seed"))
	}
	if _, err := strkey.Decode(strkey.VersionByteContract, c.Contract); err != nil {
		errs = append(errs, errors.New("WEBAUTH_CONTRACT must be a C... contract address"))
	}
	if c.NetworkPassphrase == "" {
		errs = append(errs, errors.New("STELLAR_NETWORK_PASSPHRASE is empty"))
	}
	if c.RPCTimeout <= 0 {
		errs = append(errs, errors.New("RPC_TIMEOUT must be positive"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.LogFormat != "terminal" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not terminal or json", c.LogFormat))
	}
	return errors.Join(errs...)
}

// SigningKey loads the JWT signing key from JWTKeyFile, or generates an
// ephemeral one when no file is configured. Tokens signed with an ephemeral
// key do not survive a restart.
func (c Config) SigningKey() (key *ecdsa.PrivateKey, ephemeral bool, err error) {
	if c.JWTKeyFile == "" {
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate signing key: %w", err)
		}
		return key, true, nil
	}

	pem, err := os.ReadFile(c.JWTKeyFile)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read signing key: %w", err)
	}
	key, err = jwt.ParseECPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse signing key: %w", err)
	}
	if key.Curve != elliptic.P256() {
		return nil, false, errors.New("signing key must be on the P-256 curve")
	}
	return key, false, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
