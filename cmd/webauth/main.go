package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/log"
	"github.com/layer-3/webauth/adapters/events"
	"github.com/layer-3/webauth/adapters/ledger"
	"github.com/layer-3/webauth/adapters/signer"
	"github.com/layer-3/webauth/adapters/tokenizer"
	"github.com/layer-3/webauth/config"
	"github.com/layer-3/webauth/service"
	transport "github.com/layer-3/webauth/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Crit("Invalid configuration", "err", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverSigner, err := signer.NewKeypairSigner(cfg.SigningSeed)
	if err != nil {
		log.Crit("Failed to load signing seed", "err", err)
	}

	gateway := ledger.NewRPCGateway(cfg.RPCURL, cfg.RPCTimeout)
	defer gateway.Close()
	if err := gateway.CheckNetwork(ctx, cfg.NetworkPassphrase); err != nil {
		log.Crit("RPC network check failed", "url", cfg.RPCURL, "err", err)
	}

	signKey, ephemeral, err := cfg.SigningKey()
	if err != nil {
		log.Crit("Failed to load JWT signing key", "err", err)
	}
	if ephemeral {
		logger.Warn("No JWT_KEY_FILE configured, tokens will not survive a restart")
	}
	tokens := tokenizer.NewJWTTokenizer(signKey, cfg.JWTIssuer, cfg.JWTTTL)

	// Parse Redis URL and create client
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Crit("Failed to parse Redis URL", "err", err)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	// Initialize Watermill Redis publisher
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Crit("Failed to create Redis publisher", "err", err)
	}
	defer publisher.Close()

	authService, err := service.NewAuthService(service.Settings{
		Contract:      cfg.Contract,
		WebAuthDomain: cfg.WebAuthDomain,
	}, gateway, serverSigner, tokens, events.NewWatermillPublisher(publisher), logger)
	if err != nil {
		log.Crit("Failed to create auth service", "err", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           transport.SetupRouter(authService, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown failed", "err", err)
		}
	}()

	logger.Info("Starting web auth server", "addr", cfg.ListenAddr, "account", serverSigner.Address(), "contract", cfg.Contract, "network", cfg.NetworkPassphrase)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Crit("Failed to start server", "err", err)
	}
	logger.Info("Server stopped")
}
