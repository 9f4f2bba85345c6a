package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/optionstack/option-indexer/internal/adapter"
	"github.com/optionstack/option-indexer/internal/api/server"
	"github.com/optionstack/option-indexer/internal/block"
	"github.com/optionstack/option-indexer/internal/config"
	"github.com/optionstack/option-indexer/internal/indexer"
	"github.com/optionstack/option-indexer/internal/logger"
	"github.com/optionstack/option-indexer/internal/providers/ethereum"
	"github.com/optionstack/option-indexer/internal/ratelimit"
	"github.com/optionstack/option-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "option-indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting option indexer",
		zap.String("chain", string(cfg.Ethereum.ChainID)),
		zap.String("contract", cfg.Ethereum.ContractAddress))

	// Dial the RPC with exponential backoff; a provider restart at boot
	// should not kill the process
	clockAdapter := adapter.NewClock()
	ethDialer := adapter.NewEthClientDialer()

	var ethClient adapter.EthClient
	dialPolicy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err = backoff.Retry(func() error {
		var dialErr error
		ethClient, dialErr = ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
		return dialErr
	}, dialPolicy)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	logger.InfoCtx(ctx, "Connected to Ethereum RPC")

	// Keep the scan loop under the provider's request budget
	ethClient = ratelimit.NewEthClient(ethClient, cfg.Ethereum.RateLimitRPS, cfg.Ethereum.RateLimitBurst)
	defer ethClient.Close()

	chainClient := ethereum.NewChainClient(cfg.Ethereum.ChainID, cfg.Ethereum.ContractAddress, ethClient, clockAdapter)
	defer chainClient.Close()

	headProvider := block.NewHeadProvider(
		ethereum.NewHeadFetcher(ethClient),
		block.Config{
			TTL:         cfg.Ethereum.BlockHeadTTL,
			StaleWindow: cfg.Ethereum.BlockHeadStaleWindow,
		},
		clockAdapter,
	)

	// State store lives for the process lifetime; no teardown needed
	stateStore := store.New(clockAdapter)
	processor := indexer.NewProcessor(stateStore)

	scanner := indexer.NewScanner(indexer.Config{
		ChainID:        cfg.Ethereum.ChainID,
		Interval:       cfg.Ethereum.ScanInterval,
		LookbackBlocks: cfg.Ethereum.LookbackBlocks,
	}, chainClient, headProvider, processor, clockAdapter)

	apiServer := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}, stateStore, scanner.Status)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	// Start the scan loop
	go func() {
		if err := scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Start the API server
	go func() {
		if err := apiServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or component error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "indexer"))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}

	logger.Info("Option indexer stopped")
}
