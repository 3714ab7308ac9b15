// Package main provides the console API server: the backend the vesting,
// lock and payroll panels talk to.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vesting-console/internal/adapter"
	"github.com/vesting-console/internal/api"
	"github.com/vesting-console/internal/config"
	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/retry"
	"github.com/vesting-console/internal/service"
	"github.com/vesting-console/internal/types"
)

func main() {
	fmt.Println("Vesting Console API Server")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
		"env":    cfg.AppEnv,
	}).Info("Structured logging initialized")

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.Wallet.ConnectProjectID == "" {
		logger.Warn("WALLETCONNECT_PROJECT_ID is not set; wallet connection will not work outside development")
	}

	// Contacts API client and the session's contact store
	client, err := adapter.NewContactsClient(&adapter.ContactsClientConfig{
		BaseURL:           cfg.ContactsAPI.BaseURL,
		Timeout:           cfg.ContactsAPI.Timeout,
		RequestsPerSecond: cfg.ContactsAPI.RequestsPerSecond,
		BreakerFailures:   cfg.ContactsAPI.BreakerFailures,
		BreakerCooldown:   cfg.ContactsAPI.BreakerCooldown,
		Logger:            logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create contacts client")
	}

	notifications := service.NewNotificationQueue(cfg.Store.NotificationBuffer)
	store := service.NewContactStore(
		client,
		service.MultiNotifier{service.NewLogNotifier(logger), notifications},
		&service.ContactStoreConfig{
			ReconcileAfterMutation: cfg.Store.ReconcileAfterMutation,
			Logger:                 logger,
		},
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.ContactsAPI.Timeout+5*time.Second)
	if err := store.Mount(startupCtx); err != nil {
		logger.WithError(err).Warn("Contact load on mount failed")
	}
	if cfg.Wallet.Address != "" {
		if err := store.SetWallet(startupCtx, cfg.Wallet.Address); err != nil {
			logger.WithError(err).Warn("Initial contact load failed; the console will retry on reload")
		}
	}

	// Chain reads for the dashboard
	chainID, ok := types.ParseChainID(cfg.Chains.Default)
	if !ok {
		chainID = types.ChainEthereum
	}

	var reader service.BalanceReader
	if chainCfg, ok := cfg.DefaultChain(); ok && chainCfg.RPCPrimary != "" {
		endpoints := []string{chainCfg.RPCPrimary, chainCfg.RPCSecondary}
		dialCtx, cancelDial := context.WithTimeout(logging.WithLogger(context.Background(), logger), 20*time.Second)
		var chainReader *adapter.ChainReader
		err := retry.WithRetry(dialCtx, retry.DefaultRetryConfig(), func(ctx context.Context, attempt int) error {
			var err error
			chainReader, err = adapter.DialChainReader(ctx, endpoints, logger)
			return err
		})
		cancelDial()
		if err != nil {
			logger.WithError(err).WithField("chain", chainID).Warn("Chain RPC unavailable; dashboard balances disabled")
		} else {
			reader = chainReader
			logger.WithField("chain", chainID).Info("Chain reader initialized")
		}
	} else {
		logger.WithField("chain", chainID).Warn("No RPC endpoint configured; dashboard balances disabled")
	}
	cancelStartup()

	// Transactions are signed by the user's wallet in the browser, so the
	// server only prepares previews.
	panels := service.NewPanelService(&service.PanelServiceConfig{
		Chain:  chainID,
		Reader: reader,
		Logger: logger,
	})

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		WalletRPS:       cfg.Server.WalletRPS,
		ComposeIdleTTL:  cfg.Server.ComposeIdleTTL,
		PayrollToken:    cfg.Token.Address,
		PayrollDecimals: int32(cfg.Token.Decimals),
	}

	server := api.NewServer(serverConfig, service.NewContactsProvider(store), panels, notifications, logger)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host":         cfg.Server.Host,
		"port":         cfg.Server.Port,
		"contacts_api": cfg.ContactsAPI.BaseURL,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
