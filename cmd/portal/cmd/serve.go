package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/internal/config"
	"github.com/algenord/portal/internal/observability"
	"github.com/algenord/portal/portal"
	"github.com/algenord/portal/storage"
	bboltstorage "github.com/algenord/portal/storage/bbolt"
	"github.com/algenord/portal/storage/memory"
	redisstorage "github.com/algenord/portal/storage/redis"
)

const sweepInterval = time.Minute

var (
	addr       string
	apiBaseURL string
	dataDir    string
	backend    string
	redisAddr  string
	logLevel   string
	proxies    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := observability.NewLogger(cfg.Logger.Level)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		durable, closeDurable, err := openDurable(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeDurable()

		shortLived := memory.NewStore(memory.WithTTL(cfg.Storage.PendingTTL()))
		go shortLived.RunSweeper(ctx, sweepInterval)

		srv := portal.New(portal.Config{
			APIBaseURL:     cfg.Backend.BaseURL,
			AssetBaseURL:   cfg.Backend.AssetBaseURL,
			HTTPClient:     &http.Client{Timeout: cfg.Backend.HTTPTimeout()},
			Durable:        durable,
			ShortLived:     shortLived,
			Logger:         logger,
			Metrics:        observability.NewMetrics(gateway.Collectors()...),
			SecureCookie:   cfg.Server.SecureCookie,
			TrustedProxies: cfg.Server.TrustedProxies,
		})
		go srv.RunSweeper(ctx, sweepInterval)
		handler, err := srv.Handler()
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner(cmd.OutOrStdout())
		logger.Info("portal listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("api", cfg.Backend.BaseURL),
			zap.String("storage", cfg.Storage.Backend),
		)

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("api-base-url") {
		cfg.Backend.BaseURL = apiBaseURL
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("storage") {
		cfg.Storage.Backend = backend
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = redisAddr
	}
	if flags.Changed("log-level") {
		cfg.Logger.Level = logLevel
	}
	if flags.Changed("trusted-proxies") {
		cfg.Server.TrustedProxies, err = config.ParseTrustedProxies(proxies)
		if err != nil {
			return nil, fmt.Errorf("invalid --trusted-proxies: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDurable opens the store holding tokens and filters. Values are sealed
// when a storage secret is configured.
func openDurable(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, func() error, error) {
	var (
		store   storage.Store
		closeFn = func() error { return nil }
	)
	switch cfg.Storage.Backend {
	case config.StorageBBolt:
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		s, err := bboltstorage.NewStoreFromFile(filepath.Join(cfg.Storage.DataDir, "portal.db"), nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open portal storage: %w", err)
		}
		store, closeFn = s, s.Close
	case config.StorageRedis:
		client, err := redisstorage.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = redisstorage.NewStore(client, redisstorage.WithPrefix("portal:durable")), client.Close
	default:
		logger.Warn("using in-memory storage, sessions are lost on restart")
		store = memory.NewStore()
	}

	if cfg.Storage.Secret == "" {
		logger.Warn("PORTAL_STORAGE_SECRET not set, tokens are stored unsealed")
		return store, closeFn, nil
	}
	key, err := storage.DeriveSealKey([]byte(cfg.Storage.Secret))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	defer memguard.WipeBytes(key)
	return storage.Sealed(store, key), closeFn, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":3000", "Address to listen on")
	serveCmd.Flags().StringVar(&apiBaseURL, "api-base-url", "http://localhost:8080/api", "REST backend base URL")
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
	serveCmd.Flags().StringVar(&backend, "storage", config.StorageBBolt, "Client storage backend (bbolt, redis, memory)")
	serveCmd.Flags().StringVar(&redisAddr, "redis-addr", "127.0.0.1:6379", "Redis address for the redis storage backend")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&proxies, "trusted-proxies", "", "Comma-separated CIDRs of proxies whose X-Forwarded-For is trusted")
}
