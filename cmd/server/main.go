package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/baglabel/backend/config"
	httpDelivery "github.com/baglabel/backend/internal/delivery/http"
	"github.com/baglabel/backend/internal/infrastructure/cache"
	"github.com/baglabel/backend/internal/infrastructure/fetcher"
	"github.com/baglabel/backend/internal/infrastructure/logging"
	"github.com/baglabel/backend/internal/infrastructure/storefront"
	"github.com/baglabel/backend/internal/usecase"
	"github.com/baglabel/backend/internal/version"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "baglabel: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closer, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer closer.Close()

	logger.WithFields(logrus.Fields{
		"version":     version.Version,
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	}).Info("starting baglabel backend")

	// Infrastructure
	memoryCache := cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	logger.WithFields(logrus.Fields{
		"max_entries": cfg.Cache.MaxEntries,
		"ttl":         cfg.Cache.TTL,
	}).Info("cache configured")

	pageFetcher := fetcher.NewClient(fetcherConfig(cfg.Fetcher), logger)
	extractor := storefront.NewExtractor(logger)

	drying, err := usecase.LoadDryingTable(cfg.Drying.TableFile)
	if err != nil {
		return fmt.Errorf("failed to load drying table: %w", err)
	}
	source := "embedded"
	if cfg.Drying.TableFile != "" {
		source = cfg.Drying.TableFile
	}
	logger.WithFields(logrus.Fields{"entries": drying.Len(), "source": source}).Info("drying table loaded")

	// Usecase layer
	productService := usecase.NewProductService(
		memoryCache,
		pageFetcher,
		extractor,
		drying,
		usecase.ProductServiceConfig{
			CacheTTL: cfg.Cache.TTL,
			URLPolicy: usecase.URLPolicy{
				AllowedHosts:      cfg.Storefront.AllowedHosts,
				ProductPathMarker: cfg.Storefront.ProductPathMarker,
			},
			EmbedImages: cfg.Storefront.EmbedImages,
		},
		logger,
	)

	// Delivery
	handler := httpDelivery.NewHandler(productService, drying, memoryCache, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func fetcherConfig(c config.FetcherConfig) fetcher.Config {
	return fetcher.Config{
		Timeout:           c.Timeout,
		UserAgent:         c.UserAgent,
		Accept:            c.Accept,
		AcceptLanguage:    c.AcceptLanguage,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		MaxBodyBytes:      c.MaxBodyBytes,
		MaxRetries:        c.MaxRetries,
	}
}
