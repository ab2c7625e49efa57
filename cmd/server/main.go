package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/lotflow/internal/config"
	"github.com/garyjia/lotflow/internal/container"
	lotHTTP "github.com/garyjia/lotflow/internal/interfaces/http"
	"github.com/garyjia/lotflow/pkg/utils"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting lot status service",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	services, engines := c.Services(), c.Engines()
	srvCfg := c.Config().Server

	lotHTTP.Version = version
	server := lotHTTP.NewServer(
		lotHTTP.ServerConfig{
			Host:          srvCfg.Host,
			Port:          srvCfg.Port,
			ReadTimeout:   srvCfg.ReadTimeout,
			WriteTimeout:  srvCfg.WriteTimeout,
			EnableMetrics: srvCfg.EnableMetrics,
			MetricsPath:   srvCfg.MetricsPath,
		},
		lotHTTP.Services{
			Lots:          services.Lots,
			Evidence:      services.Evidence,
			Requests:      services.Requests,
			Notifications: services.Notifications,
			Export:        services.Export,
		},
		lotHTTP.Engines{
			CMLot:   engines.CMLot,
			PackLot: engines.PackLot,
			Request: engines.Request,
		},
		utils.NewKVLogger(logger),
	)

	// Start blocks until the signal context is cancelled
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
