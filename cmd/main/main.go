package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resource-streamer/src/bridge"
	"resource-streamer/src/config"
	"resource-streamer/src/gateway"
	"resource-streamer/src/grpc_control"
	"resource-streamer/src/interfaces"
	"resource-streamer/src/logger"
	"resource-streamer/src/notifiers"
	"resource-streamer/src/rest"
	"resource-streamer/src/serializers"
	"resource-streamer/src/streamer"
)

func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg, cfg.Name)

	// Serializer for outbound notifications
	var serializer interfaces.ISerializer
	switch cfg.Serialization {
	case "gob":
		serializer = serializers.NewBinSerializer()
	default:
		serializer = serializers.NewJSONSerializer()
	}

	// Change notifier: NATS when enabled, otherwise a no-op
	var notifier interfaces.INotifier
	if cfg.NATS.Enabled {
		notifier = notifiers.NewNATSNotifier(&cfg.NATS, appLogger, serializer)
		if err := notifier.Connect(); err != nil {
			appLogger.Critical("failed to connect notifier: %v", err)
		}
	} else {
		notifier = notifiers.NewNoopNotifier()
	}
	defer notifier.Disconnect()

	// Gateway session
	gw := gateway.NewWebSocketGateway(cfg, appLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gw.Connect(ctx); err != nil {
		appLogger.Critical("failed to connect gateway: %v", err)
	}
	defer gw.Disconnect()

	// Bridge and subscription manager
	br := bridge.NewBridge(gw, appLogger, cfg.Gateway.ChannelBuffer)
	manager := streamer.NewManager(cfg, appLogger, br, notifier)

	// gRPC health service
	grpcService, err := grpc_control.NewGRPCService(cfg, appLogger, gw)
	if err != nil {
		appLogger.Critical("failed to create gRPC service: %v", err)
	}

	go func() {
		if err := grpcService.Start(); err != nil {
			appLogger.Critical("gRPC server error: %v", err)
		}
	}()

	// REST control surface
	restServer := rest.NewRESTServer(cfg, appLogger, manager, gw)
	go func() {
		if err := restServer.Start(); err != nil {
			appLogger.Critical("REST server error: %v", err)
		}
	}()

	appLogger.Info("resource streamer running. REST: %s:%d, gRPC: %s:%d",
		cfg.RestHost, cfg.RestPort, cfg.GRPCHost, cfg.GRPCPort)
	appLogger.Info("Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		appLogger.Error("REST shutdown error: %v", err)
	}
	grpcService.Stop(shutdownCtx)

	if err := manager.Close(shutdownCtx); err != nil {
		appLogger.Error("manager shutdown error: %v", err)
	}
}
