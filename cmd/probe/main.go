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
	"resource-streamer/src/logger"
	"resource-streamer/src/models"
	"resource-streamer/src/notifiers"
	"resource-streamer/src/streamer"
)

// Manual smoke harness: connects to a live gateway endpoint, starts a couple
// of subscriptions, prints snapshots every few seconds until interrupted.
func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	symbol := flag.String("symbol", "AAPL", "symbol to subscribe")
	account := flag.String("account", "", "account code for a portfolio subscription")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg, "probe")

	gw := gateway.NewWebSocketGateway(cfg, appLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gw.Connect(ctx); err != nil {
		appLogger.Critical("failed to connect gateway: %v", err)
	}
	defer gw.Disconnect()

	br := bridge.NewBridge(gw, appLogger, cfg.Gateway.ChannelBuffer)
	manager := streamer.NewManager(cfg, appLogger, br, notifiers.NewNoopNotifier())

	desc, status, err := manager.Start(ctx, models.ResourceMarketData, models.MResourceParams{Symbol: *symbol})
	if err != nil {
		appLogger.Critical("failed to start market data: %v", err)
	}
	appLogger.Info("started %s (%s)", desc.URI, status)

	if *account != "" {
		pdesc, pstatus, err := manager.Start(ctx, models.ResourcePortfolio, models.MResourceParams{Account: *account})
		if err != nil {
			appLogger.Error("failed to start portfolio: %v", err)
		} else {
			appLogger.Info("started %s (%s)", pdesc.URI, pstatus)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, info := range manager.List() {
				snap, err := manager.Read(info.ResourceType, info.ResourceID)
				if err != nil {
					appLogger.Error("read %s failed: %v", info.URI, err)
					continue
				}
				appLogger.Info("%s [%s] last_event=%s snapshot=%+v",
					info.URI, info.Status, info.LastEventTime.Format(time.RFC3339), snap)
			}
		case <-sigChan:
			appLogger.Info("shutting down...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			if err := manager.Close(shutdownCtx); err != nil {
				appLogger.Error("shutdown error: %v", err)
			}
			return
		}
	}
}
