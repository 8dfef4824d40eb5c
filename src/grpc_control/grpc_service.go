package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	"resource-streamer/src/config"
	"resource-streamer/src/interfaces"
	"resource-streamer/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// -----------------------------------------------------------------------------
// GRPCService exposes the standard gRPC health protocol for orchestration
// probes. Serving status tracks the gateway session: SERVING while connected,
// NOT_SERVING otherwise.
// -----------------------------------------------------------------------------

const healthServiceName = "resource_streamer.Streamer"

type GRPCService struct {
	server       *grpc.Server
	listener     net.Listener
	healthServer *health.Server
	config       *config.Config
	logger       *logger.Logger
	gateway      interfaces.IGatewayClient
	running      bool
	done         chan struct{}
}

// -----------------------------------------------------------------------------

// NewGRPCService creates a new GRPCService instance
func NewGRPCService(config *config.Config, logger *logger.Logger, gateway interfaces.IGatewayClient) (*GRPCService, error) {
	address := fmt.Sprintf("%s:%d", config.GRPCHost, config.GRPCPort)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	serverOptions := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(10 * 1024 * 1024), // 10MB
		grpc.MaxSendMsgSize(10 * 1024 * 1024), // 10MB
	}

	return &GRPCService{
		server:       grpc.NewServer(serverOptions...),
		listener:     listener,
		healthServer: health.NewServer(),
		config:       config,
		logger:       logger,
		gateway:      gateway,
		running:      false,
		done:         make(chan struct{}),
	}, nil
}

// -----------------------------------------------------------------------------

// Start registers the health service and serves until Stop is called
func (g *GRPCService) Start() error {
	g.logger.Info("Starting gRPC service on %s", g.listener.Addr().String())

	grpc_health_v1.RegisterHealthServer(g.server, g.healthServer)
	g.healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	go g.trackGatewayStatus()

	g.running = true
	if err := g.server.Serve(g.listener); err != nil && err != grpc.ErrServerStopped {
		g.running = false
		return fmt.Errorf("gRPC server failed: %w", err)
	}
	g.running = false
	return nil
}

// -----------------------------------------------------------------------------

// trackGatewayStatus mirrors the gateway session state into the health service
func (g *GRPCService) trackGatewayStatus() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			status := grpc_health_v1.HealthCheckResponse_SERVING
			if !g.gateway.IsConnected() {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			g.healthServer.SetServingStatus(healthServiceName, status)
		}
	}
}

// -----------------------------------------------------------------------------

// Stop gracefully stops the gRPC server
func (g *GRPCService) Stop(ctx context.Context) error {
	g.logger.Info("Stopping gRPC service...")
	close(g.done)

	if g.server != nil {
		done := make(chan struct{})
		go func() {
			g.server.GracefulStop()
			close(done)
		}()

		select {
		case <-ctx.Done():
			g.logger.Warning("gRPC graceful shutdown timeout, forcing stop...")
			g.server.Stop()
		case <-done:
			g.logger.Info("gRPC service stopped gracefully")
		}
	}

	g.running = false
	return nil
}

// -----------------------------------------------------------------------------

// IsRunning returns whether the gRPC server is running
func (g *GRPCService) IsRunning() bool {
	return g.running
}
