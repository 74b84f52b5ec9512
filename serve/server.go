package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	netguardian "github.com/zero-day-ai/netguardian"
	"github.com/zero-day-ai/netguardian/score"
	"github.com/zero-day-ai/netguardian/secret"
	"github.com/zero-day-ai/netguardian/store"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the gRPC health service reports readiness under.
const ServiceName = "netguardian.Scoring"

// Config holds listen addresses and lifecycle settings.
type Config struct {
	// Addr is the HTTP listen address. Default: ":8080".
	Addr string

	// GRPCAddr is the gRPC health listen address. Empty disables gRPC.
	GRPCAddr string

	// ShutdownTimeout bounds graceful shutdown before connections are
	// dropped. Default: 10s.
	ShutdownTimeout time.Duration

	// ReadyInterval is how often readiness is re-evaluated for the gRPC
	// health service. Default: 10s.
	ReadyInterval time.Duration
}

// Server runs the HTTP API and the gRPC health service.
type Server struct {
	cfg Config

	engine        *score.Engine
	store         store.Store
	secret        secret.Provider
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	tlsCertFile   string
	tlsKeyFile    string

	handler      *handler
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener
	healthServer *grpchealth.Server
}

// New binds the listeners and wires the API. Nothing is served until Serve.
func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ReadyInterval <= 0 {
		cfg.ReadyInterval = 10 * time.Second
	}

	s := &Server{
		cfg:           cfg,
		store:         store.NewMemory(),
		logger:        slog.Default(),
		meterProvider: noop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.secret == nil {
		return nil, netguardian.NewConfigurationError("serve.New",
			fmt.Errorf("%w: a fingerprint secret provider is required", netguardian.ErrInvalidConfig))
	}
	if s.engine == nil {
		s.engine = score.Default()
	}

	m, err := newMetrics(s.meterProvider)
	if err != nil {
		return nil, netguardian.NewInternalError("serve.New", fmt.Errorf("failed to create metrics: %w", err))
	}

	s.handler = &handler{
		engine:  s.engine,
		store:   s.store,
		secret:  s.secret,
		metrics: m,
		logger:  s.logger,
	}

	s.httpListener, err = net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, netguardian.NewNetworkError("serve.New", fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err))
	}
	s.httpServer = &http.Server{
		Handler:           s.handler.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	if cfg.GRPCAddr != "" {
		if err := s.setupGRPC(); err != nil {
			s.httpListener.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) setupGRPC() error {
	var opts []grpc.ServerOption
	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(s.tlsCertFile, s.tlsKeyFile)
		if err != nil {
			return netguardian.NewConfigurationError("serve.New", fmt.Errorf("failed to load TLS credentials: %w", err))
		}
		opts = append(opts, grpc.Creds(creds))
	}

	lis, err := net.Listen("tcp", s.cfg.GRPCAddr)
	if err != nil {
		return netguardian.NewNetworkError("serve.New", fmt.Errorf("failed to listen on %s: %w", s.cfg.GRPCAddr, err))
	}

	s.grpcListener = lis
	s.grpcServer = grpc.NewServer(opts...)
	s.healthServer = grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.healthServer)
	s.healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return nil
}

// Handler returns the HTTP API, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the bound HTTP address, useful with port 0.
func (s *Server) Addr() string {
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC address, or "" when gRPC is disabled.
func (s *Server) GRPCAddr() string {
	if s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Serve blocks until ctx is cancelled, SIGINT/SIGTERM arrives or a listener
// fails, then shuts down gracefully. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if s.grpcServer != nil {
		go func() {
			if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	readyCtx, stopReady := context.WithCancel(ctx)
	defer stopReady()
	go s.watchReadiness(readyCtx)

	s.logger.Info("scoring service listening", "addr", s.Addr(), "grpc_addr", s.GRPCAddr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		s.logger.Info("received signal, shutting down gracefully", "signal", sig.String())
	case serveErr = <-errCh:
		s.logger.Error("server failed, shutting down", "error", serveErr)
	}

	stopReady()
	if err := s.Shutdown(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

func (s *Server) watchReadiness(ctx context.Context) {
	if s.healthServer == nil {
		return
	}

	update := func() {
		checkCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadyInterval)
		defer cancel()

		req, _ := http.NewRequestWithContext(checkCtx, http.MethodGet, "/ready", nil)
		status := grpc_health_v1.HealthCheckResponse_SERVING
		if !s.handler.readiness(req).Usable() {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		s.healthServer.SetServingStatus(ServiceName, status)
	}

	update()
	ticker := time.NewTicker(s.cfg.ReadyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

// Shutdown stops accepting requests and waits up to ShutdownTimeout for
// in-flight ones, then forces the servers closed. The store is closed last.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if s.healthServer != nil {
		s.healthServer.Shutdown()
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful http shutdown timed out, forcing close", "error", err)
		errs = append(errs, s.httpServer.Close())
	}

	if s.grpcServer != nil {
		done := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("graceful gRPC shutdown timed out, forcing stop")
			s.grpcServer.Stop()
		}
	}

	netguardian.CloseWithLog(s.store, s.logger, "scan store")
	s.logger.Info("scoring service stopped")
	return errors.Join(errs...)
}
