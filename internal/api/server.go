package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// Server is the public HTTP server.
type Server struct {
	cfg     config.ApplicationConfig
	handler http.Handler
	server  *http.Server
	log     *logger.Logger
}

// NewServer builds the router and HTTP server for cfg.
func NewServer(cfg *config.Config, svc SubscriptionService, health *HealthChecker, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	router := NewRouter(NewSubscriptionHandlers(svc, log), health, cfg.CORS, log)

	return &Server{
		cfg:     cfg.Application,
		handler: router,
		log:     log,
		server: &http.Server{
			Addr:              cfg.Application.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// delivery alone may take up to the email client timeout
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("HTTP server listening", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
