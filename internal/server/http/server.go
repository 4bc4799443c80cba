// Package http is the JSON over HTTP boundary of the auth service.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/samber/oops"
)

// Options configures the HTTP boundary.
type Options struct {
	Addr            string
	APIPrefix       string
	AllowedOrigin   string
	Development     bool
	ShutdownTimeout time.Duration
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Register registerer
	Login    authenticator
	Tokens   tokenVerifier
	Store    pinger
	Metrics  *Metrics
	Logger   logging.Logger
}

type Server struct {
	opts     Options
	handler  http.Handler
	logger   logging.Logger
	mu       sync.Mutex
	listener net.Listener
}

func NewServer(opts Options, deps Deps) *Server {
	logger := deps.Logger.With("module", "http_server")
	return &Server{
		opts:    opts,
		handler: NewRouter(opts, deps),
		logger:  logger,
	}
}

// NewRouter builds the full handler chain.
func NewRouter(opts Options, deps Deps) http.Handler {
	logger := deps.Logger.With("module", "http")
	h := &Handlers{
		register:    deps.Register,
		login:       deps.Login,
		tokens:      deps.Tokens,
		store:       deps.Store,
		metrics:     deps.Metrics,
		logger:      logger,
		development: opts.Development,
	}

	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/register", h.Register)
	mux.HandleFunc("POST "+prefix+"/create-user", h.Register)
	mux.HandleFunc("POST "+prefix+"/login", h.Login)
	mux.Handle("GET "+prefix+"/me", h.AuthMiddleware(http.HandlerFunc(h.Me)))
	mux.HandleFunc("GET /health", h.Health)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
	mux.HandleFunc("/", h.NotFound)

	return Chain(mux,
		RecoverMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger),
		CORSMiddleware(opts.AllowedOrigin),
		MetricsMiddleware(deps.Metrics),
	)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once Run has started listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN").With("addr", s.opts.Addr).Wrap(err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "http server started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return oops.Code("HTTP_SERVE").Wrap(err)
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN").Wrap(err)
	}
	<-errCh

	s.logger.Info(ctx, "http server stopped")
	return nil
}
