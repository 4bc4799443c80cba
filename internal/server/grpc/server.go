package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/samber/oops"
	"google.golang.org/grpc"
)

type registerer interface {
	Execute(ctx context.Context, in *services.RegisterInput) (*models.PublicUser, error)
}

type authenticator interface {
	Execute(ctx context.Context, in *services.LoginInput) (*services.LoginResult, error)
}

type tokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type authEventRecorder interface {
	RecordAuthEvent(operation, outcome string)
}

// Deps are the collaborators the service calls into. Metrics may be nil.
type Deps struct {
	Register registerer
	Login    authenticator
	Tokens   tokenVerifier
	Store    pinger
	Metrics  authEventRecorder
	Logger   logging.Logger
}

type GRPCServer struct {
	address  string
	register registerer
	login    authenticator
	tokens   tokenVerifier
	store    pinger
	metrics  authEventRecorder
	logger   logging.Logger
}

var netListen = net.Listen

func NewGRPCServer(address string, deps Deps) *GRPCServer {
	return &GRPCServer{
		address:  address,
		register: deps.Register,
		login:    deps.Login,
		tokens:   deps.Tokens,
		store:    deps.Store,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With("module", "grpc_server"),
	}
}

// NewServer returns a grpc.Server with the interceptors installed and the
// auth service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterAuthServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := netListen("tcp", s.address)
	if err != nil {
		return oops.Code("GRPC_LISTEN").With("addr", s.address).Wrap(err)
	}

	srv := s.NewServer()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		cancel()
		<-stopped
		return oops.Code("GRPC_SERVE").Wrap(err)
	}

	<-stopped
	return nil
}

func (s *GRPCServer) recordAuthEvent(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAuthEvent(operation, outcome)
	}
}
