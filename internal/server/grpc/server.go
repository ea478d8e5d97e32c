// Package grpc exposes AuthService over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
)

// SignInService is the part of services.AuthService the transport needs.
type SignInService interface {
	SignIn(ctx context.Context, req services.SignInRequest) (*services.SignInResult, error)
}

// TokenParser verifies session tokens presented by callers.
type TokenParser interface {
	Parse(token string) (*auth.SessionToken, error)
}

type GRPCServer struct {
	address string
	users   SignInService
	tokens  TokenParser
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us SignInService, tp TokenParser) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		tokens:  tp,
	}
}

// NewServer returns a grpc.Server with the interceptor chain and the
// service registered, but not yet serving.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.requestLogInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterAuthServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
