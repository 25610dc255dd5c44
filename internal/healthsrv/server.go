// Package healthsrv exposes the standard gRPC health service for the refresh
// daemon. The overall status ("") follows the database; the "refresher"
// service follows the outcome of the last refresh pass.
package healthsrv

import (
	"context"
	"net"

	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceRefresher is the health service name reporting refresh passes.
const ServiceRefresher = "refresher"

type Server struct {
	address string
	logger  logging.Logger
	health  *health.Server
}

func New(address string, l logging.Logger) *Server {
	s := &Server{
		address: address,
		logger:  l.With("module", "health_server"),
		health:  health.NewServer(),
	}
	s.health.SetServingStatus(ServiceRefresher, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetServing flips the status of service; "" is the overall status.
func (s *Server) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
