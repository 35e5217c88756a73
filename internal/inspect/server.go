package inspect

import (
	"github.com/signalsfoundry/itemglow/internal/logging"
	"github.com/signalsfoundry/itemglow/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// NewGRPCServer builds a gRPC server with the standard interceptor chain
// (request id, tracing, and metrics when collector is set) and registers
// svc on it.
func NewGRPCServer(svc InspectServer, log logging.Logger, collector *observability.InspectCollector, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}

	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}
	server := grpc.NewServer(append(base, opts...)...)
	RegisterInspectServer(server, svc)
	return server
}
