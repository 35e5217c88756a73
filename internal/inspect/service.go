// Package inspect exposes the engine's published state over gRPC. Messages
// are protobuf well-known types, so no generated code is needed.
package inspect

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/internal/logging"
	"github.com/signalsfoundry/itemglow/internal/outline"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "itemglow.inspect.v1.InspectService"

// Full method names.
const (
	MethodGetHighlights = "/" + ServiceName + "/GetHighlights"
	MethodGetStats      = "/" + ServiceName + "/GetStats"
	MethodReset         = "/" + ServiceName + "/Reset"
)

// InspectServer is the server API for the inspection service.
type InspectServer interface {
	// GetHighlights lists highlighted entities. The request may carry a
	// "tier" string field to filter by tier.
	GetHighlights(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Reset queues an engine ClearAll for the next tick.
	Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// ServiceDesc describes the inspection service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InspectServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetHighlights", Handler: getHighlightsHandler},
		{MethodName: "GetStats", Handler: getStatsHandler},
		{MethodName: "Reset", Handler: resetHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterInspectServer registers srv on s.
func RegisterInspectServer(s grpc.ServiceRegistrar, srv InspectServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getHighlightsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectServer).GetHighlights(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetHighlights}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectServer).GetHighlights(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetStats}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectServer).GetStats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func resetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectServer).Reset(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodReset}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectServer).Reset(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// GroupLister lists outline groups. *outline.Registry satisfies it.
type GroupLister interface {
	Groups() []outline.Group
}

// Service implements InspectServer on top of a Store.
type Service struct {
	store  *Store
	groups GroupLister
	log    logging.Logger
}

var _ InspectServer = (*Service)(nil)

// NewService builds the inspection service. groups may be nil.
func NewService(store *Store, groups GroupLister, log logging.Logger) *Service {
	if log == nil {
		log = logging.Noop()
	}
	return &Service{store: store, groups: groups, log: log}
}

// GetHighlights implements InspectServer.
func (s *Service) GetHighlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, hasFilter, err := tierFilter(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	snap, _, ok := s.store.Latest()
	if !ok {
		return nil, ToStatusError(ErrNoSnapshot)
	}

	highlights := make([]any, 0, len(snap.Highlights))
	for _, h := range snap.Highlights {
		if hasFilter && h.Tier != filter {
			continue
		}
		highlights = append(highlights, map[string]any{
			"id":    h.ID.String(),
			"tier":  h.Tier.String(),
			"color": h.Color.Hex(),
		})
	}

	out, err := structpb.NewStruct(map[string]any{
		"tick":       snap.Tick,
		"generation": snap.Generation,
		"context":    snap.Context,
		"highlights": highlights,
	})
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// GetStats implements InspectServer.
func (s *Service) GetStats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, report, ok := s.store.Latest()
	if !ok {
		return nil, ToStatusError(ErrNoSnapshot)
	}

	fields := map[string]any{
		"tick":             snap.Tick,
		"generation":       snap.Generation,
		"context":          snap.Context,
		"tracked":          snap.Tracked,
		"should_glow":      len(snap.Highlights),
		"members":          snap.Members,
		"verdicts":         snap.Verdicts,
		"visited":          report.Visited,
		"occlusion_checks": report.OcclusionChecks,
		"excluded":         report.Excluded,
		"dead":             report.Dead,
		"reaped":           report.Reaped,
		"group_adds":       report.GroupAdds,
		"group_removes":    report.GroupRemoves,
	}
	if s.groups != nil {
		groups := s.groups.Groups()
		list := make([]any, 0, len(groups))
		for _, g := range groups {
			list = append(list, map[string]any{
				"name":    g.Name,
				"color":   g.Color.Hex(),
				"glow":    g.Glow,
				"members": g.Members,
			})
		}
		fields["groups"] = list
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// Reset implements InspectServer. The reset itself happens on the tick
// goroutine; the call returns once it is queued.
func (s *Service) Reset(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	_, span := startChildSpan(ctx, "inspect.Reset", attribute.Bool("queued", true))
	defer span.End()

	s.store.RequestReset()
	logging.FromContext(ctx, s.log).Info(ctx, "engine reset requested")
	return &emptypb.Empty{}, nil
}

func tierFilter(req *structpb.Struct) (core.Tier, bool, error) {
	v, ok := req.GetFields()["tier"]
	if !ok {
		return 0, false, nil
	}
	name, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return 0, false, fmt.Errorf("%w: tier must be a string", ErrInvalidArgument)
	}
	t, err := core.ParseTier(name.StringValue)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return t, true, nil
}
