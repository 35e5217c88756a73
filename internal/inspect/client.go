package inspect

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a thin typed wrapper over a connection to the inspection
// service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetHighlights lists highlights, filtered to tier when it is non-empty.
func (c *Client) GetHighlights(ctx context.Context, tier string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if tier != "" {
		req.Fields["tier"] = structpb.NewStringValue(tier)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetHighlights, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats fetches engine counters for the latest tick.
func (c *Client) GetStats(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetStats, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset queues an engine reset.
func (c *Client) Reset(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodReset, &emptypb.Empty{}, &emptypb.Empty{}, opts...)
}
