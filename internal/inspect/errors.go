package inspect

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNoSnapshot is returned before the first tick has been published.
	ErrNoSnapshot = errors.New("no snapshot published yet")
	// ErrInvalidArgument is returned for malformed request fields.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ToStatusError maps inspection errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNoSnapshot):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
