package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(common.PingStatusOK), nil
}

func (s *GRPCServer) Upsert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	entityType, payload, err := rpc.ParseUpsertRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	stored, err := s.entities.Upsert(ctx, userID, entityType, payload)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out, err := rpc.PayloadToStruct(stored)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	entityType, id, err := rpc.ParseDeleteRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	existed, err := s.entities.Delete(ctx, userID, entityType, id)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Bool(existed), nil
}

func (s *GRPCServer) ListAll(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	records, err := s.entities.ListAll(ctx, userID, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out, err := rpc.PayloadsToList(records)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}

// toStatus maps validation failures to InvalidArgument; anything else is
// logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidEntityType),
		errors.Is(err, common.ErrMissingID),
		errors.Is(err, rpc.ErrMalformedRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
