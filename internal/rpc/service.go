// Package rpc describes the mediakeeper.v1.EntityStore gRPC service.
//
// Messages are the protobuf well-known types (Struct, ListValue, wrappers,
// Empty), so the service needs no generated code: this file plays the role
// a protoc-gen-go-grpc output would. The equivalent proto definition is:
//
//	service EntityStore {
//	  rpc Ping(google.protobuf.Empty) returns (google.protobuf.StringValue);
//	  // {"entityType": string, "payload": {...}} -> stored payload
//	  rpc Upsert(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  // {"entityType": string, "id": string} -> existed
//	  rpc Delete(google.protobuf.Struct) returns (google.protobuf.BoolValue);
//	  // entity type -> list of payloads
//	  rpc ListAll(google.protobuf.StringValue) returns (google.protobuf.ListValue);
//	}
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "mediakeeper.v1.EntityStore"

const (
	FullMethodPing    = "/" + ServiceName + "/Ping"
	FullMethodUpsert  = "/" + ServiceName + "/Upsert"
	FullMethodDelete  = "/" + ServiceName + "/Delete"
	FullMethodListAll = "/" + ServiceName + "/ListAll"
)

// EntityStoreServer is implemented by the authoritative store server.
type EntityStoreServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Upsert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	ListAll(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
}

// EntityStoreClient is the client side of the service.
type EntityStoreClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	ListAll(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type entityStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewEntityStoreClient(cc grpc.ClientConnInterface) EntityStoreClient {
	return &entityStoreClient{cc: cc}
}

func (c *entityStoreClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, FullMethodPing, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *entityStoreClient) Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodUpsert, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *entityStoreClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, FullMethodDelete, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *entityStoreClient) ListAll(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FullMethodListAll, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterEntityStoreServer attaches srv to s.
func RegisterEntityStoreServer(s grpc.ServiceRegistrar, srv EntityStoreServer) {
	s.RegisterService(&EntityStoreServiceDesc, srv)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EntityStoreServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodPing}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EntityStoreServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func upsertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EntityStoreServer).Upsert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodUpsert}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EntityStoreServer).Upsert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EntityStoreServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodDelete}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EntityStoreServer).Delete(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listAllHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EntityStoreServer).ListAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodListAll}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EntityStoreServer).ListAll(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// EntityStoreServiceDesc is the grpc.ServiceDesc for EntityStore.
var EntityStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EntityStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "Upsert", Handler: upsertHandler},
		{MethodName: "Delete", Handler: deleteHandler},
		{MethodName: "ListAll", Handler: listAllHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mediakeeper/v1/entity_store.proto",
}
