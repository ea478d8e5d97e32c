// Service descriptor for gophauth.AuthService. Requests and responses use
// protobuf well-known types so no generated code is needed:
//
//	SignIn:  Struct{login, password} -> StringValue(token)
//	Session: Empty (token in metadata) -> Struct{sub, username, email, exp}
//	Ping:    Empty -> StringValue("OK")

package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AuthServiceServer is the server API for gophauth.AuthService.
type AuthServiceServer interface {
	SignIn(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Session(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

func signInHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).SignIn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: common.SignInMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).SignIn(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func sessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Session(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: common.SessionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Session(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: common.PingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// AuthServiceDesc describes gophauth.AuthService for grpc.Server.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: common.ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignIn", Handler: signInHandler},
		{MethodName: "Session", Handler: sessionHandler},
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/auth.proto",
}
