package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// toStatus maps service errors onto gRPC codes. Only the sentinel messages
// travel to the caller.
func toStatus(err error) error {
	if errors.Is(err, common.ErrorInvalidCredentials) {
		return status.Error(codes.Unauthenticated, common.ErrorInvalidCredentials.Error())
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	fields := req.GetFields()

	result, err := s.users.SignIn(ctx, services.SignInRequest{
		Login:    fields[common.FieldLogin].GetStringValue(),
		Password: fields[common.FieldPassword].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.String(result.Token), nil
}

func (s *GRPCServer) Session(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	out, err := structpb.NewStruct(map[string]any{
		common.FieldSubject:  session.Subject,
		common.FieldUsername: session.Claims.Username,
		common.FieldEmail:    session.Claims.Email,
		common.FieldExpires:  float64(session.ExpiresAt.Unix()),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, common.ErrorInternal.Error())
	}

	return out, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("OK"), nil
}
