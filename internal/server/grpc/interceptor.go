package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const sessionKey ctxKey = "session"

// protectedMethods require a valid access_token in the incoming metadata.
var protectedMethods = map[string]struct{}{
	common.SessionMethod: {},
}

func sessionFromContext(ctx context.Context) (*auth.SessionToken, bool) {
	tok, ok := ctx.Value(sessionKey).(*auth.SessionToken)
	return tok, ok
}

func firstMetadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// requestLogInterceptor tags every call with a request id (taken from the
// caller or generated), echoes it in the response header and logs the
// outcome. Request payloads are never logged.
func (s *GRPCServer) requestLogInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestID := firstMetadataValue(ctx, common.RequestIDHeaderName)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, requestID))

	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info(ctx, "rpc",
		"method", info.FullMethod,
		"request_id", requestID,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)

	return resp, err
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, ok := protectedMethods[info.FullMethod]; !ok {
		return handler(ctx, req)
	}

	accessToken := firstMetadataValue(ctx, common.AccessTokenHeaderName)
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	session, err := s.tokens.Parse(accessToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		case errors.Is(err, common.ErrorInternal):
			s.logger.Error(ctx, "token verification unavailable", "error", err)
			return nil, status.Error(codes.Internal, common.ErrorInternal.Error())
		default:
			return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
		}
	}

	return handler(context.WithValue(ctx, sessionKey, session), req)
}
