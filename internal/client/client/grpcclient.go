// Package client talks to the gophauth gRPC endpoint.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Session is what the server reports about a valid token.
type Session struct {
	Subject   string
	Username  string
	Email     string
	ExpiresAt time.Time
}

type GRPCClient struct {
	conn *grpc.ClientConn
}

// NewGRPCClient creates a client for addr. No connection is made until the
// first call.
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

// SignIn exchanges credentials for a session token. Rejected credentials
// come back as common.ErrorInvalidCredentials.
func (c *GRPCClient) SignIn(ctx context.Context, login, password string) (string, error) {
	in, err := structpb.NewStruct(map[string]any{
		common.FieldLogin:    login,
		common.FieldPassword: password,
	})
	if err != nil {
		return "", err
	}

	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, common.SignInMethod, in, out); err != nil {
		if status.Code(err) == codes.Unauthenticated {
			return "", common.ErrorInvalidCredentials
		}
		return "", fmt.Errorf("sign in: %w", err)
	}

	return out.GetValue(), nil
}

// Session asks the server to verify token and describe its owner.
func (c *GRPCClient) Session(ctx context.Context, token string) (*Session, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(withAccessToken(ctx, token), common.SessionMethod, &emptypb.Empty{}, out); err != nil {
		st := status.Convert(err)
		if st.Code() == codes.Unauthenticated {
			if st.Message() == common.ErrTokenExpired.Error() {
				return nil, common.ErrTokenExpired
			}
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("session: %w", err)
	}

	fields := out.GetFields()
	return &Session{
		Subject:   fields[common.FieldSubject].GetStringValue(),
		Username:  fields[common.FieldUsername].GetStringValue(),
		Email:     fields[common.FieldEmail].GetStringValue(),
		ExpiresAt: time.Unix(int64(fields[common.FieldExpires].GetNumberValue()), 0),
	}, nil
}

// Ping checks that the server is reachable.
func (c *GRPCClient) Ping(ctx context.Context) error {
	return c.conn.Invoke(ctx, common.PingMethod, &emptypb.Empty{}, new(wrapperspb.StringValue))
}
