package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type stubSignIn struct {
	res *services.SignInResult
	err error
}

func (s stubSignIn) SignIn(context.Context, services.SignInRequest) (*services.SignInResult, error) {
	return s.res, s.err
}

// startBufServer serves srv over an in-memory listener and returns a client
// connection to it.
func startBufServer(t *testing.T, srv *GRPCServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := srv.NewServer()
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newAliceServer(t *testing.T) (*GRPCServer, *auth.TokenIssuer) {
	t.Helper()

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("secret")
	require.NoError(t, err)

	repo, err := users.NewInMemoryRepository(models.CredentialRecord{
		UserID: 42, Login: "alice", UserName: "alice", Email: "a@x.com", PasswordHash: hash,
	})
	require.NoError(t, err)

	issuer := auth.NewTokenIssuer([]byte("k"))
	svc := services.NewAuthService(repo, hasher, issuer, 24*time.Hour)
	return NewGRPCServer("bufnet", logging.Nop{}, svc, issuer), issuer
}

func signIn(ctx context.Context, conn *grpc.ClientConn, login, password string, opts ...grpc.CallOption) (string, error) {
	in, err := structpb.NewStruct(map[string]any{common.FieldLogin: login, common.FieldPassword: password})
	if err != nil {
		return "", err
	}
	out := new(wrapperspb.StringValue)
	if err := conn.Invoke(ctx, common.SignInMethod, in, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func TestSignIn_RoundTrip(t *testing.T) {
	srv, issuer := newAliceServer(t)
	conn := startBufServer(t, srv)
	ctx := context.Background()

	token, err := signIn(ctx, conn, "alice", "secret")
	require.NoError(t, err)

	tok, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "42", tok.Subject)

	session := new(structpb.Struct)
	authCtx := metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
	require.NoError(t, conn.Invoke(authCtx, common.SessionMethod, &emptypb.Empty{}, session))

	fields := session.AsMap()
	assert.Equal(t, "42", fields[common.FieldSubject])
	assert.Equal(t, "alice", fields[common.FieldUsername])
	assert.Equal(t, "a@x.com", fields[common.FieldEmail])
	assert.Equal(t, float64(tok.ExpiresAt.Unix()), fields[common.FieldExpires])
}

func TestSignIn_BadCredentialsAreIndistinguishable(t *testing.T) {
	srv, _ := newAliceServer(t)
	conn := startBufServer(t, srv)
	ctx := context.Background()

	_, wrongErr := signIn(ctx, conn, "alice", "wrong")
	_, absentErr := signIn(ctx, conn, "bob", "anything")

	wrong, absent := status.Convert(wrongErr), status.Convert(absentErr)
	assert.Equal(t, codes.Unauthenticated, wrong.Code())
	assert.Equal(t, wrong.Code(), absent.Code())
	assert.Equal(t, "invalid credentials", wrong.Message())
	assert.Equal(t, wrong.Message(), absent.Message())
}

func TestSignIn_InternalErrorHidesCause(t *testing.T) {
	srv := NewGRPCServer("bufnet", logging.Nop{}, stubSignIn{err: common.ErrorInternal}, auth.NewTokenIssuer([]byte("k")))
	conn := startBufServer(t, srv)

	_, err := signIn(context.Background(), conn, "alice", "secret")
	st := status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestSession_RejectsBadTokens(t *testing.T) {
	srv, _ := newAliceServer(t)
	conn := startBufServer(t, srv)

	expired, err := auth.NewTokenIssuer([]byte("k")).Issue(auth.SessionClaims{}, "42", -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.NewTokenIssuer([]byte("other")).Issue(auth.SessionClaims{}, "42", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{name: "missing", token: "", wantMsg: "missing token"},
		{name: "expired", token: expired, wantMsg: common.ErrTokenExpired.Error()},
		{name: "wrong key", token: foreign, wantMsg: common.ErrInvalidToken.Error()},
		{name: "garbage", token: "not.a.jwt", wantMsg: common.ErrInvalidToken.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.token != "" {
				ctx = metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, tt.token)
			}
			err := conn.Invoke(ctx, common.SessionMethod, &emptypb.Empty{}, new(structpb.Struct))
			st := status.Convert(err)
			assert.Equal(t, codes.Unauthenticated, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}
}

func TestSession_SigningKeyMissingIsInternal(t *testing.T) {
	srv := NewGRPCServer("bufnet", logging.Nop{}, stubSignIn{}, auth.NewTokenIssuer(nil))
	conn := startBufServer(t, srv)

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "a.b.c")
	err := conn.Invoke(ctx, common.SessionMethod, &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestPing_AndRequestIDHeader(t *testing.T) {
	srv, _ := newAliceServer(t)
	conn := startBufServer(t, srv)

	var header metadata.MD
	out := new(wrapperspb.StringValue)
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.RequestIDHeaderName, "req-1")
	require.NoError(t, conn.Invoke(ctx, common.PingMethod, &emptypb.Empty{}, out, grpc.Header(&header)))

	assert.Equal(t, "OK", out.GetValue())
	assert.Equal(t, []string{"req-1"}, header.Get(common.RequestIDHeaderName))

	header = nil
	require.NoError(t, conn.Invoke(context.Background(), common.PingMethod, &emptypb.Empty{}, out, grpc.Header(&header)))
	require.Len(t, header.Get(common.RequestIDHeaderName), 1)
	assert.NotEmpty(t, header.Get(common.RequestIDHeaderName)[0])
}

func TestSession_WithoutInterceptorIsUnauthenticated(t *testing.T) {
	srv, _ := newAliceServer(t)
	_, err := srv.Session(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Nop{}, stubSignIn{}, auth.NewTokenIssuer([]byte("k")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, stubSignIn{}, auth.NewTokenIssuer([]byte("k")))
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
