package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName is the gRPC metadata key carrying a per-call request id.
const RequestIDHeaderName = "x-request-id"

// gophauth.AuthService method names, shared by server and client.
const (
	ServiceName   = "gophauth.AuthService"
	SignInMethod  = "/gophauth.AuthService/SignIn"
	SessionMethod = "/gophauth.AuthService/Session"
	PingMethod    = "/gophauth.AuthService/Ping"
)

// Field names inside the Struct messages of gophauth.AuthService.
const (
	FieldLogin    = "login"
	FieldPassword = "password"
	FieldSubject  = "sub"
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldExpires  = "exp"
)
