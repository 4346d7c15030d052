package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service all calls are routed to.
	ServiceName = "gophauth.v1.AuthBackend"

	SessionTokenHeaderName   = "x-session-token"
	InstallationIDHeaderName = "x-installation-id"
)

// RPC method names on ServiceName.
const (
	MethodLogin                = "Login"
	MethodRegister             = "Register"
	MethodFederatedLogin       = "FederatedLogin"
	MethodBecome               = "Become"
	MethodLogout               = "Logout"
	MethodRequestPasswordReset = "RequestPasswordReset"
	MethodFind                 = "Find"
)

// GRPCBackend talks to the backend over gRPC using structpb payloads.
// The signed-in account is kept in memory and answers CurrentSession.
type GRPCBackend struct {
	endpointURL    string
	installationID string
	dialOpts       []grpc.DialOption
	conn           *grpc.ClientConn

	mu      sync.RWMutex
	current *Account
}

var _ Backend = (*GRPCBackend)(nil)

// NewGRPCBackend creates a client for endpointURL. Extra dial options are
// appended after the defaults (insecure transport, session interceptor).
func NewGRPCBackend(endpointURL, installationID string, opts ...grpc.DialOption) (*GRPCBackend, error) {
	b := &GRPCBackend{endpointURL: endpointURL, installationID: installationID, dialOpts: opts}
	if err := b.initConn(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *GRPCBackend) initConn() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(b.sessionInterceptor),
	}, b.dialOpts...)

	conn, err := grpc.NewClient(b.endpointURL, opts...)
	if err != nil {
		return err
	}
	b.conn = conn
	return nil
}

func withSession(ctx context.Context, token, installationID string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(SessionTokenHeaderName)
	md.Delete(InstallationIDHeaderName)
	if token != "" {
		md.Set(SessionTokenHeaderName, token)
	}
	if installationID != "" {
		md.Set(InstallationIDHeaderName, installationID)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (b *GRPCBackend) sessionInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx = withSession(ctx, b.currentToken(), b.installationID)
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (b *GRPCBackend) currentToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return ""
	}
	return b.current.sessionToken
}

func (b *GRPCBackend) setCurrent(a *Account) {
	b.mu.Lock()
	b.current = a
	b.mu.Unlock()
}

func (b *GRPCBackend) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	out := &structpb.Struct{}
	if err := b.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// callForUser performs method and adopts the returned account as current.
func (b *GRPCBackend) callForUser(ctx context.Context, method string, req map[string]any) (User, error) {
	out, err := b.call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	acc, err := accountFromStruct(out)
	if err != nil {
		return nil, err
	}
	b.setCurrent(acc)
	return acc, nil
}

func accountFromStruct(s *structpb.Struct) (*Account, error) {
	f := s.GetFields()
	acc := NewAccount(
		f["objectId"].GetStringValue(),
		f["sessionToken"].GetStringValue(),
		f["username"].GetStringValue(),
		f["email"].GetStringValue(),
	)
	if acc.objectID == "" || acc.sessionToken == "" {
		return nil, &Error{Kind: ErrBackend, Message: "malformed user payload"}
	}
	return acc, nil
}

func (b *GRPCBackend) Login(ctx context.Context, email, password string) (User, error) {
	return b.callForUser(ctx, MethodLogin, map[string]any{"email": email, "password": password})
}

func (b *GRPCBackend) Register(ctx context.Context, u NewUser) (User, error) {
	return b.callForUser(ctx, MethodRegister, map[string]any{
		"username": u.Username,
		"email":    u.Email,
		"password": u.Password,
	})
}

func (b *GRPCBackend) FederatedLogin(ctx context.Context, provider string, data AuthData) (User, error) {
	return b.callForUser(ctx, MethodFederatedLogin, map[string]any{
		"provider": provider,
		"authData": map[string]any{
			"id":           data.ID,
			"id_token":     data.IDToken,
			"access_token": data.AccessToken,
		},
	})
}

func (b *GRPCBackend) Become(ctx context.Context, sessionToken string) (User, error) {
	return b.callForUser(ctx, MethodBecome, map[string]any{"sessionToken": sessionToken})
}

func (b *GRPCBackend) CurrentSession(ctx context.Context) (User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return nil, nil
	}
	return b.current, nil
}

func (b *GRPCBackend) Logout(ctx context.Context) error {
	if b.currentToken() == "" {
		return nil
	}
	defer b.setCurrent(nil)

	_, err := b.call(ctx, MethodLogout, map[string]any{})
	return err
}

func (b *GRPCBackend) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := b.call(ctx, MethodRequestPasswordReset, map[string]any{"email": email})
	return err
}

func (b *GRPCBackend) Query(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	out, err := b.call(ctx, MethodFind, map[string]any{"collection": collection, "limit": limit})
	if err != nil {
		return nil, err
	}
	values := out.GetFields()["results"].GetListValue().GetValues()
	rows := make([]map[string]any, 0, len(values))
	for _, v := range values {
		rows = append(rows, v.GetStructValue().AsMap())
	}
	return rows, nil
}

func (b *GRPCBackend) Close() error {
	return b.conn.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	var kind error
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		kind = ErrUnavailable
	case codes.AlreadyExists:
		kind = ErrConflict
	case codes.NotFound:
		kind = ErrNotFound
	default:
		kind = ErrBackend
	}
	return &Error{Kind: kind, Message: st.Message()}
}
