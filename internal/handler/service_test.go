package handler_test

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"tracker-suite/internal/handler"
	"tracker-suite/internal/identity"
	"tracker-suite/internal/logging"
	"tracker-suite/internal/middleware"
	"tracker-suite/internal/modules/anniversary"
)

func startServer(t *testing.T, f *fixture, burst int) *grpc.ClientConn {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.Logging(logging.Discard()),
		middleware.RateLimit(middleware.NewRateLimiter(ctx, 1, burst)),
		middleware.Auth(f.tokens),
	))
	handler.Register(srv, f.h)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(handler.CodecName)),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func method(service, name string) string { return "/" + service + "/" + name }

func TestServiceOverGRPC(t *testing.T) {
	f := setup(t)
	conn := startServer(t, f, 100)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var login handler.LoginResult
	err := conn.Invoke(ctx, method(handler.IdentityServiceName, "Login"),
		&handler.LoginRequest{Login: identity.AdminUserName, Password: adminPassword}, &login)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Token == "" || len(login.Roles) == 0 {
		t.Fatalf("incomplete login %+v", login)
	}

	var list handler.ListImportantDatesResponse
	err = conn.Invoke(ctx, method(handler.AnniversaryServiceName, "ListImportantDates"), &handler.ListImportantDatesRequest{}, &list)
	wantCode(t, err, codes.Unauthenticated)

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+login.Token)
	var created handler.ImportantDateResponse
	err = conn.Invoke(authed, method(handler.AnniversaryServiceName, "CreateImportantDate"), &handler.CreateImportantDateRequest{
		PersonName:        "Grace",
		DateType:          anniversary.Anniversary,
		DateValue:         time.Date(2010, 6, 12, 0, 0, 0, 0, time.UTC),
		RecurrencePattern: anniversary.Annual,
	}, &created)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Date == nil || created.Date.DateType != anniversary.Anniversary {
		t.Fatalf("unexpected create response %+v", created)
	}

	if err := conn.Invoke(authed, method(handler.AnniversaryServiceName, "ListImportantDates"), &handler.ListImportantDatesRequest{}, &list); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Dates) != 1 || list.Dates[0].ID != created.Date.ID {
		t.Errorf("unexpected list %+v", list.Dates)
	}

	var users handler.ListUsersResponse
	if err := conn.Invoke(authed, method(handler.IdentityServiceName, "ListUsers"), &handler.Empty{}, &users); err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users.Users) != 1 {
		t.Errorf("expected only the admin, got %d users", len(users.Users))
	}
}

func TestHealthServing(t *testing.T) {
	conn := startServer(t, setup(t), 100)
	client := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", handler.IdentityServiceName, handler.AnniversaryServiceName} {
		res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc}, grpc.CallContentSubtype("proto"))
		if err != nil {
			t.Fatalf("check %q: %v", svc, err)
		}
		if res.Status != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("%q: %v", svc, res.Status)
		}
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	conn := startServer(t, setup(t), 2)
	req := &handler.LoginRequest{Login: "ghost", Password: "whatever1"}
	var res handler.LoginResult
	for i := 0; i < 2; i++ {
		err := conn.Invoke(context.Background(), method(handler.IdentityServiceName, "Login"), req, &res)
		wantCode(t, err, codes.Unauthenticated)
	}
	err := conn.Invoke(context.Background(), method(handler.IdentityServiceName, "Login"), req, &res)
	wantCode(t, err, codes.ResourceExhausted)
}
