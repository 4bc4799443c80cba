package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"golang.org/x/crypto/bcrypt"

	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newAPIServer(t *testing.T, ping func(context.Context) error) *httptest.Server {
	t.Helper()

	repo := users.NewInMemoryRepository()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	issuer := auth.NewIssuer("test-secret", time.Hour)
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}

	router := hs.NewRouter(hs.Options{APIPrefix: "/api"}, hs.Deps{
		Register: services.NewRegisterUser(repo, hasher, logging.Nop()),
		Login:    services.NewLoginUser(repo, hasher, issuer, logging.Nop()),
		Tokens:   issuer,
		Store:    pingFunc(ping),
		Logger:   logging.Nop(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

var john = RegisterRequest{
	Name:            "john_doe",
	Email:           "john@example.com",
	Password:        "Passw0rd!",
	ConfirmPassword: "Passw0rd!",
}

func TestRegisterLoginMe(t *testing.T) {
	srv := newAPIServer(t, nil)
	ctx := context.Background()

	c := New(srv.URL, "/api", "", 5*time.Second)

	u, err := c.Register(ctx, john)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if u.Email != "john@example.com" || u.ID == "" {
		t.Fatalf("unexpected user: %+v", u)
	}

	res, err := c.Login(ctx, "john@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if res.Token == "" {
		t.Fatal("empty token")
	}
	if res.User == nil || res.User.ID != u.ID {
		t.Fatalf("login user = %+v, want id %q", res.User, u.ID)
	}

	authed := New(srv.URL+"/", "api/", res.Token, 5*time.Second)
	me, err := authed.Me(ctx)
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if me.ID != u.ID || me.Role != common.DefaultRole {
		t.Fatalf("unexpected identity: %+v", me)
	}
}

func TestAPIErrors(t *testing.T) {
	srv := newAPIServer(t, nil)
	ctx := context.Background()
	c := New(srv.URL, "/api", "", 5*time.Second)

	if _, err := c.Register(ctx, john); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	_, err := c.Register(ctx, john)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Kind != common.KindConflict {
		t.Errorf("got %+v, want 409 conflict", apiErr)
	}
	if apiErr.Message != "Email already exists" {
		t.Errorf("Message = %q", apiErr.Message)
	}

	_, err = c.Login(ctx, "john@example.com", "Wr0ngPass!")
	if !IsKind(err, common.KindAuthentication) {
		t.Errorf("Login() error = %v, want AuthenticationError", err)
	}

	_, err = c.Me(ctx)
	if !IsKind(err, common.KindAuthentication) {
		t.Errorf("Me() without token error = %v, want AuthenticationError", err)
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 401") {
		t.Errorf("error = %q, want it to contain 'HTTP 401'", got)
	}
}

func TestHealth(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		srv := newAPIServer(t, nil)
		h, err := New(srv.URL, "/api", "", time.Second).Health(context.Background())
		if err != nil {
			t.Fatalf("Health() error: %v", err)
		}
		if h.Status != "ok" || h.Services["database"] != "up" {
			t.Errorf("unexpected health: %+v", h)
		}
	})

	t.Run("down", func(t *testing.T) {
		srv := newAPIServer(t, func(context.Context) error { return errors.New("down") })
		h, err := New(srv.URL, "/api", "", time.Second).Health(context.Background())
		if err == nil {
			t.Fatal("expected error for unhealthy server")
		}
		if h == nil || h.Services["database"] != "down" {
			t.Errorf("unexpected health: %+v", h)
		}
	})
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway\n")) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL, "/api", "", time.Second).Me(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Errorf("got %+v", apiErr)
	}
}

func TestTokenHeader(t *testing.T) {
	gotCh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCh <- r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Identity{ID: "u-1"}) //nolint:errcheck
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "", "tok", time.Second).Me(context.Background()); err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if got := <-gotCh; got != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
	}
}
