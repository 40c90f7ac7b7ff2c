package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/logger"
	"github.com/guarzo/recruitapi/modules/auth"
	"github.com/guarzo/recruitapi/modules/credential"
	"github.com/guarzo/recruitapi/modules/gateway"
)

type mockRequester struct {
	postFunc func(ctx context.Context, path string, body, out interface{}) error
}

func (m *mockRequester) Get(ctx context.Context, path string, out interface{}, _ ...gateway.RequestOption) error {
	return errors.New("unexpected GET")
}
func (m *mockRequester) Post(ctx context.Context, path string, body, out interface{}, _ ...gateway.RequestOption) error {
	return m.postFunc(ctx, path, body, out)
}
func (m *mockRequester) Put(ctx context.Context, path string, body, out interface{}, _ ...gateway.RequestOption) error {
	return errors.New("unexpected PUT")
}
func (m *mockRequester) Patch(ctx context.Context, path string, body, out interface{}, _ ...gateway.RequestOption) error {
	return errors.New("unexpected PATCH")
}
func (m *mockRequester) Delete(ctx context.Context, path string, out interface{}, _ ...gateway.RequestOption) error {
	return errors.New("unexpected DELETE")
}

func fixedClock() func() time.Time {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestService_Login(t *testing.T) {
	var gotPath string
	m := &mockRequester{
		postFunc: func(ctx context.Context, path string, body, out interface{}) error {
			gotPath = path
			return json.Unmarshal([]byte(`{"IsSuccess":true,"Status":200,"Message":"Login successful",
				"Model":{"UserId":"u1","AccessToken":"A1","RefreshToken":"R1","expiresIn":3600}}`), out)
		},
	}
	store := credential.NewStore(nil, credential.WithClock(fixedClock()))
	svc := auth.NewService(m, store, logger.Discard())
	ctx := context.Background()

	res, err := svc.Login(ctx, " admin@example.com ", "Secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/auth/login" {
		t.Errorf("expected /auth/login, got %s", gotPath)
	}
	if res.UserId != "u1" {
		t.Errorf("expected user u1, got %s", res.UserId)
	}
	if tok, _ := store.AccessToken(ctx); tok != "A1" {
		t.Errorf("expected A1 stored, got %q", tok)
	}
	if rt, _ := store.RefreshToken(ctx); rt != "R1" {
		t.Errorf("expected R1 stored, got %q", rt)
	}
	exp, ok := store.Expiry(ctx)
	if !ok || !exp.Equal(fixedClock()().Add(time.Hour)) {
		t.Errorf("expected expiry in one hour, got %v", exp)
	}
	if !svc.IsAuthenticated(ctx) {
		t.Error("expected authenticated")
	}
}

func TestService_LoginValidation(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantField string
		wantMsg   string
	}{
		{"missing email", "", "Secret123", "Email", "This field is required"},
		{"bad email", "admin", "Secret123", "Email", "Please enter a valid email address"},
		{"short password", "a@b.co", "Se1", "Password", "Password must be at least 8 characters long"},
		{"no uppercase", "a@b.co", "secret123", "Password", "Password must contain at least one uppercase letter"},
		{"no lowercase", "a@b.co", "SECRET123", "Password", "Password must contain at least one lowercase letter"},
		{"no digit", "a@b.co", "SecretPass", "Password", "Password must contain at least one number"},
		{"missing password", "a@b.co", "", "Password", "Password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			m := &mockRequester{
				postFunc: func(ctx context.Context, path string, body, out interface{}) error {
					called = true
					return nil
				},
			}
			svc := auth.NewService(m, credential.NewStore(nil), logger.Discard())
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			if !common.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := common.ValidationErrors(err)[tt.wantField]; got != tt.wantMsg {
				t.Errorf("expected %q on %s, got %q", tt.wantMsg, tt.wantField, got)
			}
			if called {
				t.Error("expected no network call")
			}
		})
	}
}

func TestService_LoginRejected(t *testing.T) {
	tests := []struct {
		name       string
		postErr    error
		response   string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "server 401",
			postErr:    &common.APIError{Message: "Invalid credentials", Code: "INVALID_CREDENTIALS", Status: http.StatusUnauthorized},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid credentials",
		},
		{
			name:       "envelope failure",
			response:   `{"IsSuccess":false,"Status":200,"Message":"Account locked"}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Account locked",
		},
		{
			name:       "missing token",
			response:   `{"IsSuccess":true,"Status":200,"Model":{"UserId":"u1"}}`,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Login response did not contain an access token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockRequester{
				postFunc: func(ctx context.Context, path string, body, out interface{}) error {
					if tt.postErr != nil {
						return tt.postErr
					}
					return json.Unmarshal([]byte(tt.response), out)
				},
			}
			store := credential.NewStore(nil)
			svc := auth.NewService(m, store, logger.Discard())
			_, err := svc.Login(context.Background(), "admin@example.com", "Secret123")
			var apiErr *common.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.wantStatus || apiErr.Message != tt.wantMsg {
				t.Errorf("unexpected error: %+v", apiErr)
			}
			if store.IsAuthenticated(context.Background()) {
				t.Error("expected no credential stored")
			}
		})
	}
}

func TestService_LogoutAlwaysClears(t *testing.T) {
	for _, fail := range []bool{false, true} {
		calls := 0
		m := &mockRequester{
			postFunc: func(ctx context.Context, path string, body, out interface{}) error {
				calls++
				if path != "/auth/logout" {
					t.Errorf("expected /auth/logout, got %s", path)
				}
				if fail {
					return &common.APIError{Message: "Network error", Code: common.CodeNetwork}
				}
				return nil
			},
		}
		ctx := context.Background()
		store := credential.NewStore(nil)
		if err := store.Write(ctx, "A1", "R1", 0); err != nil {
			t.Fatal(err)
		}
		svc := auth.NewService(m, store, logger.Discard())

		if err := svc.Logout(ctx); err != nil {
			t.Fatalf("unexpected error (fail=%v): %v", fail, err)
		}
		if calls != 1 {
			t.Errorf("expected one logout call, got %d", calls)
		}
		if svc.IsAuthenticated(ctx) {
			t.Error("expected credentials cleared")
		}
		if _, ok := store.RefreshToken(ctx); ok {
			t.Error("expected refresh token cleared")
		}
	}
}

func TestService_LogoutWithoutSessionSkipsServer(t *testing.T) {
	m := &mockRequester{
		postFunc: func(ctx context.Context, path string, body, out interface{}) error {
			t.Error("expected no server call")
			return nil
		},
	}
	svc := auth.NewService(m, credential.NewStore(nil), logger.Discard())
	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
