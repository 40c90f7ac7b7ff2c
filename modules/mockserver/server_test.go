package mockserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/logger"
	"github.com/guarzo/recruitapi/common/model"
	"github.com/guarzo/recruitapi/modules/auth"
	"github.com/guarzo/recruitapi/modules/credential"
	"github.com/guarzo/recruitapi/modules/gateway"
	"github.com/guarzo/recruitapi/modules/mockserver"
	"github.com/guarzo/recruitapi/modules/recruit"
	"github.com/guarzo/recruitapi/modules/resource"
)

const (
	adminEmail    = "admin@recruit.test"
	adminPassword = "Admin1234"
)

type harness struct {
	srv     *mockserver.Server
	api     *gateway.Client
	store   *credential.Store
	auth    *auth.Service
	recruit recruit.Service
	expired atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return buildHarness(t, resource.WithoutCache(), resource.WithLogger(logger.Discard()))
}

// newCachedHarness keeps the default shared list cache, as recruitctl does.
func newCachedHarness(t *testing.T) *harness {
	t.Helper()
	return buildHarness(t, resource.WithLogger(logger.Discard()))
}

func buildHarness(t *testing.T, opts ...resource.Option) *harness {
	t.Helper()
	srv, err := mockserver.New(mockserver.Config{
		JWTSecret:     "test-secret",
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		AccessTTL:     time.Minute,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("mockserver.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	h := &harness{srv: srv, store: credential.NewStore(nil)}
	cfg := common.Config{BaseURL: ts.URL + "/api", Timeout: 5 * time.Second, UserAgent: "e2e"}
	h.api, err = gateway.New(cfg, h.store,
		gateway.WithLogger(logger.Discard()),
		gateway.WithSessionExpiredHook(func() { h.expired.Add(1) }))
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	h.auth = auth.NewService(h.api, h.store, logger.Discard())
	h.recruit = recruit.NewService(h.api, opts...)
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if _, err := h.auth.Login(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestServer_CRUDRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	dep, err := h.recruit.CreateDepartment(ctx, model.DepartmentRequest{Name: "Engineering", Description: "Builds things"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dep.Uid == "" || dep.Name != "Engineering" || dep.CreatedBy == "" {
		t.Errorf("unexpected department: %+v", dep)
	}

	for _, name := range []string{"Ops", "Sales"} {
		if _, err := h.recruit.CreateDepartment(ctx, model.DepartmentRequest{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := h.recruit.ListDepartments(ctx, model.PageRequest{PageIndex: 0, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalRecords != 3 || len(page.Records) != 2 {
		t.Errorf("expected 2 of 3 records, got %d of %d", len(page.Records), page.TotalRecords)
	}

	updated, err := h.recruit.UpdateDepartment(ctx, dep.Uid, model.DepartmentRequest{Name: "Platform"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Platform" || updated.Uid != dep.Uid {
		t.Errorf("unexpected update: %+v", updated)
	}

	if err := h.recruit.DeleteDepartment(ctx, dep.Uid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = h.recruit.DeleteDepartment(ctx, dep.Uid)
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %v", err)
	}
}

func TestServer_OrganizationListEmbedsPage(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	if _, err := h.recruit.CreateOrganization(ctx, model.OrganizationRequest{Name: "Acme", Email: "hr@acme.io"}); err != nil {
		t.Fatal(err)
	}
	filter := "acm"
	page, err := h.recruit.ListOrganizations(ctx, model.PageRequest{PageSize: 10, Filter: &filter})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalRecords != 1 || page.Records[0].Email != "hr@acme.io" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestServer_ExpiredAccessTokenRefreshesOnce(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	before, _ := h.store.RefreshToken(ctx)

	h.srv.RevokeAccessTokens()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 2; i++ {
		wg.Add(5)
		go func() { defer wg.Done(); _, err := h.recruit.ListOrganizations(ctx, recruit.DefaultPage()); errs <- err }()
		go func() { defer wg.Done(); _, err := h.recruit.ListDepartments(ctx, recruit.DefaultPage()); errs <- err }()
		go func() { defer wg.Done(); _, err := h.recruit.ListPositions(ctx, recruit.DefaultPage()); errs <- err }()
		go func() { defer wg.Done(); _, err := h.recruit.ListTasks(ctx, recruit.DefaultPage()); errs <- err }()
		go func() { defer wg.Done(); _, err := h.recruit.ListTemplates(ctx, recruit.DefaultPage()); errs <- err }()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if got := h.srv.RefreshCount(); got != 1 {
		t.Errorf("expected exactly one refresh, got %d", got)
	}
	after, _ := h.store.RefreshToken(ctx)
	if after == "" || after == before {
		t.Errorf("expected rotated refresh token, got %q (was %q)", after, before)
	}
	if h.expired.Load() != 0 {
		t.Errorf("expected no session expiry, got %d", h.expired.Load())
	}
}

func TestServer_RefreshRejectedExpiresSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	h.srv.RevokeAccessTokens()
	h.srv.RevokeRefreshTokens()

	_, err := h.recruit.ListTasks(ctx, recruit.DefaultPage())
	if !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if h.expired.Load() != 1 {
		t.Errorf("expected session-expired hook once, got %d", h.expired.Load())
	}
	if h.auth.IsAuthenticated(ctx) {
		t.Error("expected credentials cleared")
	}

	// logging in again restores access
	h.login(t)
	if _, err := h.recruit.ListTasks(ctx, recruit.DefaultPage()); err != nil {
		t.Fatalf("expected access after re-login, got %v", err)
	}
}

func TestServer_BadCredentials(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.Login(context.Background(), adminEmail, "Wrong1234")
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid email or password" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if h.srv.RefreshCount() != 0 {
		t.Errorf("expected no refresh attempt, got %d", h.srv.RefreshCount())
	}
	if h.expired.Load() != 0 {
		t.Error("expected no session-expired hook for bad credentials")
	}
}

func TestServer_ServerSideValidation(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	// bypass client validation to exercise the server's error body
	err := h.api.Post(context.Background(), "/position", map[string]string{"Name": "SRE", "Status": "paused"}, nil)
	if !common.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if msg := common.ValidationErrors(err)["Status"]; msg == "" {
		t.Errorf("expected Status validation message, got %v", common.ValidationErrors(err))
	}
}

func TestServer_Logout(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	token, _ := h.store.AccessToken(ctx)

	if err := h.auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if h.auth.IsAuthenticated(ctx) {
		t.Error("expected logged out")
	}

	// the old token is revoked server-side
	if err := h.store.Write(ctx, token, "", 0); err != nil {
		t.Fatal(err)
	}
	_, err := h.recruit.ListTasks(ctx, recruit.DefaultPage())
	if !errors.Is(err, common.ErrNoRefreshToken) {
		t.Errorf("expected ErrNoRefreshToken for a revoked token, got %v", err)
	}
}

func TestServer_RequiresBearer(t *testing.T) {
	h := newHarness(t)
	_, err := h.recruit.ListDepartments(context.Background(), recruit.DefaultPage())
	if !common.IsAuth(err) {
		t.Errorf("expected auth failure without login, got %v", err)
	}
}

func TestServer_CachedListFailsAfterLogout(t *testing.T) {
	h := newCachedHarness(t)
	h.login(t)
	ctx := context.Background()

	if _, err := h.recruit.CreateDepartment(ctx, model.DepartmentRequest{Name: "Engineering"}); err != nil {
		t.Fatal(err)
	}
	page, err := h.recruit.ListDepartments(ctx, recruit.DefaultPage())
	if err != nil || len(page.Records) != 1 {
		t.Fatalf("expected one department, got %v (%v)", page, err)
	}
	if err := h.auth.Logout(ctx); err != nil {
		t.Fatal(err)
	}

	page, err = h.recruit.ListDepartments(ctx, recruit.DefaultPage())
	if !common.IsAuth(err) {
		t.Fatalf("expected auth failure after logout, got page=%v err=%v", page, err)
	}
}

func TestServer_CachedListFailsAfterSessionExpiry(t *testing.T) {
	h := newCachedHarness(t)
	h.login(t)
	ctx := context.Background()

	if _, err := h.recruit.CreateTask(ctx, model.TaskRequest{Name: "Onboard"}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.recruit.ListTasks(ctx, recruit.DefaultPage()); err != nil {
		t.Fatal(err)
	}

	h.srv.RevokeAccessTokens()
	h.srv.RevokeRefreshTokens()
	// an uncached call discovers the dead session
	if _, err := h.recruit.ListPositions(ctx, recruit.DefaultPage()); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	page, err := h.recruit.ListTasks(ctx, recruit.DefaultPage())
	if !common.IsAuth(err) {
		t.Fatalf("expected cached tasks to be withheld after expiry, got page=%v err=%v", page, err)
	}
}

func TestServer_CachedListNotSharedAcrossLogins(t *testing.T) {
	h := newCachedHarness(t)
	h.login(t)
	ctx := context.Background()

	if _, err := h.recruit.ListOrganizations(ctx, recruit.DefaultPage()); err != nil {
		t.Fatal(err)
	}
	// written behind the client's back, so only a fresh request can see it
	if err := h.api.Post(ctx, "/organization", model.OrganizationRequest{Name: "Acme"}, nil); err != nil {
		t.Fatal(err)
	}
	h.login(t)

	page, err := h.recruit.ListOrganizations(ctx, recruit.DefaultPage())
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalRecords != 1 {
		t.Errorf("expected a fresh page after logging in again, got %d records", page.TotalRecords)
	}
}
