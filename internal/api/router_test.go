package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/leadbook/crm-api/internal/api/handler"
	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
	"github.com/leadbook/crm-api/internal/core/service"
	"github.com/leadbook/crm-api/internal/infrastructure/db/sqlstore"
)

const testSecret = "router-secret"

type fakeCustomerService struct {
	ports.CustomerService
	lastIdentity domain.Identity
}

func (f *fakeCustomerService) ListCustomers(ctx context.Context, id domain.Identity, in ports.ListCustomersInput) (*ports.ListCustomersResult, error) {
	f.lastIdentity = id
	return &ports.ListCustomersResult{CurrentPage: 1}, nil
}

func (f *fakeCustomerService) UpdateCustomerNotes(ctx context.Context, id domain.Identity, customerID int64, notes string) (*domain.Customer, error) {
	return nil, domain.ErrPermissionDenied
}

type fakeStatsService struct {
	ports.StatsService
	calls int
}

func (f *fakeStatsService) GetDashboardStats(ctx context.Context, id domain.Identity, period string) (*ports.DashboardStats, error) {
	f.calls++
	return &ports.DashboardStats{PeriodInfo: ports.PeriodInfo{Period: "current_week"}}, nil
}

func bearer(t *testing.T, username, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  1,
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + s
}

func newTestRouter(customers *fakeCustomerService, stats *fakeStatsService) http.Handler {
	return NewRouter(Services{Customers: customers, Stats: stats}, Options{
		JWTSecret:  testSecret,
		Logger:     zerolog.Nop(),
		Health:     map[string]handler.PingFunc{},
		Registerer: prometheus.NewRegistry(),
	})
}

func TestRouter_RequiresToken(t *testing.T) {
	r := newTestRouter(&fakeCustomerService{}, &fakeStatsService{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/customers", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_ForwardsIdentityFromToken(t *testing.T) {
	customers := &fakeCustomerService{}
	r := newTestRouter(customers, &fakeStatsService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/customers", nil)
	req.Header.Set("Authorization", bearer(t, "alice", domain.RoleStaff))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if customers.lastIdentity.Username != "alice" || customers.lastIdentity.Role != domain.RoleStaff || customers.lastIdentity.UserID != 1 {
		t.Fatalf("unexpected identity: %+v", customers.lastIdentity)
	}
}

func TestRouter_PermissionDeniedRendersForbidden(t *testing.T) {
	r := newTestRouter(&fakeCustomerService{}, &fakeStatsService{})

	req := httptest.NewRequest(http.MethodPatch, "/v1/customers/3/notes", nil)
	req.Header.Set("Authorization", bearer(t, "alice", domain.RoleStaff))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected error envelope, got %q", rec.Body.String())
	}
}

func TestRouter_ForbiddenBodyOmitsOwner(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       sqlstore.DriverSQLite,
		DSN:          "file:router_forbidden?mode=memory&cache=shared",
		LogLevel:     "silent",
		MaxOpenConns: 1,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := sqlstore.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	customers := sqlstore.NewCustomerRepository(db)
	now := time.Now()
	owned := &domain.Customer{
		CustomerName:      "x",
		PhoneNumber:       "13800000000",
		CustomerStatus:    domain.CustomerNew,
		TransactionStatus: domain.DealOpen,
		SubmitUser:        "bob",
		SubmitTime:        now,
		UpdatedAt:         now,
	}
	if err := customers.Create(ctx, owned); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := service.NewCustomerService(customers, sqlstore.NewAffiliationRepository(db), nil, zerolog.Nop())
	r := NewRouter(Services{Customers: svc, Stats: &fakeStatsService{}}, Options{
		JWTSecret:  testSecret,
		Logger:     zerolog.Nop(),
		Health:     map[string]handler.PingFunc{},
		Registerer: prometheus.NewRegistry(),
	})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, fmt.Sprintf("/v1/customers/%d", owned.ID), ""},
		{http.MethodPatch, fmt.Sprintf("/v1/customers/%d/notes", owned.ID), `{"notes":"hijack"}`},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Authorization", bearer(t, "alice", domain.RoleStaff))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d: %s", tc.method, tc.path, rec.Code, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "bob") {
			t.Fatalf("%s %s: body names the owner: %s", tc.method, tc.path, rec.Body.String())
		}
	}
}

func TestRouter_UserAdminRoutesRequireAdmin(t *testing.T) {
	r := newTestRouter(&fakeCustomerService{}, &fakeStatsService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set("Authorization", bearer(t, "mia", domain.RoleManager))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter_DashboardAlias(t *testing.T) {
	stats := &fakeStatsService{}
	r := newTestRouter(&fakeCustomerService{}, stats)

	for _, path := range []string{"/v1/dashboard-stats", "/api/dashboard-stats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", bearer(t, "alice", domain.RoleStaff))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
	if stats.calls != 2 {
		t.Fatalf("expected both paths to reach the service, got %d calls", stats.calls)
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r := newTestRouter(&fakeCustomerService{}, &fakeStatsService{})

	for _, path := range []string{"/health", "/health/ready"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	r := newTestRouter(&fakeCustomerService{}, &fakeStatsService{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	id := rec.Header().Get("X-Request-Id")
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid request id, got %q", id)
	}
}
