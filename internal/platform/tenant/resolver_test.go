package tenant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// mockDirectory resolves a fixed set of subdomains.
type mockDirectory struct {
	clinics map[string]*Clinic
	err     error
	calls   []string
}

func (m *mockDirectory) GetBySubdomain(ctx context.Context, subdomain string) (*Clinic, error) {
	m.calls = append(m.calls, subdomain)
	if m.err != nil {
		return nil, m.err
	}
	return m.clinics[subdomain], nil
}

func testDirectory() *mockDirectory {
	return &mockDirectory{clinics: map[string]*Clinic{
		"clinic1": {ID: "11111111-1111-1111-1111-111111111111", TenantID: "clinic1", Subdomain: "clinic1", Schema: "clinic_clinic1"},
		"vida":    {ID: "22222222-2222-2222-2222-222222222222", TenantID: "vida", Subdomain: "vida", Schema: "clinic_vida"},
	}}
}

func TestSubdomainFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"clinic1.example.com", "clinic1"},
		{"clinic1.example.com:8000", "clinic1"},
		{"www.example.com", ""},
		{"WWW.example.com", ""},
		{"localhost", ""},
		{"localhost:8000", ""},
		{"127.0.0.1", ""},
		{"127.0.0.1:8000", ""},
		{"192.168.1.15", ""},
		{"example.com", ""},
		{"vida.saude.example.com", "vida"},
	}

	for _, tt := range tests {
		if got := SubdomainFromHost(tt.host); got != tt.want {
			t.Errorf("SubdomainFromHost(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestCandidateFromPath(t *testing.T) {
	r := NewResolver(testDirectory(), zerolog.Nop())

	tests := []struct {
		path string
		want string
	}{
		{"/clinic1/patients", "clinic1"},
		{"//clinic1/patients", "clinic1"},
		{"/api/patients", ""},
		{"/swagger/index.html", ""},
		{"/health", ""},
		{"/assets/app.js", ""},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := r.CandidateFromPath(tt.path); got != tt.want {
			t.Errorf("CandidateFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolve_SubdomainWinsOverPath(t *testing.T) {
	dir := testDirectory()
	r := NewResolver(dir, zerolog.Nop())

	tc := r.Resolve(context.Background(), "clinic1.example.com", "/vida/patients")
	if tc == nil {
		t.Fatal("expected tenant context")
	}
	if tc.TenantID != "clinic1" {
		t.Errorf("expected tenant clinic1, got %s", tc.TenantID)
	}
	if len(dir.calls) != 1 || dir.calls[0] != "clinic1" {
		t.Errorf("expected a single lookup for clinic1, got %v", dir.calls)
	}
}

func TestResolve_PathFallback(t *testing.T) {
	r := NewResolver(testDirectory(), zerolog.Nop())

	tc := r.Resolve(context.Background(), "localhost:8000", "/vida/appointments")
	if tc == nil {
		t.Fatal("expected tenant context")
	}
	if tc.Subdomain != "vida" {
		t.Errorf("expected subdomain vida, got %s", tc.Subdomain)
	}
	if tc.ClinicID == "" {
		t.Error("expected clinic id to be populated")
	}
}

func TestResolve_MissIsNotAnError(t *testing.T) {
	r := NewResolver(testDirectory(), zerolog.Nop())

	if tc := r.Resolve(context.Background(), "ghost.example.com", "/api/patients"); tc != nil {
		t.Errorf("expected unscoped request on directory miss, got %+v", tc)
	}
}

func TestResolve_DirectoryErrorDegrades(t *testing.T) {
	dir := testDirectory()
	dir.err = errors.New("directory unavailable")
	r := NewResolver(dir, zerolog.New(os.Stderr))

	if tc := r.Resolve(context.Background(), "clinic1.example.com", "/api/patients"); tc != nil {
		t.Errorf("expected unscoped request on lookup error, got %+v", tc)
	}
}

func TestMiddleware_SetsContextAndHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Host = "clinic1.example.com"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Context
	handler := func(c echo.Context) error {
		seen = FromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	mw := Middleware(NewResolver(testDirectory(), zerolog.Nop()))
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen == nil {
		t.Fatal("expected tenant context in request context")
	}
	if seen.TenantID != "clinic1" {
		t.Errorf("expected tenant clinic1, got %s", seen.TenantID)
	}
	if got := req.Header.Get(TenantIDHeader); got != "clinic1" {
		t.Errorf("expected mirrored X-Tenant-Id header, got %q", got)
	}
	if got := req.Header.Get(SubdomainHeader); got != "clinic1" {
		t.Errorf("expected mirrored X-Subdomain header, got %q", got)
	}
}

func TestMiddleware_DoesNotOverwriteHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Host = "clinic1.example.com"
	req.Header.Set(TenantIDHeader, "preset")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Middleware(NewResolver(testDirectory(), zerolog.Nop()))
	if err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := req.Header.Get(TenantIDHeader); got != "preset" {
		t.Errorf("expected preset header to survive, got %q", got)
	}
}

func TestMiddleware_UnscopedRequestProceeds(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Host = "localhost:8000"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Middleware(NewResolver(testDirectory(), zerolog.Nop()))
	if err := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for unscoped request, got %d", rec.Code)
	}
	if tc := FromContext(req.Context()); tc != nil {
		t.Errorf("expected no tenant context, got %+v", tc)
	}
}
