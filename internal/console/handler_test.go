package console

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/syncer"
)

type platformStub struct {
	meCalls     atomic.Int64
	permissions []string
	roles       []string
}

func (p *platformStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	userDoc := func() map[string]any {
		return map[string]any{
			"id":             "4a3d3f2e-0000-4000-8000-000000000001",
			"phone":          "+84901234567",
			"status":         "ACTIVE",
			"phone_verified": true,
			"roles":          p.roles,
			"permissions":    p.permissions,
		}
	}
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "s3cret-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
			"user":         userDoc(),
		})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		p.meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(userDoc())
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestConsole(t *testing.T, stub *platformStub) (*chi.Mux, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	api := syncer.NewClient(stub.server(t).URL, nil)
	manager := NewManager(client, api, 5*time.Minute)
	handler := NewHandler(slog.Default(), manager, api, false)

	r := chi.NewRouter()
	handler.MountRoutes(r)
	handler.GuardedPages(r, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r, mr
}

func doLogin(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"phone": "+84901234567", "password": "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/session/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sidCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestLoginPersistsSession(t *testing.T) {
	stub := &platformStub{roles: []string{rbac.RoleCustomer}, permissions: []string{rbac.PermProfileView}}
	r, mr := newTestConsole(t, stub)

	cookie := doLogin(t, r)
	assert.NotEmpty(t, cookie.Value)

	// The vault keys survive in Redis under the session prefix.
	keys := mr.Keys()
	assert.NotEmpty(t, keys)
	found := false
	for _, k := range keys {
		if k == "console:sess:"+cookie.Value+":auth_storage" {
			found = true
		}
	}
	assert.True(t, found, "auth storage key missing: %v", keys)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	stub := &platformStub{}
	r, _ := newTestConsole(t, stub)

	body, _ := json.Marshal(map[string]string{"phone": "+84901234567", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/session/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeUsesStalenessWindow(t *testing.T) {
	stub := &platformStub{roles: []string{rbac.RoleCustomer}, permissions: []string{rbac.PermProfileView}}
	r, _ := newTestConsole(t, stub)
	cookie := doLogin(t, r)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/session/me", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var out struct {
			IsAuthenticated bool `json:"isAuthenticated"`
			User            struct {
				Phone string `json:"phone"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.True(t, out.IsAuthenticated)
		assert.Equal(t, "+84901234567", out.User.Phone)
	}
	// One fetch served all three reads inside the window.
	assert.Equal(t, int64(1), stub.meCalls.Load())
}

func TestMeSignedOut(t *testing.T) {
	stub := &platformStub{}
	r, _ := newTestConsole(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/session/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		IsAuthenticated bool `json:"isAuthenticated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.IsAuthenticated)
	assert.Zero(t, stub.meCalls.Load())
}

func TestLogoutClearsEverything(t *testing.T) {
	stub := &platformStub{roles: []string{rbac.RoleCustomer}, permissions: []string{rbac.PermProfileView}}
	r, mr := newTestConsole(t, stub)
	cookie := doLogin(t, r)

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, k := range mr.Keys() {
		assert.NotContains(t, k, cookie.Value)
	}

	// The same cookie now resolves to a signed-out session.
	req = httptest.NewRequest(http.MethodGet, "/session/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		IsAuthenticated bool `json:"isAuthenticated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.IsAuthenticated)
}

func TestSyncNowBypassesWindow(t *testing.T) {
	stub := &platformStub{roles: []string{rbac.RoleCustomer}, permissions: []string{rbac.PermProfileView}}
	r, _ := newTestConsole(t, stub)
	cookie := doLogin(t, r)

	// Two forced syncs hit the upstream twice despite the window.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/session/sync", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, int64(2), stub.meCalls.Load())
}

func TestProfilePatchKeepsGrants(t *testing.T) {
	stub := &platformStub{roles: []string{rbac.RoleCustomer}, permissions: []string{rbac.PermProfileView}}
	r, _ := newTestConsole(t, stub)
	cookie := doLogin(t, r)

	body, _ := json.Marshal(map[string]any{
		"status":   "SUSPENDED",
		"customer": map[string]string{"kyc_status": "VERIFIED"},
	})
	req := httptest.NewRequest(http.MethodPatch, "/session/profile", bytes.NewReader(body))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		User struct {
			Status      string   `json:"status"`
			Roles       []string `json:"roles"`
			Permissions []string `json:"permissions"`
			Customer    *struct {
				KYCStatus string `json:"kyc_status"`
			} `json:"customer"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "SUSPENDED", out.User.Status)
	require.NotNil(t, out.User.Customer)
	assert.Equal(t, "VERIFIED", out.User.Customer.KYCStatus)
	assert.Equal(t, []string{rbac.RoleCustomer}, out.User.Roles)
	assert.Equal(t, []string{rbac.PermProfileView}, out.User.Permissions)
}

func TestProfilePatchRequiresSession(t *testing.T) {
	stub := &platformStub{}
	r, _ := newTestConsole(t, stub)

	body, _ := json.Marshal(map[string]any{"status": "ACTIVE"})
	req := httptest.NewRequest(http.MethodPatch, "/session/profile", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCapabilitiesReflectPermissions(t *testing.T) {
	stub := &platformStub{
		roles:       []string{rbac.RoleSupporter},
		permissions: []string{rbac.PermKYCView},
	}
	r, _ := newTestConsole(t, stub)
	cookie := doLogin(t, r)

	req := httptest.NewRequest(http.MethodGet, "/session/capabilities", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var caps map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &caps))
	assert.True(t, caps["canViewKYC"])
	assert.False(t, caps["canApproveKYC"])
	assert.True(t, caps["isSupporter"])
	assert.False(t, caps["isAdmin"])
}

func TestNavigationFiltersAdminMenu(t *testing.T) {
	stub := &platformStub{
		roles:       []string{rbac.RoleSupporter},
		permissions: []string{rbac.PermKYCView, rbac.PermKYCReview, rbac.PermUserView},
	}
	r, _ := newTestConsole(t, stub)
	cookie := doLogin(t, r)

	req := httptest.NewRequest(http.MethodGet, "/session/nav?menu=admin", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []struct {
		Label string `json:"label"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "KYC Review")
	assert.NotContains(t, labels, "Access Control")
	assert.NotContains(t, labels, "Settings")
}

func TestGuardedPagesRedirect(t *testing.T) {
	stub := &platformStub{roles: []string{rbac.RoleCustomer}, permissions: []string{rbac.PermProfileView}}
	r, _ := newTestConsole(t, stub)

	// Signed out lands on login.
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// A customer is signed in but below the supporter tier.
	cookie := doLogin(t, r)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	// The dashboard itself carries no requirement beyond a session.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardedPagesAuthorize(t *testing.T) {
	stub := &platformStub{
		roles:       []string{rbac.RoleAdmin},
		permissions: []string{rbac.PermRoleManage, rbac.PermKYCView},
	}
	r, _ := newTestConsole(t, stub)
	cookie := doLogin(t, r)

	for _, path := range []string{"/admin", "/admin/roles", "/admin/kyc"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
