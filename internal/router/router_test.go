package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cims/internal/auth"
	"cims/internal/config"
	"cims/internal/handler"
	"cims/internal/metrics"
	"cims/internal/model"
	"cims/internal/service"
)

// profileOnly answers GetOwnProfile; any other call panics on the nil interface.
type profileOnly struct {
	service.MemberService
}

func (profileOnly) GetOwnProfile(_ context.Context, callerID uint) (*model.Member, error) {
	return &model.Member{ID: callerID, Name: "Caller"}, nil
}

type allUp struct{}

func (allUp) Ping(context.Context) map[string]error {
	return map[string]error{"cims": nil, "project": nil}
}

func newServer(t *testing.T, loginRate int) (*echo.Echo, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService("router-test-secret")
	e := echo.New()
	Register(e, &config.Config{LoginRatePerMinute: loginRate}, jwtService, metrics.NewHTTP(), Handlers{
		Auth:    handler.NewAuthHandler(nil),
		Member:  handler.NewMemberHandler(profileOnly{}),
		Project: handler.NewProjectHandler(nil, nil, nil),
		Health:  handler.NewHealthHandler(allUp{}),
	})
	return e, jwtService
}

func get(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	return send(e, http.MethodGet, path, bearer, "")
}

func send(e *echo.Echo, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegister_SecuredRoutesRequireAccessToken(t *testing.T) {
	e, jwtService := newServer(t, 0)

	access, err := jwtService.GenerateAccessToken(42, model.RolePlayer)
	require.NoError(t, err)
	_, refresh, err := jwtService.GenerateRefreshToken(42, model.RolePlayer)
	require.NoError(t, err)
	foreign, err := auth.NewJWTService("other-secret").GenerateAccessToken(42, model.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", foreign, http.StatusUnauthorized},
		{"refresh token", refresh, http.StatusUnauthorized},
		{"access token", access, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(e, "/api/profile/me", tt.token)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}

	rec := get(e, "/api/profile/me", access)
	assert.Contains(t, rec.Body.String(), `"id":42`)
}

func TestRegister_LoginIsRateLimited(t *testing.T) {
	e, _ := newServer(t, 2)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		// the body fails validation, so the handler never reaches the auth service
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, statuses)
}

func TestRegister_OperationalEndpoints(t *testing.T) {
	e, _ := newServer(t, 0)

	assert.Equal(t, http.StatusOK, get(e, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, get(e, "/readyz", "").Code)

	get(e, "/api/profile/me", "")
	rec := get(e, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cims_http_requests_total{method="GET",path="/api/profile/me",status="401"} 1`)
}

func TestRegister_AdminGroupRejectsNonAdminsBeforeInput(t *testing.T) {
	e, jwtService := newServer(t, 0)

	player, err := jwtService.GenerateAccessToken(42, model.RolePlayer)
	require.NoError(t, err)
	admin, err := jwtService.GenerateAccessToken(1, model.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"player zero id", player, http.MethodDelete, "/api/admin/members/0", "", http.StatusForbidden, "FORBIDDEN"},
		{"player bad id", player, http.MethodGet, "/api/admin/members/abc", "", http.StatusForbidden, "FORBIDDEN"},
		{"player empty body", player, http.MethodPost, "/api/admin/members", `{}`, http.StatusForbidden, "FORBIDDEN"},
		{"player bad body", player, http.MethodPut, "/api/admin/members/5", `{"name":1}`, http.StatusForbidden, "FORBIDDEN"},
		{"no token", "", http.MethodDelete, "/api/admin/members/0", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"admin zero id", admin, http.MethodDelete, "/api/admin/members/0", "", http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(e, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.wantCode+`"`)
		})
	}
}

func TestRegister_PanickingRequestIsCounted(t *testing.T) {
	e, _ := newServer(t, 0)
	e.GET("/api/boom", func(echo.Context) error { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, get(e, "/api/boom", "").Code)

	rec := get(e, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cims_http_requests_total{method="GET",path="/api/boom",status="500"} 1`)
}
