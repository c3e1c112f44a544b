package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
)

type fakeAuthenticator map[string]*rbac.Session

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*rbac.Session, error) {
	if s, ok := f[token]; ok {
		return s, nil
	}
	return nil, apperror.Unauthorized("invalid access token")
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewAuthMiddleware(fakeAuthenticator{
		"admin-token": {UserID: "a", Role: auth_models.RoleAdmin},
		"user-token":  {UserID: "u", Role: auth_models.RoleUser},
	}, DefaultConfig())

	r := gin.New()
	r.Use(RequestID(logger.NewNopLogger()))
	r.GET("/admin", m.Authenticate(), RequireAdmin(), func(c *gin.Context) {
		session, _ := GetSessionFromGinContext(c)
		c.JSON(http.StatusOK, gin.H{"user": session.UserID})
	})
	return r
}

func doRequest(r http.Handler, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := newRouter()
	tests := []struct {
		name     string
		setup    func(*http.Request)
		wantCode int
		wantKind apperror.Kind
	}{
		{"no token", nil, http.StatusUnauthorized, apperror.KindUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, apperror.KindUnauthorized},
		{"wrong role", func(r *http.Request) { r.Header.Set("Authorization", "Bearer user-token") }, http.StatusForbidden, apperror.KindForbidden},
		{"admin header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") }, http.StatusOK, ""},
		{"admin cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: "admin-token"}) }, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.setup)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantKind == "" {
				return
			}
			var body apperror.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Kind != tt.wantKind || body.Error == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := doRequest(r, nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	w = doRequest(r, func(r *http.Request) { r.Header.Set(RequestIDHeader, "abc-123") })
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want echoed", got)
	}
}
