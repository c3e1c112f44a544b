package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	"golang.org/x/oauth2"
)

func newFakeGoogle(t *testing.T, verified bool) *GoogleProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if verified {
			_, _ = w.Write([]byte(`{"email":"op@example.com","email_verified":true,"name":"Op","picture":"https://img.example.com/op.png"}`))
			return
		}
		_, _ = w.Write([]byte(`{"email":"op@example.com","email_verified":false}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGoogleProvider(config.OAuthConfig{
		GoogleClientID:     "client",
		GoogleClientSecret: "secret",
		GoogleRedirectURL:  "http://localhost/session/oauth/google/callback",
	})
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	p.userInfoURL = srv.URL + "/userinfo"
	return p
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(config.OAuthConfig{GoogleClientID: "client", GoogleClientSecret: "secret", GoogleRedirectURL: "http://localhost/cb"})

	u, err := url.Parse(p.AuthCodeURL("state-1"))
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-1" || q.Get("client_id") != "client" || q.Get("redirect_uri") != "http://localhost/cb" {
		t.Errorf("query = %v", q)
	}
}

func TestGoogleProvider_Identity(t *testing.T) {
	p := newFakeGoogle(t, true)

	identity, err := p.Identity(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if identity.Email != "op@example.com" || identity.Image != "https://img.example.com/op.png" || identity.Provider != ProviderGoogle {
		t.Errorf("identity = %+v", identity)
	}
}

func TestGoogleProvider_IdentityFailures(t *testing.T) {
	if _, err := newFakeGoogle(t, true).Identity(context.Background(), "bad-code"); !errors.Is(err, apperror.ErrSignInRejected) {
		t.Errorf("bad code: error = %v, want SignInRejected", err)
	}
	if _, err := newFakeGoogle(t, true).Identity(context.Background(), ""); !errors.Is(err, apperror.ErrSignInRejected) {
		t.Errorf("empty code: error = %v, want SignInRejected", err)
	}
	if _, err := newFakeGoogle(t, false).Identity(context.Background(), "good-code"); !errors.Is(err, apperror.ErrSignInRejected) {
		t.Errorf("unverified email: error = %v, want SignInRejected", err)
	}
}

func TestNewState_Unique(t *testing.T) {
	if NewState() == NewState() {
		t.Error("states should differ")
	}
}
