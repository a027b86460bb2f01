package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/anonto42/kdiary/backend/pkg/config"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

func TestCredentialsStrategy(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	plain := NewCredentialsStrategy("admin", "hunter2", "", "")
	hashed := NewCredentialsStrategy("admin", "", string(hash), "me@example.com")

	tests := []struct {
		name     string
		strategy *CredentialsStrategy
		in       LoginInput
		wantErr  bool
	}{
		{name: "plain ok", strategy: plain, in: LoginInput{Username: "admin", Password: "hunter2"}},
		{name: "hash ok", strategy: hashed, in: LoginInput{Username: "admin", Password: "hunter2"}},
		{name: "wrong password", strategy: plain, in: LoginInput{Username: "admin", Password: "nope"}, wantErr: true},
		{name: "wrong hash password", strategy: hashed, in: LoginInput{Username: "admin", Password: "nope"}, wantErr: true},
		{name: "wrong user", strategy: plain, in: LoginInput{Username: "root", Password: "hunter2"}, wantErr: true},
		{name: "empty", strategy: plain, in: LoginInput{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.strategy.Authenticate(context.Background(), tt.in)
			if tt.wantErr {
				assert.True(t, apperrors.IsUnauthorized(err))
				assert.False(t, id.IsAdmin)
				return
			}
			require.NoError(t, err)
			assert.True(t, id.IsAdmin)
		})
	}

	id, err := plain.Authenticate(context.Background(), LoginInput{Username: "admin", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "admin@kdiary.com", id.Email)
	assert.Equal(t, "", plain.AuthURL("state"))
}

func newGoogleServer(t *testing.T, userinfo string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userinfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogleStrategy(srv *httptest.Server) *GoogleStrategy {
	return NewGoogleStrategy("client", "secret", "http://localhost/api/auth/callback/google", "Me@Example.com",
		WithGoogleEndpoints(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, srv.URL+"/userinfo"),
	)
}

func TestGoogleStrategy(t *testing.T) {
	tests := []struct {
		name      string
		userinfo  string
		code      string
		wantAdmin bool
		wantErr   bool
	}{
		{name: "admin email", userinfo: `{"email":"me@example.com","verified_email":true,"name":"Me"}`, code: "good-code", wantAdmin: true},
		{name: "other email", userinfo: `{"email":"someone@example.com","verified_email":true}`, code: "good-code"},
		{name: "unverified email", userinfo: `{"email":"me@example.com","verified_email":false}`, code: "good-code", wantErr: true},
		{name: "bad code", userinfo: `{}`, code: "bad-code", wantErr: true},
		{name: "missing code", userinfo: `{}`, code: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestGoogleStrategy(newGoogleServer(t, tt.userinfo))

			id, err := s.Authenticate(context.Background(), LoginInput{Code: tt.code})
			if tt.wantErr {
				assert.True(t, apperrors.IsUnauthorized(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdmin, id.IsAdmin)
		})
	}
}

func TestGoogleAuthURL(t *testing.T) {
	s := newTestGoogleStrategy(newGoogleServer(t, `{}`))
	u := s.AuthURL("xyz")
	assert.Contains(t, u, "/auth?")
	assert.Contains(t, u, "state=xyz")
	assert.Contains(t, u, "client_id=client")
}

type fakeVerifier struct {
	token *firebaseauth.Token
	err   error
}

func (f fakeVerifier) VerifyIDToken(context.Context, string) (*firebaseauth.Token, error) {
	return f.token, f.err
}

func TestFirebaseStrategy(t *testing.T) {
	tests := []struct {
		name      string
		verifier  fakeVerifier
		idToken   string
		wantAdmin bool
		wantErr   bool
	}{
		{name: "admin", verifier: fakeVerifier{token: &firebaseauth.Token{UID: "1", Claims: map[string]interface{}{"email": "ME@example.com"}}}, idToken: "t", wantAdmin: true},
		{name: "not admin", verifier: fakeVerifier{token: &firebaseauth.Token{UID: "2", Claims: map[string]interface{}{"email": "x@example.com"}}}, idToken: "t"},
		{name: "no email", verifier: fakeVerifier{token: &firebaseauth.Token{UID: "3", Claims: map[string]interface{}{}}}, idToken: "t", wantErr: true},
		{name: "invalid token", verifier: fakeVerifier{err: errors.New("expired")}, idToken: "t", wantErr: true},
		{name: "missing token", verifier: fakeVerifier{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewFirebaseStrategy(tt.verifier, "me@example.com")
			id, err := s.Authenticate(context.Background(), LoginInput{IDToken: tt.idToken})
			if tt.wantErr {
				assert.True(t, apperrors.IsUnauthorized(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdmin, id.IsAdmin)
		})
	}
}

func TestIsAdminEmail(t *testing.T) {
	assert.True(t, isAdminEmail(" Me@Example.com", "me@example.com"))
	assert.False(t, isAdminEmail("", ""))
	assert.False(t, isAdminEmail("me@example.com", ""))
}

func TestNewStrategy(t *testing.T) {
	cfg := &config.Config{}

	cfg.Auth.Strategy = config.StrategyCredentials
	s, err := NewStrategy(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "credentials", s.Name())

	cfg.Auth.Strategy = config.StrategyGoogle
	s, err = NewStrategy(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "google", s.Name())

	cfg.Auth.Strategy = config.StrategyFirebase
	_, err = NewStrategy(cfg, nil)
	assert.Error(t, err)

	s, err = NewStrategy(cfg, fakeVerifier{})
	require.NoError(t, err)
	assert.Equal(t, "firebase", s.Name())

	cfg.Auth.Strategy = "saml"
	_, err = NewStrategy(cfg, nil)
	assert.Error(t, err)
}
