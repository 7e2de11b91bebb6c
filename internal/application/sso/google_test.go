package sso

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/sso-service/internal/config"
	"github.com/baechuer/sso-service/internal/domain"
)

func googleCfg(id, secret string) *config.Config {
	return &config.Config{
		PublicURL:          "https://sso.example.com",
		BaseURL:            "/sqlpad",
		GoogleClientID:     id,
		GoogleClientSecret: secret,
	}
}

func TestEnableGoogle_SkipsWithoutCredentials(t *testing.T) {
	cases := []struct {
		name       string
		id, secret string
	}{
		{"none", "", ""},
		{"missing_secret", "id", ""},
		{"missing_id", "", "secret"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := EnableGoogle(googleCfg(tt.id, tt.secret), NewResolver(newFakeUsers(), &fakePolicy{}, ResolverConfig{}))
			assert.False(t, ok)
			assert.Nil(t, s)
		})
	}

	s, ok := EnableGoogle(nil, nil)
	assert.False(t, ok)
	assert.Nil(t, s)
}

func TestEnableGoogle_RegistersOneStrategy(t *testing.T) {
	cfg := googleCfg("client-id", "client-secret")
	reg := NewRegistry()

	s, ok := EnableGoogle(cfg, NewResolver(newFakeUsers(), &fakePolicy{}, ResolverConfig{}))
	require.True(t, ok)
	require.NoError(t, reg.Register(s))

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{GoogleStrategyName}, reg.Names())
	assert.Equal(t, "https://sso.example.com"+"/sqlpad"+"/auth/google/callback", s.CallbackURL())
	assert.Equal(t, GoogleProfileURL, s.ProfileURL())

	authURL, err := url.Parse(s.AuthURL("st", "verifier"))
	require.NoError(t, err)
	q := authURL.Query()
	assert.Equal(t, "accounts.google.com", authURL.Host)
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, s.CallbackURL(), q.Get("redirect_uri"))
	assert.Equal(t, "st", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestGoogleCallbackURL_EmptyBaseURL(t *testing.T) {
	cfg := &config.Config{PublicURL: "http://localhost:3000"}
	assert.Equal(t, "http://localhost:3000/auth/google/callback", GoogleCallbackURL(cfg))
}

// A full code flow against a fake Google, through the same options bootstrap exposes.
func TestEnableGoogle_AuthenticateEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "verifier", r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub": "123", "email": "first@corp.com", "email_verified": true, "name": "First",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	users := newFakeUsers()
	s, ok := EnableGoogle(
		googleCfg("id", "secret"),
		NewResolver(users, &fakePolicy{}, ResolverConfig{}),
		WithGoogleEndpoints(srv.URL+"/auth", srv.URL+"/token"),
		WithGoogleProfileURL(srv.URL+"/userinfo?alt=json"),
	)
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/userinfo?alt=json", s.ProfileURL())

	out := s.Authenticate(context.Background(), "code", "verifier")
	require.Equal(t, OutcomeAuthenticated, out.Kind, "err=%v", out.Err)
	assert.True(t, out.IsNew)
	assert.Equal(t, domain.RoleAdmin, out.User.Role)
	assert.Equal(t, "first@corp.com", out.User.Email)
}
