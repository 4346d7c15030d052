package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedIDToken(t *testing.T, sub, email, name string) string {
	t.Helper()
	claims := idTokenClaims{
		Email:            email,
		Name:             name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub, Issuer: "https://accounts.google.com"},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestHTTPProfileSource_SendsBearerAndDecodes(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"g-1","email":"bob@example.com","name":"Bob"}`))
	}))
	defer srv.Close()

	p, err := NewHTTPProfileSource(srv.URL, srv.Client()).FetchProfile(context.Background(), "at-1")
	require.NoError(t, err)
	require.Equal(t, "Bearer at-1", auth)
	require.Equal(t, Profile{ID: "g-1", Email: "bob@example.com", Name: "Bob"}, p)
}

func TestHTTPProfileSource_SubFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sub":"g-2","email":"x@y.co","name":"X"}`))
	}))
	defer srv.Close()

	p, err := NewHTTPProfileSource(srv.URL, nil).FetchProfile(context.Background(), "at")
	require.NoError(t, err)
	require.Equal(t, "g-2", p.ID)
}

func TestHTTPProfileSource_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPProfileSource(srv.URL, nil).FetchProfile(context.Background(), "at")
	var se *ProfileStatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestHTTPProfileSource_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewHTTPProfileSource(srv.URL, nil).FetchProfile(context.Background(), "at")
	require.ErrorContains(t, err, "decode profile")
}

func TestProfileFromIDToken(t *testing.T) {
	p, err := profileFromIDToken(signedIDToken(t, "g-9", "d@e.co", "Dee"))
	require.NoError(t, err)
	require.Equal(t, Profile{ID: "g-9", Email: "d@e.co", Name: "Dee"}, p)

	_, err = profileFromIDToken("garbage")
	require.Error(t, err)
}

func TestFederatedSignIn_ThroughHTTPProfileSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"g-1","email":"bob@example.com","name":"Bob"}`))
	}))
	defer srv.Close()

	b := newFakeBackend()
	svc := NewAuthService(b, NewHTTPProfileSource(srv.URL, srv.Client()), logging.Discard())
	res := svc.FederatedSignIn(context.Background(), googleSuccess(signedIDToken(t, "g-1", "bob@example.com", "Bob"), "at"))

	require.True(t, res.Success)
	require.Equal(t, "g-1", b.LastAuthData.ID)
}
