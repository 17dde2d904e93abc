package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")

		var body map[string]string
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		switch r.URL.Path {
		case "/auth/v1/signup":
			if body["email"] == "taken@acme.test" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, `{"code":422,"msg":"User already registered"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":"u-1","email":"`+body["email"]+`"}`)
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			if body["password"] != "hunter22" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u-1"}}`)
		case "/auth/v1/logout":
			assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/recover":
			_, _ = io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestProviderClient(t *testing.T) {
	srv := fakeProvider(t)
	defer srv.Close()
	p := NewProviderClient(srv.URL, "anon", time.Second)
	ctx := context.Background()

	u, err := p.SignUp(ctx, "owner@acme.test", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	_, err = p.SignUp(ctx, "taken@acme.test", "hunter22")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnprocessableEntity, pe.Status)
	assert.Equal(t, "User already registered", pe.Message)

	s, err := p.SignIn(ctx, "owner@acme.test", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, "rt", s.RefreshToken)
	assert.Equal(t, "u-1", s.User.ID)

	_, err = p.SignIn(ctx, "owner@acme.test", "wrong")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Invalid login credentials", pe.Message)

	require.NoError(t, p.SignOut(ctx, "at"))
	require.NoError(t, p.ResetPassword(ctx, "owner@acme.test"))
}
