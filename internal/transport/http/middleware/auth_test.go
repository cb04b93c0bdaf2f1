package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/runease-api/internal/domain"
	jwtinfra "github.com/runease-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider([]byte(strings.Repeat("s", jwtinfra.MinSecretLen)), time.Hour)
	require.NoError(t, err)
	return p
}

func claimsEcho(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(claims.UserID))
}

func serveAuth(t *testing.T, p *jwtinfra.Provider, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(claimsEcho)).ServeHTTP(rr, req)
	return rr
}

func TestAuth_ValidToken(t *testing.T) {
	p := newTestProvider(t)
	tok, _, err := p.Sign(&domain.User{UserID: "u1", Role: domain.RoleAthlete})
	require.NoError(t, err)

	rr := serveAuth(t, p, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", rr.Body.String())
}

func TestAuth_Rejects(t *testing.T) {
	p := newTestProvider(t)
	tok, _, err := p.Sign(&domain.User{UserID: "u1"})
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":  "",
		"basic":    "Basic dXNlcjpwYXNz",
		"empty":    "Bearer ",
		"garbage":  "Bearer not.a.token",
		"tampered": "Bearer " + tok + "x",
	} {
		t.Run(name, func(t *testing.T) {
			rr := serveAuth(t, p, header)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body["code"])
		})
	}
}
