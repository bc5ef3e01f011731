package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Envelope is the response body every API endpoint writes
type Envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

// DecodeEnvelope parses a recorded response body as an Envelope of T
func DecodeEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()
	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// APIClient drives an http.Handler in process
type APIClient struct {
	Handler http.Handler
}

// Do sends body as JSON. token is the whole Authorization header value and
// is omitted when empty. headers are name/value pairs.
func (c APIClient) Do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// BearerToken issues an access token for tenantID and returns the
// Authorization header value
func BearerToken(t *testing.T, issuer *auth.JWTService, tenantID uuid.UUID, permissions ...string) string {
	t.Helper()
	token, err := issuer.GenerateAccessToken(auth.GenerateTokenInput{
		TenantID:    tenantID,
		UserID:      TestUserID(),
		Username:    "tester",
		Permissions: permissions,
	})
	require.NoError(t, err, "issue access token")
	return token.TokenType + " " + token.AccessToken
}
