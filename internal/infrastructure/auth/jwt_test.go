package auth

import (
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "test-issuer",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "warehouse-operator",
		Permissions: []string{authz.PermOrderDispatch, authz.PermInventoryRead},
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	issued, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", issued.TokenType)
	assert.NotEmpty(t, issued.TokenID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, issued.TokenID, claims.ID)
	assert.Equal(t, "test-issuer", claims.Issuer)

	principal, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, input.TenantID, principal.TenantID)
	assert.Equal(t, input.UserID, principal.UserID)
	assert.True(t, principal.Has(authz.PermOrderDispatch))
	assert.False(t, principal.Has(authz.PermOrderDelete))
}

func TestGenerateAccessToken_Validation(t *testing.T) {
	svc := newTestJWTService()

	t.Run("missing tenant", func(t *testing.T) {
		input := newTestInput()
		input.TenantID = uuid.Nil
		_, err := svc.GenerateAccessToken(input)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})

	t.Run("missing user", func(t *testing.T) {
		input := newTestInput()
		input.UserID = uuid.Nil
		_, err := svc.GenerateAccessToken(input)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("unknown permission", func(t *testing.T) {
		input := newTestInput()
		input.Permissions = []string{"product:read"}
		_, err := svc.GenerateAccessToken(input)
		assert.ErrorIs(t, err, ErrUnknownScope)
	})

	t.Run("wildcard", func(t *testing.T) {
		input := newTestInput()
		input.Permissions = []string{authz.Wildcard}
		issued, err := svc.GenerateAccessToken(input)
		require.NoError(t, err)
		claims, err := svc.ValidateAccessToken(issued.AccessToken)
		require.NoError(t, err)
		principal, err := claims.Principal()
		require.NoError(t, err)
		assert.True(t, principal.Has(authz.PermOrderDelete))
	})

	t.Run("ttl override", func(t *testing.T) {
		input := newTestInput()
		input.TTL = time.Hour
		issued, err := svc.GenerateAccessToken(input)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)
	})
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	issued, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = svc.ValidateAccessToken(issued.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	svc := newTestJWTService()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-at-least-32-chars",
			Issuer:                "test-issuer",
			AccessTokenExpiration: time.Minute,
		})
		issued, err := other.GenerateAccessToken(newTestInput())
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(issued.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			Issuer:                "someone-else",
			AccessTokenExpiration: time.Minute,
		})
		issued, err := other.GenerateAccessToken(newTestInput())
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(issued.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "test-issuer"},
			TenantID:         uuid.NewString(),
			UserID:           uuid.NewString(),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant claim", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			UserID: uuid.NewString(),
		})
		signed, err := token.SignedString([]byte("test-secret-key-at-least-32-chars"))
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(signed)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})
}

func TestClaims_Principal_BadIdentifiers(t *testing.T) {
	claims := &Claims{TenantID: "nope", UserID: uuid.NewString()}
	_, err := claims.Principal()
	assert.ErrorIs(t, err, ErrMissingTenantID)

	claims = &Claims{TenantID: uuid.NewString(), UserID: "nope"}
	_, err = claims.Principal()
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}
	assert.InDelta(t, time.Minute.Seconds(), claims.RemainingTTL(now).Seconds(), 1)
	assert.Zero(t, claims.RemainingTTL(now.Add(time.Hour)))
	assert.Zero(t, (&Claims{}).RemainingTTL(now))
}
