package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrUnknownScope     = errors.New("unknown permission")
)

// Claims represents the access token claims
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tenant_id"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Principal converts validated claims into the caller identity used by the
// application layer
func (c *Claims) Principal() (authz.Principal, error) {
	tenantID, err := uuid.Parse(c.TenantID)
	if err != nil {
		return authz.Principal{}, ErrMissingTenantID
	}
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return authz.Principal{}, ErrMissingUserID
	}
	return authz.Principal{
		UserID:      userID,
		TenantID:    tenantID,
		Username:    c.Username,
		Permissions: slices.Clone(c.Permissions),
	}, nil
}

// RemainingTTL returns how long the token stays valid
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(c.ExpiresAt.Sub(now), 0)
}

// IssuedToken is a signed access token
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	TokenID     string    `json:"token_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"` // Bearer
}

// JWTService signs and validates HS256 access tokens
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.AccessTokenExpiration,
		now:        time.Now,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Username    string
	Permissions []string
	// TTL overrides the configured expiration when positive
	TTL time.Duration
}

// GenerateAccessToken issues a signed access token. Permissions must be
// known names or the wildcard.
func (s *JWTService) GenerateAccessToken(input GenerateTokenInput) (*IssuedToken, error) {
	if input.TenantID == uuid.Nil {
		return nil, ErrMissingTenantID
	}
	if input.UserID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	for _, p := range input.Permissions {
		if p != authz.Wildcard && !slices.Contains(authz.AllPermissions, p) {
			return nil, ErrUnknownScope
		}
	}

	ttl := s.expiration
	if input.TTL > 0 {
		ttl = input.TTL
	}
	now := s.now()
	jti := uuid.New().String()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:    input.TenantID.String(),
		UserID:      input.UserID.String(),
		Username:    input.Username,
		Permissions: input.Permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{
		AccessToken: signed,
		TokenID:     jti,
		ExpiresAt:   now.Add(ttl),
		TokenType:   "Bearer",
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// GetAccessExpiration returns the configured access token lifetime
func (s *JWTService) GetAccessExpiration() time.Duration {
	return s.expiration
}
