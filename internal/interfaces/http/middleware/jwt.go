package middleware

import (
	"errors"
	"strings"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates a bearer token
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Validator TokenValidator
	// Revocations is optional; lookups fail open so a Redis outage does
	// not lock every operator out
	Revocations auth.RevocationList
	Logger      *zap.Logger
}

// JWTAuth validates the bearer token and stores the caller's principal in
// the request context for the application layer
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		tokenString, ok := strings.CutPrefix(c.GetHeader(AuthHeaderKey), BearerPrefix)
		if !ok || tokenString == "" {
			rejectToken(c, cfg, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.Validator.ValidateAccessToken(tokenString)
		if err != nil {
			rejectToken(c, cfg, err)
			return
		}

		if cfg.Revocations != nil && claims.ID != "" {
			revoked, err := cfg.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				cfg.Logger.Error("Revocation lookup failed, accepting token", zap.String("jti", claims.ID), zap.Error(err))
			} else if revoked {
				rejectToken(c, cfg, auth.ErrTokenRevoked)
				return
			}
		}

		principal, err := claims.Principal()
		if err != nil {
			rejectToken(c, cfg, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		ctx := authz.WithPrincipal(c.Request.Context(), principal)
		ctx = logger.WithTenantID(ctx, claims.TenantID)
		ctx = logger.WithUserID(ctx, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func rejectToken(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	cfg.Logger.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		abortWithError(c, dto.ErrCodeTokenExpired, "Token has expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		abortWithError(c, dto.ErrCodeUnauthorized, "Token has been revoked")
	default:
		abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
	}
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// RequirePermission rejects callers whose principal lacks permission.
// Services check again; this only keeps unauthorized traffic off the handlers.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := authz.FromContext(c.Request.Context())
		if !ok {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !p.Has(permission) {
			abortWithError(c, dto.ErrCodeForbidden, "Missing permission "+permission)
			return
		}
		c.Next()
	}
}
