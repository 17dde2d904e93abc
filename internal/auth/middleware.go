package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/common"
	"github.com/suPer8Hu/docchat/internal/config"
)

const (
	RoleAccountUser = "account_user"
	RoleGlobalAdmin = "global_admin"

	claimsKey = "auth_claims"
)

// Claims is the caller identity extracted from a provider-issued access token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// Validator checks access tokens issued by the external auth provider, either
// with the shared HS256 secret or against the provider's JWKS.
type Validator struct {
	secret []byte
	jwks   *keyfunc.JWKS
	issuer string
	log    zerolog.Logger
}

func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	v := &Validator{
		issuer: strings.TrimSpace(cfg.AuthIssuer),
		log:    log.With().Str("component", "auth").Logger(),
	}

	if url := strings.TrimSpace(cfg.AuthJWKSURL); url != "" {
		jwks, err := keyfunc.Get(url, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				v.log.Error().Err(err).Msg("jwks refresh error")
			},
		})
		if err != nil {
			return nil, err
		}
		v.jwks = jwks
		return v, nil
	}

	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("auth: jwt secret or jwks url is required")
	}
	v.secret = []byte(cfg.AuthJWTSecret)
	return v, nil
}

// NewHS256Validator builds a secret-only validator.
func NewHS256Validator(secret, issuer string) *Validator {
	return &Validator{secret: []byte(secret), issuer: issuer, log: zerolog.Nop()}
}

func (v *Validator) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var keyFunc jwt.Keyfunc
	if v.jwks != nil {
		keyFunc = v.jwks.Keyfunc
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256"}))
	} else {
		keyFunc = func(*jwt.Token) (any, error) { return v.secret, nil }
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
	}

	token, err := jwt.Parse(tokenString, keyFunc, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, errors.New("token has no subject")
	}
	email, _ := mc["email"].(string)
	role := RoleAccountUser
	if meta, ok := mc["user_metadata"].(map[string]any); ok {
		if r, ok := meta["role"].(string); ok && r != "" {
			role = r
		}
	}
	return &Claims{UserID: sub, Email: email, Role: role}, nil
}

// Middleware rejects requests without a valid bearer token.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			common.AbortFail(c, http.StatusUnauthorized, 40100, "invalid authorization header")
			return
		}
		claims, err := v.Parse(tokenString)
		if err != nil {
			common.AbortFail(c, http.StatusUnauthorized, 40101, "authentication failed: "+err.Error())
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole must run after Middleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := FromContext(c)
		if !ok || claims.Role != role {
			common.AbortFail(c, http.StatusForbidden, 40300, "admin access required")
			return
		}
		c.Next()
	}
}

func FromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// UserID returns the authenticated user id, or "" outside Middleware.
func UserID(c *gin.Context) string {
	if claims, ok := FromContext(c); ok {
		return claims.UserID
	}
	return ""
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
