package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"foodhub-api/apperrors"
	"foodhub-api/config"
	"foodhub-api/models"
)

const actorKey = "actor"

type Claims struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies the signed session cookie.
type Sessions struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewSessions(cfg config.SessionConfig) *Sessions {
	return &Sessions{
		secret:     cfg.Secret,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.CookieSecure,
	}
}

func (s *Sessions) CookieName() string {
	return s.cookieName
}

// GenerateToken creates a signed JWT for a given user
func (s *Sessions) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Sessions) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// Issue signs a token for user and sets it as an HttpOnly cookie.
func (s *Sessions) Issue(c *gin.Context, user *models.User) error {
	token, err := s.GenerateToken(user)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, token, int(s.ttl.Seconds()), "/", "", s.secure, true)
	return nil
}

func (s *Sessions) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, "", -1, "/", "", s.secure, true)
}

// AuthRequired resolves the session cookie into an Actor. Bearer tokens are
// not accepted.
func (s *Sessions) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(s.cookieName)
		if err != nil || raw == "" {
			AbortWithError(c, apperrors.New(apperrors.KindUnauthenticated, "please log in to continue"))
			return
		}
		claims, err := s.ParseToken(raw)
		if err != nil {
			AbortWithError(c, apperrors.Wrap(apperrors.KindUnauthenticated, "session expired or invalid", err))
			return
		}
		c.Set(actorKey, models.Actor{Role: claims.Role, ID: claims.UserID})
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			AbortWithError(c, apperrors.New(apperrors.KindUnauthenticated, "please log in to continue"))
			return
		}
		for _, r := range roles {
			if actor.Is(r) {
				c.Next()
				return
			}
		}
		AbortWithError(c, apperrors.New(apperrors.KindForbidden,
			"access denied; required role(s): "+rolesString(roles)))
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// ActorFrom returns the actor resolved by AuthRequired.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// GetActor is ActorFrom for routes behind AuthRequired.
func GetActor(c *gin.Context) models.Actor {
	actor, _ := ActorFrom(c)
	return actor
}
