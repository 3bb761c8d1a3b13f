package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"kaleidorium/config"
	"kaleidorium/internal/apierr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var errNoToken = errors.New("authorization header missing")

func parseBearer(c *gin.Context) (jwt.MapClaims, error) {
	jwtKey := []byte(config.JWT_SECRET)
	if len(jwtKey) == 0 {
		return nil, errors.New("jwt secret not configured")
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errNoToken
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, errors.New("bearer token malformed")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims jwt.MapClaims) bool {
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return false
	}
	c.Set("user_id", uint(userID))
	if email, ok := claims["email"].(string); ok {
		c.Set("email", email)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
	return true
}

// AuthMiddleware requires a valid Bearer JWT and exposes user_id, email and
// role on the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c)
		if err != nil {
			apierr.Respond(c, apierr.Authentication, err, nil)
			return
		}
		if !setClaims(c, claims) {
			apierr.Respond(c, apierr.Authentication, errors.New("token without user_id"), nil)
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the caller's identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := parseBearer(c); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequireRole lets through callers whose role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			apierr.Respond(c, apierr.Authentication, errors.New("role not found in token"), nil)
			return
		}
		if !slices.Contains(roles, role) {
			apierr.Respond(c, apierr.Authorization, fmt.Errorf("role %q not in %v", role, roles), nil)
			return
		}
		c.Next()
	}
}
