// Package actor resolves the identity performing a request so that audit log
// entries can be attributed. It is not an authentication layer: the service
// trusts its caller (the API gateway handles sessions) and only needs a stable
// actor id and the request origin for the audit trail.
package actor

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	idKey   contextKey = "actor_id"
	nameKey contextKey = "actor_name"
	ipKey   contextKey = "actor_ip"
)

// Claims carries the subset of bearer-token claims the service cares about.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Middleware extracts the acting user from the request and stores it on the
// request context. Resolution order:
//
//  1. Bearer token signed with secret (HS256) — subject claim becomes the
//     actor id. A malformed or badly signed token is ignored, not rejected.
//  2. X-Actor-ID header, for trusted internal callers.
//
// The client IP is always recorded.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ipKey, c.RealIP())

			id, name := resolve(c, secret)
			if id != "" {
				ctx = context.WithValue(ctx, idKey, id)
			}
			if name != "" {
				ctx = context.WithValue(ctx, nameKey, name)
			}

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func resolve(c echo.Context, secret string) (id, name string) {
	authz := c.Request().Header.Get("Authorization")
	if secret != "" && strings.HasPrefix(authz, "Bearer ") {
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err == nil && token.Valid && claims.Subject != "" {
			return claims.Subject, claims.Name
		}
	}

	return c.Request().Header.Get("X-Actor-ID"), ""
}

// IDFromContext returns the actor id, or "" when the request was anonymous.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}

// NameFromContext returns the actor display name, if the token carried one.
func NameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(nameKey).(string)
	return name
}

// IPFromContext returns the best-effort request origin address.
func IPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey).(string)
	return ip
}

// WithActor returns a context carrying the given actor identity. Intended for
// tests and internal jobs that act on behalf of a known user.
func WithActor(ctx context.Context, id, ip string) context.Context {
	ctx = context.WithValue(ctx, idKey, id)
	return context.WithValue(ctx, ipKey, ip)
}
