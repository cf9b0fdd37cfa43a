package http

import (
	"context"

	"github.com/papa-aryan/ascii-web/internal/auth"
)

type contextKey string

const (
	requestIDContextKey   contextKey = "ascii-web/request-id"
	identityContextKey    contextKey = "ascii-web/identity"
	accessTokenContextKey contextKey = "ascii-web/access-token"
)

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return value
	}
	return ""
}

// withIdentity attaches the verified admin identity and its original bearer token to the
// context. The token rides along so the storage gateway can forward it for row-level
// authorization.
func withIdentity(ctx context.Context, user *auth.User, token string) context.Context {
	ctx = context.WithValue(ctx, identityContextKey, user)
	return context.WithValue(ctx, accessTokenContextKey, token)
}

// IdentityFromContext returns the verified admin identity, or nil outside gated requests.
func IdentityFromContext(ctx context.Context) *auth.User {
	if ctx == nil {
		return nil
	}
	if value, ok := ctx.Value(identityContextKey).(*auth.User); ok {
		return value
	}
	return nil
}

// AccessTokenFromContext returns the bearer token the gated request arrived with.
func AccessTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(accessTokenContextKey).(string); ok {
		return value
	}
	return ""
}
