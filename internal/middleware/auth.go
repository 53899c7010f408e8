package middleware

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/currentsee/internal/auth"
)

type contextKey string

const (
	// AdminIDKey is the context key for the authenticated admin ID.
	AdminIDKey contextKey = "admin_id"
	// EmailKey is the context key for the authenticated admin's email.
	EmailKey contextKey = "email"
)

// GetAdminID extracts the admin ID from the context, or "".
func GetAdminID(ctx context.Context) string {
	adminID, _ := ctx.Value(AdminIDKey).(string)
	return adminID
}

// GetEmail extracts the admin email from the context, or "".
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithAdmin returns ctx carrying the admin identity, as RequireAuth does.
func WithAdmin(ctx context.Context, adminID, email string) context.Context {
	ctx = context.WithValue(ctx, AdminIDKey, adminID)
	return context.WithValue(ctx, EmailKey, email)
}

// RequireAuth returns an interceptor that rejects calls without a valid Bearer token
// and puts the admin's ID and email into the context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			slog.DebugContext(ctx, "Admin authenticated",
				"procedure", req.Spec().Procedure,
				"admin_id", claims.AdminID,
			)
			return next(WithAdmin(ctx, claims.AdminID, claims.Email), req)
		}
	}
}
