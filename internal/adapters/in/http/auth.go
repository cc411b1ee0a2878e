package http

import (
	"net/http"
	"strings"

	"orderbot/internal/pkg/auth"

	"github.com/labstack/echo/v4"
)

const staffSubjectKey = "staff_subject"

// StaffAuth validates bearer tokens on /api/ routes.
func StaffAuth(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !strings.HasPrefix(ctx.Path(), "/api/") {
				return next(ctx)
			}

			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return jsonError(ctx, http.StatusUnauthorized, "Missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return jsonError(ctx, http.StatusUnauthorized, "Invalid authorization header")
			}

			claims, err := tokens.ParseToken(parts[1])
			if err != nil {
				return jsonError(ctx, http.StatusUnauthorized, "Invalid token")
			}

			ctx.Set(staffSubjectKey, claims.Subject)
			return next(ctx)
		}
	}
}

// StaffActor names the authenticated staff member in the status history.
func StaffActor(ctx echo.Context) string {
	subject, _ := ctx.Get(staffSubjectKey).(string)
	if subject == "" {
		return "staff"
	}
	return "staff:" + subject
}
