package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // revocation lookups take the request context
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming
    "time"     // revocation instants

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/interatlas/management-system/internal/i18n"    // localized error messages
    "github.com/interatlas/management-system/internal/session" // token validity against revocation
    "github.com/interatlas/management-system/internal/utils"   // token parsing
)

// Revocations tells when a user's sessions were last revoked.
type Revocations interface {
    RevokedSince(ctx context.Context, userID uint64) (time.Time, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// rejects tokens issued before the user's last forced logout and injects the
// token's claims into the request context (see identity.go).
func JWTAuth(secret string, revoked Revocations) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c)
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return unauthorized(c)
            }

            // A Redis outage must not lock everybody out, so lookup errors
            // let the token through.
            if revoked != nil {
                at, err := revoked.RevokedSince(c.Request().Context(), claims.UserID)
                if err == nil && !session.Valid(claims.IssuedAt, at) {
                    return unauthorized(c)
                }
            }

            c.Set(ctxUserID, claims.UserID)
            c.Set(ctxIsAdmin, claims.IsAdmin)
            c.Set(ctxName, claims.Name)
            return next(c)
        }
    }
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{
        "error":   "unauthorized",
        "message": i18n.T("error_unauthorized", Lang(c)),
    })
}
