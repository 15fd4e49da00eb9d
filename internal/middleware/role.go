package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/interatlas/management-system/internal/i18n"
)

// RequireAdmin aborts with 403 Forbidden unless JWTAuth found the admin
// flag in the token.  It must run after JWTAuth.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !IsAdmin(c) {
                return c.JSON(http.StatusForbidden, echo.Map{
                    "error":   "forbidden",
                    "message": i18n.T("error_forbidden", Lang(c)),
                })
            }
            return next(c)
        }
    }
}
