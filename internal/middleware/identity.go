package middleware

// identity.go holds the context keys set by JWTAuth and Language and the
// accessors handlers use to read them back.

import "github.com/labstack/echo/v4"

const (
    ctxUserID  = "user_id"
    ctxIsAdmin = "is_admin"
    ctxName    = "name"
    ctxLang    = "lang"
)

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(c echo.Context) uint64 {
    id, _ := c.Get(ctxUserID).(uint64)
    return id
}

// IsAdmin reports whether the authenticated user holds admin rights.
func IsAdmin(c echo.Context) bool {
    v, _ := c.Get(ctxIsAdmin).(bool)
    return v
}

// UserName returns the display name carried in the access token.
func UserName(c echo.Context) string {
    v, _ := c.Get(ctxName).(string)
    return v
}

// Lang returns the language resolved for the request, "lt" if Language did
// not run.
func Lang(c echo.Context) string {
    if v, ok := c.Get(ctxLang).(string); ok && v != "" {
        return v
    }
    return "lt"
}
