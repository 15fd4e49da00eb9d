package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/interatlas/management-system/internal/i18n"
)

// Language resolves the request language: the :lang path segment when it
// names a supported language, else the Accept-Language header, else
// fallback.
func Language(fallback string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            lang := c.Param("lang")
            if !i18n.IsSupported(lang) {
                lang = i18n.Negotiate(c.Request().Header.Get("Accept-Language"), fallback)
            }
            c.Set(ctxLang, lang)
            c.Response().Header().Set("Content-Language", lang)
            return next(c)
        }
    }
}
