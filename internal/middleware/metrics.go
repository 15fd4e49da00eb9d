package middleware

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "go.uber.org/zap"

    "github.com/interatlas/management-system/internal/metrics"
)

// Prometheus counts requests and observes their latency, labelled by the
// route pattern rather than the raw path.
func Prometheus() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response so the status is final
                c.Error(err)
            }

            path := c.Path()
            metrics.RequestsTotal.With(prometheus.Labels{
                "method": c.Request().Method,
                "path":   path,
                "status": http.StatusText(c.Response().Status),
            }).Inc()
            metrics.ResponseTime.With(prometheus.Labels{
                "method": c.Request().Method,
                "path":   path,
            }).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}

// RequestLog writes one debug line per request to the process logger.
func RequestLog(log *zap.SugaredLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            log.Debugw("http request",
                "method", c.Request().Method,
                "path", c.Request().URL.Path,
                "remote", c.RealIP(),
                "status", c.Response().Status,
                "duration_ms", float64(time.Since(start).Microseconds())/1000.0,
                "size", c.Response().Size,
            )
            return nil
        }
    }
}
