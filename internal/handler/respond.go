package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/i18n"
	"github.com/interatlas/management-system/internal/middleware"
	"github.com/interatlas/management-system/internal/service"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

const dateLayout = "2006-01-02"

var errBadID = errors.New("invalid id")

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actorOf builds the acting user from the claims JWTAuth stored on the
// context.  Public routes get the zero actor with the request language.
func actorOf(c echo.Context) service.Actor {
	return service.Actor{
		ID:      middleware.UserID(c),
		Name:    middleware.UserName(c),
		IsAdmin: middleware.IsAdmin(c),
		Lang:    middleware.Lang(c),
	}
}

// statusOf maps a workflow error kind to the HTTP status it is reported
// with.  Anything that is not a *service.Error is an internal fault.
func statusOf(err error) int {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindInvalidState:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes err as a localized JSON error.  Internal faults are logged
// with the request context and answered with a generic message.
func fail(c echo.Context, log *zap.SugaredLogger, err error) error {
	lang := middleware.Lang(c)
	var we *service.Error
	if errors.As(err, &we) && we.Kind != service.KindTransientIO {
		return c.JSON(statusOf(err), echo.Map{
			"error":   we.Code,
			"message": i18n.T(we.Code, lang),
		})
	}
	log.Errorw("request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"user_id", middleware.UserID(c),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error":   "internal",
		"message": i18n.T("error_internal", lang),
	})
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":   "bad_request",
		"message": i18n.T("error_bad_request", middleware.Lang(c)),
	})
}

// flash answers a successful command with its localized confirmation.
func flash(c echo.Context, status int, key string, data any) error {
	body := echo.Map{"message": i18n.T(key, middleware.Lang(c))}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return id, nil
}

// queryID reads an optional numeric query parameter; absent means 0.
func queryID(c echo.Context, name string) (uint64, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
}
