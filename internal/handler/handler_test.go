package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/i18n"
	"github.com/interatlas/management-system/internal/middleware"
	"github.com/interatlas/management-system/internal/repository"
	"github.com/interatlas/management-system/internal/service"
)

var nopLog = zap.NewNop().Sugar()

// newCtx builds an echo context for a request whose language middleware
// already ran.
func newCtx(method, target, body, lang string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("lang", lang)
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrPartNotFound, http.StatusNotFound},
		{service.ErrDuplicateVisit, http.StatusConflict},
		{service.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{fmt.Errorf("record: %w", service.ErrBanknoteRegression), http.StatusUnprocessableEntity},
		{service.ErrMailFailed, http.StatusInternalServerError},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, statusOf(tc.err))
		})
	}
}

func TestFailLocalizesWorkflowErrors(t *testing.T) {
	c, rec := newCtx(http.MethodPost, "/", "", "lt")
	require.NoError(t, fail(c, nopLog, service.ErrTaskCompleted))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "flash_task_already_completed", body["error"])
	assert.Equal(t, i18n.T("flash_task_already_completed", "lt"), body["message"])
}

func TestFailHidesInternalFaults(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/", "", "en")
	require.NoError(t, fail(c, nopLog, errors.New("dial tcp 10.0.0.5:3306: refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "internal", body["error"])
	assert.NotContains(t, rec.Body.String(), "3306")
}

func TestEveryErrorCodeIsTranslated(t *testing.T) {
	codes := []*service.Error{
		service.ErrPartNotFound, service.ErrMachineNotFound, service.ErrClientNotFound,
		service.ErrLocationNotFound, service.ErrMachineTypeNotFound, service.ErrUserNotFound,
		service.ErrTaskNotFound, service.ErrVisitNotFound, service.ErrTokenNotFound,
		service.ErrDuplicateVisit, service.ErrPhoneTaken, service.ErrEmailTaken,
		service.ErrPartNumberTaken, service.ErrSerialTaken, service.ErrNameTaken, service.ErrUserExists,
		service.ErrInvalidDate, service.ErrIncompatiblePart, service.ErrInsufficientStock,
		service.ErrInvalidQuantity, service.ErrServiceDateRegression, service.ErrBanknoteRegression,
		service.ErrTokenExpired, service.ErrTaskCompleted, service.ErrNegativePrice,
		service.ErrNoMachineType, service.ErrInvalidWarranty, service.ErrEmptyText,
		service.ErrPasswordMismatch, service.ErrWrongPassword, service.ErrInvalidCredentials,
		service.ErrUserInactive, service.ErrUserNotVerified, service.ErrSelfDemotion,
		service.ErrMailFailed,
	}
	for _, e := range codes {
		for _, lang := range []string{"en", "lt"} {
			assert.NotEqual(t, e.Code, i18n.T(e.Code, lang), "%s has no %s translation", e.Code, lang)
		}
	}
}

func TestParamID(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/", "", "en")
	c.SetParamNames("id")

	c.SetParamValues("42")
	id, err := paramID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		_, err := paramID(c, "id")
		assert.ErrorIs(t, err, errBadID, bad)
	}
}

func TestActorOfReadsClaims(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/", "", "en")
	c.Set("user_id", uint64(7))
	c.Set("is_admin", true)
	c.Set("name", "Ona Petraitė")

	a := actorOf(c)
	assert.Equal(t, service.Actor{ID: 7, Name: "Ona Petraitė", IsAdmin: true, Lang: "en"}, a)
	assert.Equal(t, uint64(7), middleware.UserID(c))
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/healthz", "", "en")
	require.NoError(t, Health(stubPinger{})(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	c, rec = newCtx(http.MethodGet, "/healthz", "", "en")
	require.NoError(t, Health(stubPinger{err: errors.New("down")})(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func newCatalogHandler(t *testing.T) (*CatalogHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cat := service.NewCatalog(db, service.CatalogRepos{
		Clients: repository.NewClientRepo(db),
	}, nil, audit.Discard{})
	return NewCatalogHandler(cat, nopLog), mock
}

func TestGetClient(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h, mock := newCatalogHandler(t)
		mock.ExpectQuery("FROM clients WHERE id").WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "company", "address", "city", "contact_person", "phone_number", "email"}).
				AddRow(5, "UAB Banka", "Gedimino pr. 1", "Vilnius", "Petras", "+37060000000", "info@banka.lt"))

		c, rec := newCtx(http.MethodGet, "/", "", "en")
		c.SetParamNames("id")
		c.SetParamValues("5")
		require.NoError(t, h.GetClient(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "UAB Banka", decode(t, rec)["company"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		h, mock := newCatalogHandler(t)
		mock.ExpectQuery("FROM clients WHERE id").WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		c, rec := newCtx(http.MethodGet, "/", "", "en")
		c.SetParamNames("id")
		c.SetParamValues("9")
		require.NoError(t, h.GetClient(c))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "flash_client_not_exist", decode(t, rec)["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad id", func(t *testing.T) {
		h, _ := newCatalogHandler(t)
		c, rec := newCtx(http.MethodGet, "/", "", "en")
		c.SetParamNames("id")
		c.SetParamValues("x")
		require.NoError(t, h.GetClient(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateClientRequiresFields(t *testing.T) {
	h, mock := newCatalogHandler(t)
	c, rec := newCtx(http.MethodPost, "/", `{"company":"UAB Banka","phone_number":"","email":""}`, "en")
	require.NoError(t, h.CreateClient(c))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "flash_field_required", decode(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVisitRejectsBadDate(t *testing.T) {
	h := NewWorkHandler(nil, nil, nil, nil, nopLog)
	c, rec := newCtx(http.MethodPost, "/", `{"client_id":1,"date":"14/05/2025","purpose":"service"}`, "en")
	require.NoError(t, h.CreateVisit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
