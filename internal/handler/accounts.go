package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/middleware"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/service"
)

// AccountHandler serves login, registration, password recovery, the
// user's own settings and the admin user list.
type AccountHandler struct {
	Accounts *service.Accounts
	Log      *zap.SugaredLogger
}

func NewAccountHandler(a *service.Accounts, log *zap.SugaredLogger) *AccountHandler {
	return &AccountHandler{Accounts: a, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// userPart is the public view of model.User; the hash never leaves the
// server.
type userPart struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email"`
	IsAdmin     bool      `json:"is_admin"`
	IsActive    bool      `json:"is_active"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:          u.ID,
		Name:        u.Name,
		Surname:     u.Surname,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

type loginResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

type emailReq struct {
	Email string `json:"email"`
}

type registerReq struct {
	Token           string `json:"token"`
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type resetReq struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type settingsReq struct {
	CurrentPassword string `json:"current_password"`
	PhoneNumber     string `json:"phone_number"`
	Email           string `json:"email"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type flagsReq struct {
	IsAdmin  bool `json:"is_admin"`
	IsActive bool `json:"is_active"`
}

// Login: verify credentials and return an access token.
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, h.Log, service.ErrEmptyText)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	s, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, loginResp{
		User:   toUserPart(s.User),
		Access: tokenPart{Token: s.Token.Token, Expires: s.Token.Exp},
	})
}

// Logout voids every access token of the caller.
func (h *AccountHandler) Logout(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Accounts.Logout(ctx, actorOf(c)); err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusOK, "flash_logged_out", nil)
}

// Me returns the authenticated user.
func (h *AccountHandler) Me(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Accounts.Me(ctx, actorOf(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// Invite mails a registration link to a new colleague.
func (h *AccountHandler) Invite(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Accounts.Invite(ctx, actorOf(c), req.Email); err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusCreated, "flash_invite_sent", nil)
}

// Invitation tells the registration form which email the token is for.
func (h *AccountHandler) Invitation(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	email, err := h.Accounts.Invitation(ctx, c.QueryParam("token"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"email": email})
}

// Register completes an invitation.
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Accounts.Register(ctx, service.RegisterInput{
		Token:           req.Token,
		Name:            req.Name,
		Surname:         req.Surname,
		PhoneNumber:     req.PhoneNumber,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusCreated, "flash_registration_successful", toUserPart(u))
}

// ForgotPassword answers the same way whether or not the email exists.
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return fail(c, h.Log, service.ErrEmptyText)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Accounts.ForgotPassword(ctx, middleware.Lang(c), email); err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusOK, "flash_reset_link", nil)
}

// CheckResetToken lets the reset form reject a dead link before the user
// types a new password.
func (h *AccountHandler) CheckResetToken(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Accounts.CheckResetToken(ctx, c.QueryParam("token")); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true})
}

func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Accounts.ResetPassword(ctx, req.Token, req.Password, req.ConfirmPassword); err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusOK, "flash_password_updated", nil)
}

// VerifyEmail accepts the token as a path segment or, as mailed, in the
// query string.
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		token = c.QueryParam("token")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Accounts.VerifyEmail(ctx, token); err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusOK, "flash_verification_success", nil)
}

// UpdateSettings changes the caller's phone, email or password.  The
// response says whether the client must drop its token.
func (h *AccountHandler) UpdateSettings(c echo.Context) error {
	var req settingsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Accounts.UpdateSettings(ctx, actorOf(c), service.SettingsInput{
		CurrentPassword: req.CurrentPassword,
		PhoneNumber:     req.PhoneNumber,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	key := "flash_settings_updated"
	if res.VerificationSent {
		key = "flash_verification_link_sent"
	}
	return flash(c, http.StatusOK, key, res)
}

func (h *AccountHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	users, err := h.Accounts.ListUsers(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, out)
}

// SetUserFlags updates is_admin and is_active of another user.
func (h *AccountHandler) SetUserFlags(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	var req flagsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Accounts.SetFlags(ctx, actorOf(c), id, req.IsAdmin, req.IsActive)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusOK, "flash_settings_updated", toUserPart(u))
}
