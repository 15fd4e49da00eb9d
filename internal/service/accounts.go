package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
	"github.com/interatlas/management-system/internal/utils"
)

// SessionRevoker voids every access token a user holds.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uint64, at time.Time) error
}

// AccountsConfig carries the settings account workflows need from the
// process configuration.
type AccountsConfig struct {
	JWTSecret     string
	AccessTTLMin  int
	BcryptCost    int
	PublicBaseURL string
}

// Accounts covers login, invitations, registration, password recovery,
// email verification and user administration.
type Accounts struct {
	db       database.Beginner
	users    *repository.UserRepo
	links    *Links
	sessions SessionRevoker
	notify   Notifier
	audit    audit.Sink
	log      *zap.SugaredLogger
	cfg      AccountsConfig
	now      Clock
}

func NewAccounts(db database.Beginner, users *repository.UserRepo, links *Links, sessions SessionRevoker,
	notify Notifier, sink audit.Sink, log *zap.SugaredLogger, cfg AccountsConfig) *Accounts {
	return &Accounts{db: db, users: users, links: links, sessions: sessions, notify: notify,
		audit: sink, log: log, cfg: cfg, now: utcNow}
}

// linkURL builds the address mailed to the user for a one-time link.
func (s *Accounts) linkURL(lang, path, token string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	return fmt.Sprintf("%s/api/%s/auth/%s?token=%s", base, lang, path, url.QueryEscape(token))
}

// Session is the result of a successful login.
type Session struct {
	User  model.User
	Token utils.AccessToken
}

// Login checks the credentials and issues an access token.  Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Accounts) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Session{}, err
	}
	if err != nil || !utils.VerifyPassword(u.PasswordHash, password) {
		who := email
		if err == nil {
			who = u.Name
		}
		s.audit.Record(ctx, who, "Login", "Incorrect Username or Password", audit.Warning)
		return Session{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.audit.Record(ctx, u.Name, "Login", "User Not Active", audit.Warning)
		return Session{}, ErrUserInactive
	}
	if !u.IsVerified {
		s.audit.Record(ctx, u.Name, "Login", "User Not Verified", audit.Warning)
		return Session{}, ErrUserNotVerified
	}
	tok, err := utils.NewAccessToken(s.cfg.JWTSecret, utils.Claims{
		UserID: u.ID, IsAdmin: u.IsAdmin, Name: u.Name, IssuedAt: s.now(),
	}, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	s.audit.Record(ctx, u.Name, "Login", "", audit.Info)
	return Session{User: u, Token: tok}, nil
}

// Logout revokes every token of the actor, not just the presented one.
func (s *Accounts) Logout(ctx context.Context, actor Actor) error {
	if err := s.sessions.RevokeAll(ctx, actor.ID, s.now()); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.audit.Record(ctx, actor.Name, "Logout", "", audit.Info)
	return nil
}

// Me returns the actor's own account.
func (s *Accounts) Me(ctx context.Context, actor Actor) (model.User, error) {
	u, err := s.users.GetByID(ctx, actor.ID)
	return u, notFound(err, ErrUserNotFound)
}

// Invite issues a registration link for email and mails it.
func (s *Accounts) Invite(ctx context.Context, actor Actor, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrEmptyText
	}
	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return err
	}
	if taken {
		s.audit.Record(ctx, actor.Name, "Invite", "Email exist", audit.Warning)
		return ErrEmailTaken
	}
	token, err := s.links.Issue(ctx, model.PurposeRegistration, model.EmailSubject(email))
	if err != nil {
		return err
	}
	s.notify.Invitation(ctx, actor.Lang, email, actor.Name, s.linkURL(actor.Lang, "register", token))
	s.audit.Record(ctx, actor.Name, "Invite", "Email: "+email, audit.Info)
	return nil
}

// Invitation returns the address a registration token was issued for,
// without consuming it.
func (s *Accounts) Invitation(ctx context.Context, token string) (string, error) {
	subject, err := s.links.Peek(ctx, token, model.PurposeRegistration)
	if err != nil {
		return "", err
	}
	return subject.Email, nil
}

// RegisterInput is the registration form.  The email comes from the link.
type RegisterInput struct {
	Token           string
	Name            string
	Surname         string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
}

// Register redeems a registration link and creates the account with the
// invited email.  Both happen in one transaction: a failed insert leaves the
// link usable.
func (s *Accounts) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return model.User{}, ErrEmptyText
	}
	if in.Password != in.ConfirmPassword {
		s.audit.Record(ctx, in.Name, "Register", "Password does not match", audit.Warning)
		return model.User{}, ErrPasswordMismatch
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    s.now(),
	}
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		subject, err := s.links.RedeemTx(ctx, tx, in.Token, model.PurposeRegistration)
		if err != nil {
			return err
		}
		u.Email = subject.Email
		u.ID, err = s.users.CreateTx(ctx, tx, u)
		return conflict(err, ErrUserExists)
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			s.audit.Record(ctx, u.Name, "Register", "User exist", audit.Warning)
		}
		return model.User{}, err
	}
	s.audit.Record(ctx, u.Name, "Register", "Email: "+u.Email, audit.Info)
	return u, nil
}

// ForgotPassword mails a reset link when the email belongs to a user.  The
// caller gets the same answer either way.
func (s *Accounts) ForgotPassword(ctx context.Context, lang, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := s.links.Issue(ctx, model.PurposeResetPassword, model.UserSubject(u.ID))
	if err != nil {
		return err
	}
	s.notify.PasswordReset(ctx, lang, u.Email, s.linkURL(lang, "reset-password", token))
	s.audit.Record(ctx, u.Name, "Forgot_Password", "", audit.Info)
	return nil
}

// CheckResetToken validates a reset token without consuming it.
func (s *Accounts) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.links.Peek(ctx, token, model.PurposeResetPassword)
	return err
}

// ResetPassword redeems a reset link and stores the new password in the
// same transaction, then revokes the user's sessions.
func (s *Accounts) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password == "" {
		return ErrEmptyText
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	var userID uint64
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		subject, err := s.links.RedeemTx(ctx, tx, token, model.PurposeResetPassword)
		if err != nil {
			return err
		}
		userID = subject.UserID
		return notFound(s.users.UpdatePassword(ctx, tx, userID, hash), ErrUserNotFound)
	})
	if err != nil {
		return err
	}
	s.revoke(ctx, userID)
	name := ""
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		name = u.Name
	}
	s.audit.Record(ctx, name, "Reset_Password", "", audit.Info)
	return nil
}

// VerifyEmail redeems an email verification link.
func (s *Accounts) VerifyEmail(ctx context.Context, token string) error {
	var userID uint64
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		subject, err := s.links.RedeemTx(ctx, tx, token, model.PurposeEmailVerification)
		if err != nil {
			return err
		}
		userID = subject.UserID
		return notFound(s.users.SetVerified(ctx, tx, userID), ErrUserNotFound)
	})
	if err != nil {
		return err
	}
	name := ""
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		name = u.Name
	}
	s.audit.Record(ctx, name, "Verification", "", audit.Info)
	return nil
}

// SettingsInput changes the actor's own account.  CurrentPassword is always
// required; empty NewPassword keeps the old one.
type SettingsInput struct {
	CurrentPassword string
	PhoneNumber     string
	Email           string
	NewPassword     string
	ConfirmPassword string
}

// SettingsResult tells the caller whether the actor was logged out.
type SettingsResult struct {
	LogoutRequired   bool `json:"logout_required"`
	VerificationSent bool `json:"verification_sent"`
}

// UpdateSettings applies a settings change.  A new email clears the
// verified flag and triggers a verification mail; a new email or password
// revokes every session.
func (s *Accounts) UpdateSettings(ctx context.Context, actor Actor, in SettingsInput) (SettingsResult, error) {
	var res SettingsResult
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return res, notFound(err, ErrUserNotFound)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.CurrentPassword) {
		s.audit.Record(ctx, u.Name, "User_Settings", "Incorrect Password", audit.Warning)
		return res, ErrWrongPassword
	}
	if in.NewPassword != in.ConfirmPassword {
		s.audit.Record(ctx, u.Name, "User_Settings", "Password does not match", audit.Warning)
		return res, ErrPasswordMismatch
	}

	phone := strings.TrimSpace(in.PhoneNumber)
	if phone == "" {
		phone = u.PhoneNumber
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		email = u.Email
	}
	var changes []string
	if phone != u.PhoneNumber {
		if taken, err := s.users.PhoneTaken(ctx, phone, u.ID); err != nil {
			return res, err
		} else if taken {
			return res, ErrPhoneTaken
		}
		changes = append(changes, fmt.Sprintf("phone_number: '%s' → '%s'", u.PhoneNumber, phone))
	}
	emailChanged := email != u.Email
	if emailChanged {
		if taken, err := s.users.EmailTaken(ctx, email, u.ID); err != nil {
			return res, err
		} else if taken {
			return res, ErrEmailTaken
		}
		changes = append(changes, fmt.Sprintf("email: '%s' → '%s'", u.Email, email))
	}
	var hash string
	if in.NewPassword != "" {
		if hash, err = utils.HashPassword(in.NewPassword, s.cfg.BcryptCost); err != nil {
			return res, fmt.Errorf("hash password: %w", err)
		}
		changes = append(changes, "password: '[changed]'")
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if phone != u.PhoneNumber || emailChanged {
			verified := u.IsVerified && !emailChanged
			if err := s.users.UpdateContact(ctx, tx, u.ID, phone, email, verified); err != nil {
				return err
			}
		}
		if hash != "" {
			return s.users.UpdatePassword(ctx, tx, u.ID, hash)
		}
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return res, ErrEmailTaken
	}
	if err != nil {
		return res, err
	}

	for _, c := range changes {
		s.audit.Record(ctx, u.Name, "User_Settings", c, audit.Info)
	}
	if emailChanged {
		token, err := s.links.Issue(ctx, model.PurposeEmailVerification, model.UserSubject(u.ID))
		if err != nil {
			s.log.Errorw("issue verification link", "user_id", u.ID, "err", err)
		} else {
			s.notify.EmailVerification(ctx, actor.Lang, email, s.linkURL(actor.Lang, "verify-email", token))
			res.VerificationSent = true
		}
	}
	if emailChanged || hash != "" {
		s.revoke(ctx, u.ID)
		s.audit.Record(ctx, u.Name, "Logout", "", audit.Info)
		res.LogoutRequired = true
	}
	return res, nil
}

func (s *Accounts) revoke(ctx context.Context, userID uint64) {
	if err := s.sessions.RevokeAll(ctx, userID, s.now()); err != nil {
		s.log.Errorw("revoke sessions", "user_id", userID, "err", err)
	}
}

// ListUsers returns every account, for the admin page.
func (s *Accounts) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// SetFlags grants or revokes admin rights and (de)activates a user.  An
// admin cannot take these rights from themselves.
func (s *Accounts) SetFlags(ctx context.Context, actor Actor, userID uint64, isAdmin, isActive bool) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, notFound(err, ErrUserNotFound)
	}
	if u.ID == actor.ID && (!isAdmin || !isActive) {
		return model.User{}, ErrSelfDemotion
	}
	if err := s.users.SetFlags(ctx, userID, isAdmin, isActive); err != nil {
		return model.User{}, err
	}
	if u.IsActive && !isActive {
		s.revoke(ctx, u.ID)
	}
	s.audit.Record(ctx, actor.Name, "User_Settings", fmt.Sprintf("User: %s; is_admin: %t; is_active: %t",
		u.Email, isAdmin, isActive), audit.Info)
	u.IsAdmin, u.IsActive = isAdmin, isActive
	return u, nil
}

// BootstrapAdmin creates the default administrator when the database has
// none, so a fresh install can be logged into.
func (s *Accounts) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.users.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	_, err = s.users.CreateTx(ctx, s.users.DB, model.User{
		Name:         "Admin",
		Surname:      "Admin",
		PhoneNumber:  "000000000",
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	return err == nil, err
}
