package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/repository"
	"github.com/interatlas/management-system/internal/utils"
)

type accountsFixture struct {
	s       *Accounts
	mock    sqlmock.Sqlmock
	sink    *recSink
	notify  *fakeNotifier
	revoker *fakeRevoker
}

func newAccounts(t *testing.T) accountsFixture {
	db, mock := newMock(t)
	f := accountsFixture{mock: mock, sink: &recSink{}, notify: &fakeNotifier{}, revoker: &fakeRevoker{}}
	links := NewLinks(db, repository.NewLinkRepo(db), 6*time.Hour)
	links.now = fixedClock(testNow)
	links.newToken = func() string { return rawToken }
	f.s = NewAccounts(db, repository.NewUserRepo(db), links, f.revoker, f.notify, f.sink, nopLog, AccountsConfig{
		JWTSecret:     "secret",
		AccessTTLMin:  60,
		BcryptCost:    bcrypt.MinCost,
		PublicBaseURL: "https://mgmt.interatlas.lt/",
	})
	f.s.now = fixedClock(time.Now().UTC())
	return f
}

func hashed(t *testing.T, plain string) string {
	h, err := utils.HashPassword(plain, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func userRow(t *testing.T, active, verified bool) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(3, "Jonas", "Jonaitis", "+37061111111", "jonas@interatlas.lt", hashed(t, "pa55"), false, active, verified, testNow)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE email").WithArgs("jonas@interatlas.lt").WillReturnRows(userRow(t, true, true))

		sess, err := f.s.Login(ctx, "Jonas@InterAtlas.lt", "pa55")
		require.NoError(t, err)
		claims, err := utils.ParseAccessToken("secret", sess.Token.Token)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), claims.UserID)
		assert.False(t, claims.IsAdmin)
		assert.Equal(t, []string{"USER: Jonas | ACTION: Login | DETAILS: "}, f.sink.lines)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	cases := []struct {
		name     string
		rows     func(t *testing.T) *sqlmock.Rows
		password string
		want     error
	}{
		{"unknown email", func(*testing.T) *sqlmock.Rows { return sqlmock.NewRows(userColumns) }, "pa55", ErrInvalidCredentials},
		{"wrong password", func(t *testing.T) *sqlmock.Rows { return userRow(t, true, true) }, "nope", ErrInvalidCredentials},
		{"inactive", func(t *testing.T) *sqlmock.Rows { return userRow(t, false, true) }, "pa55", ErrUserInactive},
		{"unverified", func(t *testing.T) *sqlmock.Rows { return userRow(t, true, false) }, "pa55", ErrUserNotVerified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAccounts(t)
			f.mock.ExpectQuery("FROM users WHERE email").WillReturnRows(tc.rows(t))

			_, err := f.s.Login(ctx, "jonas@interatlas.lt", tc.password)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, []audit.Severity{audit.Warning}, f.sink.sevs)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestInvite(t *testing.T) {
	ctx := context.Background()
	admin := Actor{ID: 1, Name: "Admin", IsAdmin: true, Lang: "lt"}

	t.Run("mails a registration link", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE email").WithArgs("new@interatlas.lt", 0).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		f.mock.ExpectExec("INSERT INTO one_time_links").
			WithArgs(utils.HashToken(rawToken), "registration", nil, "new@interatlas.lt", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, f.s.Invite(ctx, admin, " New@InterAtlas.lt "))
		assert.Equal(t, []string{"new@interatlas.lt"}, f.notify.invitations)
		assert.Equal(t, []string{"https://mgmt.interatlas.lt/api/lt/auth/register?token=" + rawToken}, f.notify.links)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("existing user", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE email").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

		err := f.s.Invite(ctx, admin, "jonas@interatlas.lt")
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Empty(t, f.notify.invitations)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	in := RegisterInput{Token: rawToken, Name: "Ona", Surname: "Onaitė", PhoneNumber: "+37062222222", Password: "pa55", ConfirmPassword: "pa55"}

	t.Run("creates the invited user", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("FROM one_time_links WHERE token_hash").WithArgs(utils.HashToken(rawToken), "registration").
			WillReturnRows(sqlmock.NewRows(linkColumns).
				AddRow(2, utils.HashToken(rawToken), "registration", nil, "ona@interatlas.lt", false, testNow, testNow.Add(time.Hour)))
		f.mock.ExpectExec("UPDATE one_time_links SET used").WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectExec("INSERT INTO users").
			WithArgs("Ona", "Onaitė", "+37062222222", "ona@interatlas.lt", sqlmock.AnyArg(), false, true, true, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(9, 1))
		f.mock.ExpectCommit()

		u, err := f.s.Register(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, uint64(9), u.ID)
		assert.Equal(t, "ona@interatlas.lt", u.Email)
		assert.True(t, utils.VerifyPassword(u.PasswordHash, "pa55"))
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("passwords differ", func(t *testing.T) {
		f := newAccounts(t)
		bad := in
		bad.ConfirmPassword = "other"
		_, err := f.s.Register(ctx, bad)
		assert.ErrorIs(t, err, ErrPasswordMismatch)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("used link", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("FROM one_time_links WHERE token_hash").WillReturnRows(sqlmock.NewRows(linkColumns))
		f.mock.ExpectRollback()

		_, err := f.s.Register(ctx, in)
		assert.ErrorIs(t, err, ErrTokenNotFound)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is silent", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE email").WillReturnRows(sqlmock.NewRows(userColumns))

		require.NoError(t, f.s.ForgotPassword(ctx, "en", "ghost@interatlas.lt"))
		assert.Empty(t, f.notify.resets)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("known email gets a reset link", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE email").WillReturnRows(userRow(t, true, true))
		f.mock.ExpectExec("INSERT INTO one_time_links").
			WithArgs(utils.HashToken(rawToken), "reset_password", 3, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, f.s.ForgotPassword(ctx, "en", "jonas@interatlas.lt"))
		assert.Equal(t, []string{"jonas@interatlas.lt"}, f.notify.resets)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestResetPassword(t *testing.T) {
	f := newAccounts(t)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM one_time_links WHERE token_hash").WithArgs(utils.HashToken(rawToken), "reset_password").
		WillReturnRows(linkRow(testNow.Add(time.Hour)))
	f.mock.ExpectExec("UPDATE one_time_links SET used").WithArgs(12).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("UPDATE users SET password_hash").WithArgs(sqlmock.AnyArg(), 3).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()
	f.mock.ExpectQuery("FROM users WHERE id").WithArgs(3).WillReturnRows(userRow(t, true, true))

	require.NoError(t, f.s.ResetPassword(context.Background(), rawToken, "n3w", "n3w"))
	assert.Equal(t, []uint64{3}, f.revoker.revoked)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE id").WithArgs(3).WillReturnRows(userRow(t, true, true))

		_, err := f.s.UpdateSettings(ctx, testUser, SettingsInput{CurrentPassword: "nope"})
		assert.ErrorIs(t, err, ErrWrongPassword)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("email change unverifies and logs out", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE id").WithArgs(3).WillReturnRows(userRow(t, true, true))
		f.mock.ExpectQuery("FROM users WHERE email").WithArgs("jonas.j@interatlas.lt", 3).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		f.mock.ExpectBegin()
		f.mock.ExpectExec("UPDATE users SET phone_number").
			WithArgs("+37061111111", "jonas.j@interatlas.lt", false, 3).WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectCommit()
		f.mock.ExpectExec("INSERT INTO one_time_links").
			WithArgs(utils.HashToken(rawToken), "email_verification", 3, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		res, err := f.s.UpdateSettings(ctx, testUser, SettingsInput{CurrentPassword: "pa55", Email: "Jonas.J@interatlas.lt"})
		require.NoError(t, err)
		assert.True(t, res.LogoutRequired)
		assert.True(t, res.VerificationSent)
		assert.Equal(t, []string{"jonas.j@interatlas.lt"}, f.notify.verifications)
		assert.Equal(t, []uint64{3}, f.revoker.revoked)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestSetFlagsSelf(t *testing.T) {
	f := newAccounts(t)
	admin := Actor{ID: 1, Name: "Admin", IsAdmin: true}
	f.mock.ExpectQuery("FROM users WHERE id").WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "Admin", "Admin", "000000000", "admin@interatlas.lt", "x", true, true, true, testNow))

	_, err := f.s.SetFlags(context.Background(), admin, 1, false, true)
	assert.ErrorIs(t, err, ErrSelfDemotion)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBootstrapAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the default admin", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE is_admin").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		f.mock.ExpectExec("INSERT INTO users").
			WithArgs("Admin", "Admin", "000000000", "admin@interatlas.lt", sqlmock.AnyArg(), true, true, true, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		created, err := f.s.BootstrapAdmin(ctx, "admin@interatlas.lt", "admin")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("admin already present", func(t *testing.T) {
		f := newAccounts(t)
		f.mock.ExpectQuery("FROM users WHERE is_admin").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

		created, err := f.s.BootstrapAdmin(ctx, "admin@interatlas.lt", "admin")
		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}
