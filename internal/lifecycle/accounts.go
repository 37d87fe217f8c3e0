package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"pubmarket/internal/apperr"
	"pubmarket/internal/auth"
	"pubmarket/internal/db"
	"pubmarket/internal/models"
	"pubmarket/internal/validation"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or
// a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// RegisterInput is a signup request.
type RegisterInput struct {
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// Register creates an account. Only the user and advertiser roles can be
// chosen at signup.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	fe := credentialErrors(AccountInput{FullName: in.FullName, Email: in.Email, Password: in.Password})
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdvertiser {
		fe.invalid("role", "role must be user or advertiser")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	user, err := m.createAccount(ctx, AccountInput{
		FullName: strings.TrimSpace(in.FullName),
		Email:    in.Email,
		Password: in.Password,
	}, role)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate checks an email and password pair.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := m.store.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, m.storeErr("load user", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		slog.Warn("stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for the account with the given
// email. For an unknown email it returns a nil user and no error, so callers
// answer identically either way.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) (*models.User, string, error) {
	user, err := m.store.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", m.storeErr("load user", err)
	}

	plain, digest, err := auth.NewResetToken()
	if err != nil {
		return nil, "", apperr.Infrastructure("generate reset token", err)
	}
	if err := m.store.SetResetToken(ctx, user.ID, digest, m.timestamp().Add(auth.ResetTokenTTL)); err != nil {
		return nil, "", m.storeErr("store reset token", err)
	}
	return user, plain, nil
}

// ResetPassword sets a new password using a reset token.
func (m *Manager) ResetPassword(ctx context.Context, token, password string) error {
	if ok, msg := validation.ValidatePassword(password); !ok {
		return apperr.Invalid("password", msg)
	}

	user, err := m.store.GetUserByResetToken(ctx, auth.HashResetToken(token), m.timestamp())
	if errors.Is(err, db.ErrUserNotFound) {
		return apperr.Invalid("token", "reset link is invalid or has expired")
	}
	if err != nil {
		return m.storeErr("load user", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Infrastructure("hash password", err)
	}
	if err := m.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return m.storeErr("update password", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// EnsureAdmin makes sure an admin account exists for email. An existing
// account is raised to admin; otherwise one is created with password.
func (m *Manager) EnsureAdmin(ctx context.Context, fullName, email, password string) (*models.User, bool, error) {
	existing, err := m.store.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			if err := m.store.UpdateUserRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return nil, false, m.storeErr("update user role", err)
			}
			existing.Role = models.RoleAdmin
		}
		return existing, false, nil
	case !errors.Is(err, db.ErrUserNotFound):
		return nil, false, m.storeErr("load user", err)
	}

	acct := AccountInput{FullName: fullName, Email: email, Password: password}
	if err := credentialErrors(acct).err(); err != nil {
		return nil, false, err
	}
	user, err := m.createAccount(ctx, acct, models.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
