package lifecycle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pubmarket/internal/apperr"
	"pubmarket/internal/auth"
	"pubmarket/internal/lifecycle"
	"pubmarket/internal/models"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		input    lifecycle.RegisterInput
		wantRole models.Role
		wantErr  error
		fields   []string
	}{
		{
			name:     "defaults to user",
			input:    lifecycle.RegisterInput{FullName: "Sam Buyer", Email: "Sam@Example.com", Password: "hunter22"},
			wantRole: models.RoleUser,
		},
		{
			name:     "advertiser",
			input:    lifecycle.RegisterInput{FullName: "Ada Vert", Email: "ada@example.com", Password: "hunter22", Role: models.RoleAdvertiser},
			wantRole: models.RoleAdvertiser,
		},
		{
			name:    "publisher cannot be chosen",
			input:   lifecycle.RegisterInput{FullName: "Pat", Email: "pat@example.com", Password: "hunter22", Role: models.RolePublisher},
			wantErr: apperr.ErrValidation,
			fields:  []string{"role"},
		},
		{
			name:    "admin cannot be chosen",
			input:   lifecycle.RegisterInput{FullName: "Eve", Email: "eve@example.com", Password: "hunter22", Role: models.RoleAdmin},
			wantErr: apperr.ErrValidation,
			fields:  []string{"role"},
		},
		{
			name:    "short password and bad email",
			input:   lifecycle.RegisterInput{FullName: "Sam", Email: "not-an-email", Password: "abc"},
			wantErr: apperr.ErrValidation,
			fields:  []string{"email", "password"},
		},
		{
			name:    "duplicate email ignores case",
			input:   lifecycle.RegisterInput{FullName: "Jane Again", Email: "JANE@example.com", Password: "hunter22"},
			wantErr: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			u, err := f.m.Register(f.ctx, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.fields != nil {
					ae, ok := apperr.As(err)
					require.True(t, ok)
					assert.ElementsMatch(t, tt.fields, ae.FieldNames(""))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, u.Role)
			assert.Equal(t, tt.wantRole, f.role(t, u.ID))
			assert.NotEqual(t, tt.input.Password, u.PasswordHash)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	f := setup(t)
	_, err := f.m.Register(f.ctx, lifecycle.RegisterInput{FullName: "Sam", Email: "sam@example.com", Password: "hunter22"})
	require.NoError(t, err)

	u, err := f.m.Authenticate(f.ctx, " SAM@example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", u.Email)

	_, err = f.m.Authenticate(f.ctx, "sam@example.com", "wrong-password")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidCredentials)

	_, err = f.m.Authenticate(f.ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidCredentials)
}

func TestPasswordReset(t *testing.T) {
	t.Run("unknown email is silent", func(t *testing.T) {
		f := setup(t)
		u, token, err := f.m.RequestPasswordReset(f.ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Nil(t, u)
		assert.Empty(t, token)
	})

	t.Run("token resets once", func(t *testing.T) {
		f := setup(t)
		u, token, err := f.m.RequestPasswordReset(f.ctx, "jane@example.com")
		require.NoError(t, err)
		require.NotNil(t, u)
		require.NotEmpty(t, token)

		stored, err := f.store.GetUserByID(f.ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ResetToken)
		assert.Equal(t, auth.HashResetToken(token), *stored.ResetToken)
		assert.NotEqual(t, token, *stored.ResetToken)

		require.NoError(t, f.m.ResetPassword(f.ctx, token, "brand-new"))

		_, err = f.m.Authenticate(f.ctx, "jane@example.com", "brand-new")
		require.NoError(t, err)
		_, err = f.m.Authenticate(f.ctx, "jane@example.com", "secret1")
		assert.ErrorIs(t, err, lifecycle.ErrInvalidCredentials)

		err = f.m.ResetPassword(f.ctx, token, "another1")
		require.ErrorIs(t, err, apperr.ErrValidation)
		ae, _ := apperr.As(err)
		assert.Equal(t, []string{"token"}, ae.FieldNames(""))
	})

	t.Run("expired token", func(t *testing.T) {
		f := setup(t)
		_, token, err := f.m.RequestPasswordReset(f.ctx, "jane@example.com")
		require.NoError(t, err)

		f.clock.Advance(auth.ResetTokenTTL + time.Minute)
		err = f.m.ResetPassword(f.ctx, token, "brand-new")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("short password checked first", func(t *testing.T) {
		f := setup(t)
		err := f.m.ResetPassword(f.ctx, "whatever", "abc")
		require.ErrorIs(t, err, apperr.ErrValidation)
		ae, _ := apperr.As(err)
		assert.Equal(t, []string{"password"}, ae.FieldNames(""))
	})
}

func TestEnsureAdmin(t *testing.T) {
	f := setup(t)

	u, created, err := f.m.EnsureAdmin(f.ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, u.Role)

	again, created, err := f.m.EnsureAdmin(f.ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)

	raised, created, err := f.m.EnsureAdmin(f.ctx, "", "jane@example.com", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.owner.ID, raised.ID)
	assert.Equal(t, models.RoleAdmin, f.role(t, f.owner.ID))

	_, _, err = f.m.EnsureAdmin(f.ctx, "Nobody", "new@example.com", "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
