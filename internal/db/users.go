package db

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pubmarket/internal/models"
)

// userColumns is the standard column list for user queries.
const userColumns = `id, full_name, email, password_hash, role, reset_token, reset_token_expiry, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ResetToken,
		&u.ResetTokenExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user and fills in its generated fields.
func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (full_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	err := d.Pool.QueryRow(ctx, query, user.FullName, user.Email, user.PasswordHash, role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	user.Role = role
	return nil
}

// GetUserByID retrieves a user by their UUID.
func (d *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

// ListUsers returns one page of users matching the filter and the total match count.
func (d *DB) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if f.Role != "" {
		args = append(args, f.Role)
		where += ` AND role = $` + strconv.Itoa(len(args))
	}
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		n := strconv.Itoa(len(args))
		where += ` AND (full_name ILIKE $` + n + ` OR email ILIKE $` + n + `)`
	}

	var total int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sql += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := d.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}

	return users, total, rows.Err()
}

// UpdateUserRole sets a user's role.
func (d *DB) UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	result, err := d.Pool.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// PromoteUser raises a user to publisher. Publishers and admins are left
// untouched; the result reports whether the role changed.
func (d *DB) PromoteUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	return promoteUser(ctx, d.Pool, userID)
}

func promoteUser(ctx context.Context, q querier, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2 AND role IN ($3, $4)
	`
	result, err := q.Exec(ctx, query, models.RolePublisher, userID, models.RoleUser, models.RoleAdvertiser)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// DeleteUser deletes a user and every publisher request they own. It returns
// the number of requests removed.
func (d *DB) DeleteUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	listings, err := tx.Exec(ctx, `DELETE FROM publisher_requests WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, err
	}
	if result.RowsAffected() == 0 {
		return 0, ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(listings.RowsAffected()), nil
}

// CountUsersByRole returns the number of users per role.
func (d *DB) CountUsersByRole(ctx context.Context) (models.UserCounts, error) {
	var counts models.UserCounts

	rows, err := d.Pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var role models.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return counts, err
		}
		counts.Add(role, n)
	}

	return counts, rows.Err()
}

// AdminEmails returns the email addresses of all admins.
func (d *DB) AdminEmails(ctx context.Context) ([]string, error) {
	rows, err := d.Pool.Query(ctx, `SELECT email FROM users WHERE role = $1 AND email <> '' ORDER BY email`, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}

// SetResetToken stores a password reset token digest for the user.
func (d *DB) SetResetToken(ctx context.Context, userID uuid.UUID, digest string, expiry time.Time) error {
	query := `UPDATE users SET reset_token = $1, reset_token_expiry = $2, updated_at = NOW() WHERE id = $3`
	result, err := d.Pool.Exec(ctx, query, digest, expiry, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetUserByResetToken finds the user holding an unexpired reset token digest.
func (d *DB) GetUserByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND reset_token_expiry > $2`
	return scanUser(d.Pool.QueryRow(ctx, query, digest, now))
}

// UpdatePassword replaces the password hash and clears any reset token.
func (d *DB) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW()
		WHERE id = $2
	`
	result, err := d.Pool.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
