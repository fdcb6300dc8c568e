package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cinecritique/review-api/internal/model"
	"github.com/cinecritique/review-api/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,password_hash,bio,profile_picture,is_active,created_at,updated_at"

// UserWithReviewCount pairs a user row with the number of reviews they
// have written. Used by the user listing and public detail endpoints.
type UserWithReviewCount struct {
	model.User
	ReviewCount int
}

// Create hashes the password and inserts a new user, returning its ID.
// Duplicate email or username violations are mapped to sentinel errors so
// the handler can report a field-level validation failure.
func (r *UserRepo) Create(ctx context.Context, email, username, password, bio string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, bio) VALUES (?,?,?,?)",
		email, username, hash, bio)
	if err != nil {
		// MySQL duplicate-key errors carry code 1062 and name the violated
		// key, e.g. "Duplicate entry 'x' for key 'users.email'".
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "username") {
				return 0, ErrUsernameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var picture sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Bio,
		&picture, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if picture.Valid {
		u.ProfilePicture = &picture.String
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile applies a partial update to username, bio and/or profile
// picture. Nil pointers leave the column untouched; email and password are
// deliberately not updatable through this path. A username collision with
// another user returns ErrUsernameExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, bio, picture *string) error {
	set := []string{}
	args := []any{}
	if username != nil {
		set = append(set, "username=?")
		args = append(args, *username)
	}
	if bio != nil {
		set = append(set, "bio=?")
		args = append(args, *bio)
	}
	if picture != nil {
		set = append(set, "profile_picture=?")
		args = append(args, *picture)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at=NOW()")
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			return ErrUsernameExists
		}
		return err
	}
	return nil
}

// ListOthers returns every user except the given one, annotated with their
// review count, newest accounts first.
func (r *UserRepo) ListOthers(ctx context.Context, excludeID uint64) ([]UserWithReviewCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.email, u.username, u.bio, u.profile_picture, u.created_at, COUNT(rv.id)
		FROM users u
		LEFT JOIN reviews rv ON rv.author_id = u.id
		WHERE u.id <> ?
		GROUP BY u.id
		ORDER BY u.created_at DESC`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserWithReviewCount{}
	for rows.Next() {
		var u UserWithReviewCount
		var picture sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Bio, &picture,
			&u.CreatedAt, &u.ReviewCount); err != nil {
			return nil, err
		}
		if picture.Valid {
			u.ProfilePicture = &picture.String
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetDetail returns a single user's public profile with their review count.
func (r *UserRepo) GetDetail(ctx context.Context, id uint64) (UserWithReviewCount, error) {
	var u UserWithReviewCount
	var picture sql.NullString
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.username, u.bio, u.profile_picture, u.created_at, COUNT(rv.id)
		FROM users u
		LEFT JOIN reviews rv ON rv.author_id = u.id
		WHERE u.id = ?
		GROUP BY u.id
		LIMIT 1`, id).
		Scan(&u.ID, &u.Email, &u.Username, &u.Bio, &picture, &u.CreatedAt, &u.ReviewCount)
	if err == sql.ErrNoRows {
		return u, ErrUserNotFound
	}
	if err != nil {
		return u, err
	}
	if picture.Valid {
		u.ProfilePicture = &picture.String
	}
	return u, nil
}
