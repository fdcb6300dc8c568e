package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cinecritique/review-api/internal/model"
)

// ReviewRepo provides access to the 'reviews' table. All single-review
// operations are scoped to the requesting author: an id belonging to
// someone else behaves exactly like a missing id.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// ReviewWithAuthor is a review row joined with its author's username,
// the shape returned by every listing endpoint.
type ReviewWithAuthor struct {
	model.Review
	AuthorUsername string
}

// ListQuery carries the optional filters of the public listing endpoint.
type ListQuery struct {
	AuthorID *uint64 // exact author filter
	Search   string  // case-insensitive substring match on title
}

// Create inserts a review and returns the stored row. The author is
// always the value passed by the handler, never client input.
func (r *ReviewRepo) Create(ctx context.Context, title, content string, rating int, authorID uint64) (model.Review, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (title, content, rating, author_id) VALUES (?,?,?,?)",
		title, content, rating, authorID)
	if err != nil {
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	return r.getByID(ctx, uint64(id))
}

func (r *ReviewRepo) getByID(ctx context.Context, id uint64) (model.Review, error) {
	var rv model.Review
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,title,content,rating,author_id,created_at,updated_at FROM reviews WHERE id=? LIMIT 1",
		id).Scan(&rv.ID, &rv.Title, &rv.Content, &rv.Rating, &rv.AuthorID, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

// GetForAuthor fetches one review owned by the given author.
func (r *ReviewRepo) GetForAuthor(ctx context.Context, id, authorID uint64) (model.Review, error) {
	var rv model.Review
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,title,content,rating,author_id,created_at,updated_at FROM reviews WHERE id=? AND author_id=? LIMIT 1",
		id, authorID).Scan(&rv.ID, &rv.Title, &rv.Content, &rv.Rating, &rv.AuthorID, &rv.CreatedAt, &rv.UpdatedAt)
	if err == sql.ErrNoRows {
		return rv, ErrReviewNotFound
	}
	return rv, err
}

// UpdateForAuthor applies a partial update to a review owned by the given
// author. Nil pointers leave the column untouched. Updating a review that
// does not exist, or that belongs to someone else, returns
// ErrReviewNotFound.
func (r *ReviewRepo) UpdateForAuthor(ctx context.Context, id, authorID uint64, title, content *string, rating *int) (model.Review, error) {
	set := []string{}
	args := []any{}
	if title != nil {
		set = append(set, "title=?")
		args = append(args, *title)
	}
	if content != nil {
		set = append(set, "content=?")
		args = append(args, *content)
	}
	if rating != nil {
		set = append(set, "rating=?")
		args = append(args, *rating)
	}
	if len(set) > 0 {
		set = append(set, "updated_at=NOW()")
		args = append(args, id, authorID)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE reviews SET "+strings.Join(set, ", ")+" WHERE id=? AND author_id=?", args...); err != nil {
			return model.Review{}, err
		}
	}
	// Re-read with the ownership filter so a foreign id surfaces as not
	// found even when nothing was changed.
	return r.GetForAuthor(ctx, id, authorID)
}

// DeleteForAuthor removes a review owned by the given author.
func (r *ReviewRepo) DeleteForAuthor(ctx context.Context, id, authorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM reviews WHERE id=? AND author_id=?", id, authorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

const reviewWithAuthorSelect = `
	SELECT r.id, r.title, r.content, r.rating, r.author_id, u.username, r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

func (r *ReviewRepo) queryWithAuthor(ctx context.Context, query string, args ...any) ([]ReviewWithAuthor, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReviewWithAuthor{}
	for rows.Next() {
		var rv ReviewWithAuthor
		if err := rows.Scan(&rv.ID, &rv.Title, &rv.Content, &rv.Rating, &rv.AuthorID,
			&rv.AuthorUsername, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// List returns reviews newest-first, optionally filtered by exact author
// id and/or a case-insensitive title substring.
func (r *ReviewRepo) List(ctx context.Context, q ListQuery) ([]ReviewWithAuthor, error) {
	where := []string{}
	args := []any{}
	if q.AuthorID != nil {
		where = append(where, "r.author_id = ?")
		args = append(args, *q.AuthorID)
	}
	if q.Search != "" {
		where = append(where, "LOWER(r.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	query := reviewWithAuthorSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC"
	return r.queryWithAuthor(ctx, query, args...)
}

// ListByAuthor returns one author's reviews newest-first.
func (r *ReviewRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]ReviewWithAuthor, error) {
	return r.queryWithAuthor(ctx,
		reviewWithAuthorSelect+" WHERE r.author_id = ? ORDER BY r.created_at DESC", authorID)
}

// ListByMovie returns all reviews whose title matches the given movie
// title case-insensitively, newest-first, along with the average rating.
// The average is 0 when no review matches.
func (r *ReviewRepo) ListByMovie(ctx context.Context, title string) ([]ReviewWithAuthor, float64, error) {
	reviews, err := r.queryWithAuthor(ctx,
		reviewWithAuthorSelect+" WHERE LOWER(r.title) = LOWER(?) ORDER BY r.created_at DESC", title)
	if err != nil {
		return nil, 0, err
	}
	if len(reviews) == 0 {
		return reviews, 0, nil
	}
	var avg float64
	err = r.DB.QueryRowContext(ctx,
		"SELECT AVG(rating) FROM reviews WHERE LOWER(title) = LOWER(?)", title).Scan(&avg)
	if err != nil {
		return nil, 0, err
	}
	return reviews, avg, nil
}
