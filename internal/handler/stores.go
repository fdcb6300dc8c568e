// Package handler exposes the HTTP handlers for authentication, profiles,
// reviews and statistics. Handlers depend on one explicit store interface
// per resource, one method per operation; the concrete implementations
// live in internal/repository and tests substitute in-memory fakes.
package handler

import (
	"context"
	"time"

	"github.com/cinecritique/review-api/internal/model"
	"github.com/cinecritique/review-api/internal/repository"
)

// UserStore is the persistence surface needed by the auth and profile
// handlers.
type UserStore interface {
	Create(ctx context.Context, email, username, password, bio string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, username, bio, picture *string) error
	ListOthers(ctx context.Context, excludeID uint64) ([]repository.UserWithReviewCount, error)
	GetDetail(ctx context.Context, id uint64) (repository.UserWithReviewCount, error)
}

// TokenStore records issued refresh tokens and their blacklist state.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, jti string, exp time.Time) error
	ValidateRefresh(ctx context.Context, jti string) (uint64, error)
	RevokeByJTI(ctx context.Context, jti string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ReviewStore is the persistence surface needed by the review handlers.
type ReviewStore interface {
	Create(ctx context.Context, title, content string, rating int, authorID uint64) (model.Review, error)
	GetForAuthor(ctx context.Context, id, authorID uint64) (model.Review, error)
	UpdateForAuthor(ctx context.Context, id, authorID uint64, title, content *string, rating *int) (model.Review, error)
	DeleteForAuthor(ctx context.Context, id, authorID uint64) error
	List(ctx context.Context, q repository.ListQuery) ([]repository.ReviewWithAuthor, error)
	ListByAuthor(ctx context.Context, authorID uint64) ([]repository.ReviewWithAuthor, error)
	ListByMovie(ctx context.Context, title string) ([]repository.ReviewWithAuthor, float64, error)
	Stats(ctx context.Context) (repository.GlobalStats, error)
}
