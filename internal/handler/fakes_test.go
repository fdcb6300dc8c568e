package handler_test

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/cinecritique/review-api/internal/model"
	"github.com/cinecritique/review-api/internal/repository"
	"github.com/cinecritique/review-api/internal/utils"
)

// memStore is an in-memory stand-in for the three repository types. It
// mirrors the SQL semantics the handlers rely on: sentinel errors for
// uniqueness violations, sql.ErrNoRows for missing users, newest-first
// ordering and case-insensitive title matching.
type memStore struct {
	users      map[uint64]model.User
	reviews    map[uint64]model.Review
	tokens     map[string]*model.RefreshToken
	nextUserID uint64
	nextReview uint64
	clock      time.Time

	revokeErr error // when set, RevokeByJTI fails with this error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uint64]model.User{},
		reviews: map[uint64]model.Review{},
		tokens:  map[string]*model.RefreshToken{},
		clock:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so consecutive rows get distinct
// creation timestamps.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

// ----- UserStore -----

func (s *memStore) Create(_ context.Context, email, username, password, bio string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
		if u.Username == username {
			return 0, repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.nextUserID++
	now := s.tick()
	s.users[s.nextUserID] = model.User{
		ID:           s.nextUserID,
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Bio:          bio,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.nextUserID, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *memStore) UpdateProfile(_ context.Context, id uint64, username, bio, picture *string) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	if username != nil {
		for _, other := range s.users {
			if other.ID != id && other.Username == *username {
				return repository.ErrUsernameExists
			}
		}
		u.Username = *username
	}
	if bio != nil {
		u.Bio = *bio
	}
	if picture != nil {
		v := *picture
		u.ProfilePicture = &v
	}
	u.UpdatedAt = s.tick()
	s.users[id] = u
	return nil
}

func (s *memStore) reviewCount(userID uint64) int {
	n := 0
	for _, rv := range s.reviews {
		if rv.AuthorID == userID {
			n++
		}
	}
	return n
}

func (s *memStore) ListOthers(_ context.Context, excludeID uint64) ([]repository.UserWithReviewCount, error) {
	out := []repository.UserWithReviewCount{}
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		out = append(out, repository.UserWithReviewCount{User: u, ReviewCount: s.reviewCount(u.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) GetDetail(_ context.Context, id uint64) (repository.UserWithReviewCount, error) {
	u, ok := s.users[id]
	if !ok {
		return repository.UserWithReviewCount{}, repository.ErrUserNotFound
	}
	return repository.UserWithReviewCount{User: u, ReviewCount: s.reviewCount(id)}, nil
}

// ----- TokenStore -----

func (s *memStore) StoreRefresh(_ context.Context, userID uint64, jti string, exp time.Time) error {
	s.tokens[jti] = &model.RefreshToken{JTI: jti, UserID: userID, ExpiresAt: exp, CreatedAt: s.tick()}
	return nil
}

func (s *memStore) ValidateRefresh(_ context.Context, jti string) (uint64, error) {
	t, ok := s.tokens[jti]
	if !ok || t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return 0, sql.ErrNoRows
	}
	return t.UserID, nil
}

func (s *memStore) RevokeByJTI(_ context.Context, jti string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	if t, ok := s.tokens[jti]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

func (s *memStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	now := time.Now().UTC()
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

// ----- ReviewStore -----

// memReviews adapts memStore to the ReviewStore interface. The wrapper
// exists because both UserStore and ReviewStore name their insert
// operation Create; all data is shared with the user/token fake.
type memReviews struct{ *memStore }

func (r memReviews) Create(ctx context.Context, title, content string, rating int, authorID uint64) (model.Review, error) {
	return r.CreateReview(ctx, title, content, rating, authorID)
}

func (s *memStore) CreateReview(ctx context.Context, title, content string, rating int, authorID uint64) (model.Review, error) {
	s.nextReview++
	now := s.tick()
	rv := model.Review{
		ID:        s.nextReview,
		Title:     title,
		Content:   content,
		Rating:    rating,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.reviews[rv.ID] = rv
	return rv, nil
}

func (s *memStore) GetForAuthor(_ context.Context, id, authorID uint64) (model.Review, error) {
	rv, ok := s.reviews[id]
	if !ok || rv.AuthorID != authorID {
		return model.Review{}, repository.ErrReviewNotFound
	}
	return rv, nil
}

func (s *memStore) UpdateForAuthor(ctx context.Context, id, authorID uint64, title, content *string, rating *int) (model.Review, error) {
	rv, err := s.GetForAuthor(ctx, id, authorID)
	if err != nil {
		return model.Review{}, err
	}
	if title != nil {
		rv.Title = *title
	}
	if content != nil {
		rv.Content = *content
	}
	if rating != nil {
		rv.Rating = *rating
	}
	rv.UpdatedAt = s.tick()
	s.reviews[id] = rv
	return rv, nil
}

func (s *memStore) DeleteForAuthor(ctx context.Context, id, authorID uint64) error {
	if _, err := s.GetForAuthor(ctx, id, authorID); err != nil {
		return err
	}
	delete(s.reviews, id)
	return nil
}

func (s *memStore) withAuthor(rv model.Review) repository.ReviewWithAuthor {
	return repository.ReviewWithAuthor{Review: rv, AuthorUsername: s.users[rv.AuthorID].Username}
}

func (s *memStore) sortedReviews(keep func(model.Review) bool) []repository.ReviewWithAuthor {
	out := []repository.ReviewWithAuthor{}
	for _, rv := range s.reviews {
		if keep(rv) {
			out = append(out, s.withAuthor(rv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) List(_ context.Context, q repository.ListQuery) ([]repository.ReviewWithAuthor, error) {
	return s.sortedReviews(func(rv model.Review) bool {
		if q.AuthorID != nil && rv.AuthorID != *q.AuthorID {
			return false
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(rv.Title), strings.ToLower(q.Search)) {
			return false
		}
		return true
	}), nil
}

func (s *memStore) ListByAuthor(_ context.Context, authorID uint64) ([]repository.ReviewWithAuthor, error) {
	return s.sortedReviews(func(rv model.Review) bool { return rv.AuthorID == authorID }), nil
}

func (s *memStore) ListByMovie(_ context.Context, title string) ([]repository.ReviewWithAuthor, float64, error) {
	rows := s.sortedReviews(func(rv model.Review) bool {
		return strings.EqualFold(rv.Title, title)
	})
	if len(rows) == 0 {
		return rows, 0, nil
	}
	sum := 0
	for _, rv := range rows {
		sum += rv.Rating
	}
	return rows, float64(sum) / float64(len(rows)), nil
}

func (s *memStore) Stats(_ context.Context) (repository.GlobalStats, error) {
	out := repository.GlobalStats{Histogram: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	sum := 0
	byMovie := map[string][]model.Review{}
	for _, rv := range s.reviews {
		out.TotalReviews++
		sum += rv.Rating
		out.Histogram[rv.Rating]++
		key := strings.ToLower(rv.Title)
		byMovie[key] = append(byMovie[key], rv)
	}
	if out.TotalReviews > 0 {
		out.AverageRating = float64(sum) / float64(out.TotalReviews)
	}
	keys := make([]string, 0, len(byMovie))
	for k := range byMovie {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rvs := byMovie[k]
		title := rvs[0].Title
		movieSum := 0
		for _, rv := range rvs {
			movieSum += rv.Rating
			if rv.Title < title {
				title = rv.Title
			}
		}
		out.Movies = append(out.Movies, repository.MovieAggregate{
			Title:         title,
			AverageRating: float64(movieSum) / float64(len(rvs)),
			ReviewCount:   int64(len(rvs)),
		})
	}
	return out, nil
}
