package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/cinecritique/review-api/internal/middleware"
	"github.com/cinecritique/review-api/internal/model"
	"github.com/cinecritique/review-api/internal/queue"
	"github.com/cinecritique/review-api/internal/repository"
)

// ReviewHandler serves both the public review listings and the
// author-scoped CRUD operations. Publish, when set, is invoked after a
// successful creation; publish failures are logged, never surfaced.
type ReviewHandler struct {
	Reviews ReviewStore
	Users   UserStore
	Publish func(ctx context.Context, ev queue.ReviewCreatedEvent) error
}

func NewReviewHandler(r ReviewStore, u UserStore, publish func(context.Context, queue.ReviewCreatedEvent) error) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Users: u, Publish: publish}
}

// ----- DTOs -----

type createReviewReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

type updateReviewReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Rating  *int    `json:"rating"`
}

// reviewResponse is the full shape of a single review.
type reviewResponse struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Rating         int       `json:"rating"`
	AuthorID       uint64    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toReviewResponse(rv model.Review, authorUsername string) reviewResponse {
	return reviewResponse{
		ID:             rv.ID,
		Title:          rv.Title,
		Content:        rv.Content,
		Rating:         rv.Rating,
		AuthorID:       rv.AuthorID,
		AuthorUsername: authorUsername,
		CreatedAt:      rv.CreatedAt,
		UpdatedAt:      rv.UpdatedAt,
	}
}

func toReviewResponses(rows []repository.ReviewWithAuthor) []reviewResponse {
	out := make([]reviewResponse, 0, len(rows))
	for _, rv := range rows {
		out = append(out, toReviewResponse(rv.Review, rv.AuthorUsername))
	}
	return out
}

func validateRating(rating int) (string, bool) {
	if rating < 1 || rating > 5 {
		return "rating must be between 1 and 5", false
	}
	return "", true
}

// List returns all reviews newest-first. Public. Supports ?author_id=<id>
// for exact author filtering and ?search=<s> for a case-insensitive
// substring match on the title.
func (h *ReviewHandler) List(c echo.Context) error {
	q := repository.ListQuery{Search: strings.TrimSpace(c.QueryParam("search"))}
	if raw := c.QueryParam("author_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid author_id"})
		}
		q.AuthorID = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reviews.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReviewResponses(rows)})
}

// Create persists a new review for the caller. The author is always the
// authenticated identity; any author field in the payload is ignored.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)

	details := echo.Map{}
	if req.Title == "" {
		details["title"] = "title is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		details["content"] = "content is required"
	}
	if msg, ok := validateRating(req.Rating); !ok {
		details["rating"] = msg
	}
	if len(details) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": details})
	}

	callerID := middleware.CallerID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rv, err := h.Reviews.Create(ctx, req.Title, req.Content, req.Rating, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
	}

	author, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	if h.Publish != nil {
		ev := queue.ReviewCreatedEvent{
			ReviewID:       rv.ID,
			MovieTitle:     rv.Title,
			Rating:         rv.Rating,
			AuthorID:       author.ID,
			AuthorUsername: author.Username,
			CreatedAt:      rv.CreatedAt.UTC().Format(time.RFC3339),
		}
		// Best effort: the review is already committed, a broker outage
		// must not fail the request.
		if err := h.Publish(c.Request().Context(), ev); err != nil {
			logrus.WithError(err).Warn("publish review.created failed")
		}
	}

	return c.JSON(http.StatusCreated, toReviewResponse(rv, author.Username))
}

// Get returns one of the caller's own reviews. A review belonging to
// another author is reported as not found, never as forbidden.
func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	callerID := middleware.CallerID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rv, err := h.Reviews.GetForAuthor(ctx, id, callerID)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	author, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toReviewResponse(rv, author.Username))
}

// Update applies a partial update to one of the caller's own reviews.
// PUT and PATCH behave identically: absent fields stay unchanged.
func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	details := echo.Map{}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		details["title"] = "title must not be empty"
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		details["content"] = "content must not be empty"
	}
	if req.Rating != nil {
		if msg, ok := validateRating(*req.Rating); !ok {
			details["rating"] = msg
		}
	}
	if len(details) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": details})
	}

	callerID := middleware.CallerID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rv, err := h.Reviews.UpdateForAuthor(ctx, id, callerID, req.Title, req.Content, req.Rating)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update review failed"})
	}

	author, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toReviewResponse(rv, author.Username))
}

// Delete removes one of the caller's own reviews.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.DeleteForAuthor(ctx, id, middleware.CallerID(c)); err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete review failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MyReviews returns the caller's own reviews newest-first.
func (h *ReviewHandler) MyReviews(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reviews.ListByAuthor(ctx, middleware.CallerID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReviewResponses(rows)})
}

// MovieReviews returns all reviews for one movie, matched by title
// case-insensitively. Public. A movie with no reviews is not an error: the
// response carries an empty list and a message.
func (h *ReviewHandler) MovieReviews(c echo.Context) error {
	title := strings.TrimSpace(c.Param("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, avg, err := h.Reviews.ListByMovie(ctx, title)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(rows) == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"items":   []reviewResponse{},
			"message": "no reviews yet for this movie",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":          toReviewResponses(rows),
		"average_rating": round1(avg),
	})
}
