package handler

import (
	"context"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinecritique/review-api/internal/repository"
)

// topListSize bounds both leaderboards in the statistics response.
const topListSize = 5

// minReviewsForRatingBoard is the review count a movie needs before it may
// appear on the by-rating leaderboard, so a single 5-star review cannot
// dominate it.
const minReviewsForRatingBoard = 2

// round1 rounds to one decimal place, the precision of every average
// rating in the API.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type statsResponse struct {
	TotalReviews       int64                        `json:"total_reviews"`
	AverageRating      float64                      `json:"average_rating"`
	RatingDistribution map[string]int64             `json:"rating_distribution"`
	Movies             []repository.MovieAggregate  `json:"movies"`
	TopMoviesByCount   []repository.MovieAggregate  `json:"top_movies_by_count"`
	TopMoviesByRating  []repository.MovieAggregate  `json:"top_movies_by_rating"`
}

// Stats returns the global review statistics. Public. The average is 0
// when no reviews exist; histogram buckets are always present even when
// empty.
func (h *ReviewHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Reviews.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := statsResponse{
		TotalReviews:  stats.TotalReviews,
		AverageRating: round1(stats.AverageRating),
		RatingDistribution: map[string]int64{
			"5_stars": stats.Histogram[5],
			"4_stars": stats.Histogram[4],
			"3_stars": stats.Histogram[3],
			"2_stars": stats.Histogram[2],
			"1_star":  stats.Histogram[1],
		},
		Movies:            make([]repository.MovieAggregate, 0, len(stats.Movies)),
		TopMoviesByCount:  []repository.MovieAggregate{},
		TopMoviesByRating: []repository.MovieAggregate{},
	}

	for _, m := range stats.Movies {
		m.AverageRating = round1(m.AverageRating)
		resp.Movies = append(resp.Movies, m)
	}

	byCount := append([]repository.MovieAggregate{}, resp.Movies...)
	sort.SliceStable(byCount, func(i, j int) bool {
		return byCount[i].ReviewCount > byCount[j].ReviewCount
	})
	if len(byCount) > topListSize {
		byCount = byCount[:topListSize]
	}
	resp.TopMoviesByCount = byCount

	byRating := []repository.MovieAggregate{}
	for _, m := range resp.Movies {
		if m.ReviewCount >= minReviewsForRatingBoard {
			byRating = append(byRating, m)
		}
	}
	sort.SliceStable(byRating, func(i, j int) bool {
		return byRating[i].AverageRating > byRating[j].AverageRating
	})
	if len(byRating) > topListSize {
		byRating = byRating[:topListSize]
	}
	resp.TopMoviesByRating = byRating

	return c.JSON(http.StatusOK, resp)
}
