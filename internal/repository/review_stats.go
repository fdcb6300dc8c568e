package repository

import (
	"context"
)

// GlobalStats holds the raw aggregates behind the public statistics
// endpoint. TotalReviews and AverageRating come from a single grouped
// query; the histogram and per-movie aggregates from one grouped query
// each. Rounding and leaderboard selection are left to the handler.
type GlobalStats struct {
	TotalReviews  int64
	AverageRating float64          // unrounded arithmetic mean, 0 when empty
	Histogram     map[int]int64    // rating value 1..5 -> count
	Movies        []MovieAggregate // one entry per distinct (case-insensitive) title
}

// MovieAggregate describes one movie, identified by its case-insensitive
// title. Title carries a representative spelling (the lexicographically
// smallest one seen) for display.
type MovieAggregate struct {
	Title         string  `json:"title"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// Stats aggregates the whole reviews table. The AVG is computed in SQL;
// COALESCE keeps the zero-review case from producing a NULL scan.
func (r *ReviewRepo) Stats(ctx context.Context) (GlobalStats, error) {
	out := GlobalStats{Histogram: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}

	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews").
		Scan(&out.TotalReviews, &out.AverageRating)
	if err != nil {
		return out, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT rating, COUNT(*) FROM reviews GROUP BY rating")
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var rating int
		var count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return out, err
		}
		out.Histogram[rating] = count
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	movieRows, err := r.DB.QueryContext(ctx, `
		SELECT MIN(title), AVG(rating), COUNT(*)
		FROM reviews
		GROUP BY LOWER(title)
		ORDER BY MIN(title)`)
	if err != nil {
		return out, err
	}
	defer movieRows.Close()
	for movieRows.Next() {
		var m MovieAggregate
		if err := movieRows.Scan(&m.Title, &m.AverageRating, &m.ReviewCount); err != nil {
			return out, err
		}
		out.Movies = append(out.Movies, m)
	}
	return out, movieRows.Err()
}
