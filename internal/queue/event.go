// Package queue defines message payloads exchanged over the message broker.
package queue

// ReviewCreatedEvent is published when a review is successfully created.
// It carries enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type ReviewCreatedEvent struct {
    ReviewID       uint64 `json:"review_id"`
    MovieTitle     string `json:"movie_title"`
    Rating         int    `json:"rating"`
    AuthorID       uint64 `json:"author_id"`
    AuthorUsername string `json:"author_username"`
    CreatedAt      string `json:"created_at"`
}
