package model

import "time"

// Review represents a movie critique written by a user.  A movie is not a
// first-class entity: reviews reference movies only through their title,
// matched case-insensitively, so two differently spelled titles count as
// different movies.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – movie title the review is about (de facto movie key).
//  Content   – free text body of the critique.
//  Rating    – integer rating, always within 1..5.
//  AuthorID  – owner of the review; set server-side, immutable.
//  CreatedAt – creation timestamp (listings order newest-first on this).
//  UpdatedAt – last modification timestamp.
type Review struct {
    ID        uint64    // reviews.id
    Title     string    // reviews.title
    Content   string    // reviews.content
    Rating    int       // reviews.rating
    AuthorID  uint64    // reviews.author_id
    CreatedAt time.Time // reviews.created_at
    UpdatedAt time.Time // reviews.updated_at
}
