// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrReviewNotFound covers both a genuinely missing review and
// a review owned by another user: callers must not be able to tell the
// two apart, so handlers translate it into an HTTP 404 either way.
package repository

import "errors"

// ErrEmailExists is returned when a registration or update would violate
// the unique constraint on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when a registration or profile update
// would violate the unique constraint on users.username. Handlers
// translate this into 400 (register, field-level) or 409 (profile).
var ErrUsernameExists = errors.New("username already exists")

// ErrUserNotFound is returned when no user row matches the given id.
var ErrUserNotFound = errors.New("user not found")

// ErrReviewNotFound is returned when no review matches the given id for
// the requesting author. Existence of foreign-owned reviews is
// deliberately not revealed.
var ErrReviewNotFound = errors.New("review not found")
