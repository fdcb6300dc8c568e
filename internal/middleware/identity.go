package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID renders the authenticated user id stored by JWTAuth as a
// string for use in cache and rate-limit keys; unauthenticated requests
// are keyed as "anon".

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns the caller's user id as a string, or "anon" when
// the request carries no authenticated identity.
func currentUserID(c echo.Context) string {
    if id := CallerID(c); id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
