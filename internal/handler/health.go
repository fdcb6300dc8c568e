package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// APIHome is the friendly index of the API: a JSON payload listing the
// main endpoints, served at GET /api.
func APIHome(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Welcome to the CineCritique API",
        "endpoints": echo.Map{
            "register":      "/api/register",
            "login":         "/api/login",
            "refresh_token": "/api/token/refresh",
            "profile":       "/api/profile",
            "users":         "/api/users",
            "reviews":       "/api/reviews",
            "stats":         "/api/reviews/stats",
        },
    })
}
