package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/sirupsen/logrus"  // structured logging of unexpected errors

	"github.com/cinecritique/review-api/internal/handler"    // import the handlers that implement business logic
	"github.com/cinecritique/review-api/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not belong to the /api surface:
// the health check used by load balancers and the static media directory
// that serves uploaded profile pictures.
func RegisterRoutes(e *echo.Echo, mediaRoot string) {
	e.GET("/healthz", handler.Health)
	e.Static("/media", mediaRoot)
}

// RegisterAPI registers the whole /api surface. Public endpoints (register,
// login, token refresh, user detail, review listings, per-movie lookups and
// statistics) live on a plain group; everything else sits behind the
// JWTAuth middleware. cacheMW wraps the public read endpoints and limitMW
// throttles both groups; either may be a passthrough when Redis is
// unavailable. limitMW is attached per group, after JWTAuth on the
// protected one, so its key builder sees the authenticated identity
// (a global e.Use would run before JWTAuth and key every request as
// anonymous).
func RegisterAPI(e *echo.Echo, a *handler.AuthHandler, p *handler.ProfileHandler,
	r *handler.ReviewHandler, jwtSecret string, cacheMW, limitMW echo.MiddlewareFunc) {

	// Unauthenticated surface.
	pub := e.Group("/api", limitMW)
	pub.GET("", handler.APIHome)
	pub.POST("/register", a.Register)
	pub.POST("/login", a.Login)
	// The refresh endpoint authenticates by the refresh token in the body,
	// not by an Authorization header.
	pub.POST("/token/refresh", a.Refresh)
	pub.GET("/users/:id", p.GetUserDetail, cacheMW)
	pub.GET("/reviews", r.List, cacheMW)
	pub.GET("/reviews/movie/:title", r.MovieReviews, cacheMW)
	pub.GET("/reviews/stats", r.Stats, cacheMW)

	// Authenticated surface. Logout lives here: revoking a refresh token
	// requires the caller to still hold a valid access token.
	auth := e.Group("/api", middleware.JWTAuth(jwtSecret), limitMW)
	auth.POST("/logout", a.Logout)
	auth.GET("/profile", p.GetProfile)
	auth.PUT("/profile", p.UpdateProfile)
	auth.PATCH("/profile", p.UpdateProfile)
	auth.GET("/users", p.ListUsers)
	auth.POST("/reviews", r.Create)
	auth.GET("/reviews/my-reviews", r.MyReviews)
	auth.GET("/reviews/:id", r.Get)
	auth.PUT("/reviews/:id", r.Update)
	auth.PATCH("/reviews/:id", r.Update)
	auth.DELETE("/reviews/:id", r.Delete)
}

// JSONErrorHandler replaces Echo's default error handler so that every
// error response is a JSON object with an "error" key, including paths
// where the framework itself fails a request (unknown route, oversized
// body, malformed method). Unexpected errors are logged server-side and
// reported to the client as a generic message.
func JSONErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Request().URL.Path).Error("request failed")
		msg = "internal server error"
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
