package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/cinecritique/review-api/internal/config"
	"github.com/cinecritique/review-api/internal/handler"
	"github.com/cinecritique/review-api/internal/middleware"
	"github.com/cinecritique/review-api/internal/queue"
	"github.com/cinecritique/review-api/internal/router"
	"github.com/cinecritique/review-api/internal/storage"
)

// testApp wires the real router and handlers against the in-memory
// fakes, so tests exercise routing, middleware and handler behavior
// exactly as a running server would.
type testApp struct {
	e      *echo.Echo
	store  *memStore
	cfg    config.Config
	events []queue.ReviewCreatedEvent

	// limiterSaw records the identity the rate-limit slot observed for
	// each request, so tests can pin that it runs after authentication.
	limiterSaw []uint64
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AccessTTLMin:   60,
		RefreshTTLDays: 1,
		BcryptCost:     4, // keep hashing fast in tests
		MediaRoot:      t.TempDir(),
	}
	store := newMemStore()
	app := &testApp{store: store, cfg: cfg}

	authHandler := handler.NewAuthHandler(cfg, store, store)
	profileHandler := handler.NewProfileHandler(store, storage.NewMediaStore(cfg.MediaRoot))
	reviewHandler := handler.NewReviewHandler(memReviews{store}, store,
		func(_ context.Context, ev queue.ReviewCreatedEvent) error {
			app.events = append(app.events, ev)
			return nil
		})

	e := echo.New()
	e.HTTPErrorHandler = router.JSONErrorHandler
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	// Stands in the rate limiter's slot and records the identity it sees.
	recordingLimiter := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app.limiterSaw = append(app.limiterSaw, middleware.CallerID(c))
			return next(c)
		}
	}
	router.RegisterRoutes(e, cfg.MediaRoot)
	router.RegisterAPI(e, authHandler, profileHandler, reviewHandler, cfg.JWTSecret, passthrough, recordingLimiter)
	app.e = e
	return app
}

// do performs a JSON request against the app and returns the recorder.
func (app *testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// register creates an account through the HTTP surface and returns the
// new user id with its token pair.
func (app *testApp) register(t *testing.T, username, email, password string) (uint64, string, string) {
	t.Helper()
	rec := app.do(t, "POST", "/api/register", map[string]any{
		"username":         username,
		"email":            email,
		"password":         password,
		"confirm_password": password,
	}, "")
	require.Equal(t, 201, rec.Code, rec.Body.String())
	body := decode(t, rec)
	user := body["user"].(map[string]any)
	tokens := body["tokens"].(map[string]any)
	return uint64(user["id"].(float64)), tokens["access"].(string), tokens["refresh"].(string)
}

// createReview posts a review as the given user and returns its id.
func (app *testApp) createReview(t *testing.T, access, title string, rating int) uint64 {
	t.Helper()
	rec := app.do(t, "POST", "/api/reviews", map[string]any{
		"title":   title,
		"content": "some thoughts about " + title,
		"rating":  rating,
	}, access)
	require.Equal(t, 201, rec.Code, rec.Body.String())
	return uint64(decode(t, rec)["id"].(float64))
}
