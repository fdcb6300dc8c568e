package handler_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doMultipart performs a multipart/form-data PATCH against /api/profile.
// Each entry in files maps a form field to filename and content.
func (app *testApp) doMultipart(t *testing.T, token string, values map[string]string, files map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, f := range files {
		fw, err := w.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("PATCH", "/api/profile", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)
	return rec
}

func TestGetOwnProfile(t *testing.T) {
	app := newTestApp(t)
	userID, access, _ := app.register(t, "alice", "a@x.com", "correct horse")

	rec := app.do(t, "GET", "/api/profile", nil, access)
	require.Equal(t, 200, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(userID), body["id"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.Nil(t, body["profile_picture"])
}

func TestUpdateProfileJSONPartial(t *testing.T) {
	app := newTestApp(t)
	_, access, _ := app.register(t, "alice", "a@x.com", "correct horse")

	rec := app.do(t, "PATCH", "/api/profile", map[string]any{"bio": "film buff"}, access)
	require.Equal(t, 200, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "film buff", body["bio"])
	assert.Equal(t, "alice", body["username"], "absent fields stay unchanged")

	rec = app.do(t, "PUT", "/api/profile", map[string]any{"username": "  "}, access)
	assert.Equal(t, 400, rec.Code)
}

func TestUpdateProfileUsernameConflict(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "a@x.com", "correct horse")
	_, bob, _ := app.register(t, "bob", "b@x.com", "correct horse")

	rec := app.do(t, "PATCH", "/api/profile", map[string]any{"username": "alice"}, bob)
	assert.Equal(t, 409, rec.Code)

	// Setting your own current username is not a conflict.
	rec = app.do(t, "PATCH", "/api/profile", map[string]any{"username": "bob"}, bob)
	assert.Equal(t, 200, rec.Code)
}

func TestUpdateProfilePictureUpload(t *testing.T) {
	app := newTestApp(t)
	userID, access, _ := app.register(t, "alice", "a@x.com", "correct horse")

	rec := app.doMultipart(t, access,
		map[string]string{"bio": "with a face now"},
		map[string][2]string{"profile_picture": {"me.png", "not really a png"}})
	require.Equal(t, 200, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "with a face now", body["bio"])

	pic, ok := body["profile_picture"].(string)
	require.True(t, ok, "picture path must be set after upload")
	assert.Contains(t, pic, fmt.Sprintf("profile_pictures/user_%d/", userID))
	assert.Equal(t, ".png", filepath.Ext(pic))

	// The file landed under the media root.
	saved, err := os.ReadFile(filepath.Join(app.cfg.MediaRoot, filepath.FromSlash(pic)))
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(saved))
}

func TestUpdateProfileEmptyPictureValueIsNoOp(t *testing.T) {
	app := newTestApp(t)
	_, access, _ := app.register(t, "alice", "a@x.com", "correct horse")

	rec := app.doMultipart(t, access, nil,
		map[string][2]string{"profile_picture": {"me.jpg", "jpeg bytes"}})
	require.Equal(t, 200, rec.Code)
	before := decode(t, rec)["profile_picture"].(string)

	// A plain empty form value must not clear the stored picture.
	rec = app.doMultipart(t, access,
		map[string]string{"profile_picture": "", "bio": "still me"}, nil)
	require.Equal(t, 200, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "still me", body["bio"])
	assert.Equal(t, before, body["profile_picture"])
}

func TestUpdateProfileRejectsUnsupportedImage(t *testing.T) {
	app := newTestApp(t)
	_, access, _ := app.register(t, "alice", "a@x.com", "correct horse")

	rec := app.doMultipart(t, access, nil,
		map[string][2]string{"profile_picture": {"notes.txt", "plain text"}})
	require.Equal(t, 400, rec.Code)
	details := decode(t, rec)["details"].(map[string]any)
	assert.Contains(t, details, "profile_picture")
}

func TestListUsersExcludesCaller(t *testing.T) {
	app := newTestApp(t)
	_, alice, _ := app.register(t, "alice", "a@x.com", "correct horse")
	bobID, bob, _ := app.register(t, "bob", "b@x.com", "correct horse")
	app.createReview(t, bob, "Heat", 4)
	app.createReview(t, bob, "Dune", 5)

	rec := app.do(t, "GET", "/api/users", nil, alice)
	require.Equal(t, 200, rec.Code)
	got := items(t, decode(t, rec))
	require.Len(t, got, 1)
	item := got[0].(map[string]any)
	assert.Equal(t, float64(bobID), item["id"])
	assert.Equal(t, "bob", item["username"])
	assert.Equal(t, float64(2), item["review_count"])
	_, hasEmail := item["email"]
	assert.False(t, hasEmail, "listings never expose email addresses")

	rec = app.do(t, "GET", "/api/users", nil, "")
	assert.Equal(t, 401, rec.Code)
}

func TestGetUserDetailPublic(t *testing.T) {
	app := newTestApp(t)
	userID, access, _ := app.register(t, "alice", "a@x.com", "correct horse")
	app.createReview(t, access, "Heat", 4)

	rec := app.do(t, "GET", fmt.Sprintf("/api/users/%d", userID), nil, "")
	require.Equal(t, 200, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, float64(1), body["review_count"])
	_, hasEmail := body["email"]
	assert.False(t, hasEmail)

	rec = app.do(t, "GET", "/api/users/9999", nil, "")
	assert.Equal(t, 404, rec.Code)
	rec = app.do(t, "GET", "/api/users/abc", nil, "")
	assert.Equal(t, 400, rec.Code)
}
