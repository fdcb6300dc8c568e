package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinecritique/review-api/internal/middleware"
	"github.com/cinecritique/review-api/internal/repository"
	"github.com/cinecritique/review-api/internal/storage"
)

// ProfileHandler serves the authenticated user's own profile and the
// user discovery endpoints.
type ProfileHandler struct {
	Users UserStore
	Media *storage.MediaStore
}

func NewProfileHandler(u UserStore, m *storage.MediaStore) *ProfileHandler {
	return &ProfileHandler{Users: u, Media: m}
}

type profileUpdateReq struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

// userListItem is a user as shown in discovery listings: the public
// profile annotated with how many reviews they have written.
type userListItem struct {
	ID             uint64    `json:"id"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio"`
	ProfilePicture *string   `json:"profile_picture"`
	DateJoined     time.Time `json:"date_joined"`
	ReviewCount    int       `json:"review_count"`
}

func toUserListItem(u repository.UserWithReviewCount) userListItem {
	return userListItem{
		ID:             u.ID,
		Username:       u.Username,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		DateJoined:     u.CreatedAt,
		ReviewCount:    u.ReviewCount,
	}
}

// GetProfile returns the caller's full profile, resolved from the access
// token subject.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.CallerID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// UpdateProfile applies a partial update to the caller's username, bio
// and/or profile picture. Email and password cannot be changed here. The
// endpoint accepts either JSON or multipart form data; the picture can
// only arrive as a multipart file upload. An empty-string picture form
// value is treated as "no change", not as "clear the picture".
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	callerID := middleware.CallerID(c)

	var username, bio, picture *string

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
		}
		if vals, ok := form.Value["username"]; ok && len(vals) > 0 {
			v := strings.TrimSpace(vals[0])
			username = &v
		}
		if vals, ok := form.Value["bio"]; ok && len(vals) > 0 {
			v := vals[0]
			bio = &v
		}
		if files, ok := form.File["profile_picture"]; ok && len(files) > 0 {
			rel, err := h.Media.SaveProfilePicture(callerID, files[0])
			if err != nil {
				if err == storage.ErrUnsupportedMediaType {
					return c.JSON(http.StatusBadRequest, echo.Map{
						"error": "validation failed", "details": echo.Map{"profile_picture": "unsupported image format"}})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store picture failed"})
			}
			picture = &rel
		}
		// A plain "profile_picture" form value (no file part) is ignored.
		// In particular an empty string does not clear the stored picture.
	} else {
		var req profileUpdateReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		username, bio = req.Username, req.Bio
		if username != nil {
			v := strings.TrimSpace(*username)
			username = &v
		}
	}

	if username != nil && *username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "validation failed", "details": echo.Map{"username": "username must not be empty"}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, callerID, username, bio, picture); err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}

	u, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// ListUsers returns every user except the caller, each with their review
// count. Requires authentication.
func (h *ProfileHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListOthers(ctx, middleware.CallerID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]userListItem, 0, len(users))
	for _, u := range users {
		out = append(out, toUserListItem(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetUserDetail returns one user's public profile with their review
// count. No authentication required; the email is not exposed.
func (h *ProfileHandler) GetUserDetail(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetDetail(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toUserListItem(u))
}
