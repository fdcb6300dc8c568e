package handler

import (
    "context"      // provides context with cancellation for DB calls
    "database/sql" // maps sql.ErrNoRows onto authentication failures
    "net/http"     // HTTP status codes and primitives
    "net/mail"     // RFC 5322 address validation for registration
    "strings"      // string manipulation utilities
    "time"         // timeouts for DB calls and token expirations

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/cinecritique/review-api/internal/config"     // app configuration
    "github.com/cinecritique/review-api/internal/middleware" // caller identity from the access token
    "github.com/cinecritique/review-api/internal/model"      // persisted entity types
    "github.com/cinecritique/review-api/internal/repository" // sentinel errors from the DB layer
    "github.com/cinecritique/review-api/internal/utils"      // token issuing and password hashing helpers
)

// AuthHandler bundles dependencies for the registration, login, refresh
// and logout endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Bio             string `json:"bio"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"` // true ends every session of the caller
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// userResponse is the public shape of a user. The password hash never
// appears here.
type userResponse struct {
	ID             uint64    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	ProfilePicture *string   `json:"profile_picture"`
	DateJoined     time.Time `json:"date_joined"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		DateJoined:     u.CreatedAt,
	}
}

type authResp struct {
	User    userResponse `json:"user"`
	Tokens  tokenPair    `json:"tokens"`
	Message string       `json:"message"`
}

// issuePair mints an access+refresh pair for a user and records the
// refresh jti. Registration and login are the only callers: no other
// operation mints tokens.
func (h *AuthHandler) issuePair(ctx context.Context, userID uint64) (tokenPair, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, userID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPair{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, refresh.JTI, refresh.Exp); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Access: access.Token, Refresh: refresh.Token}, nil
}

// Register validates the registration payload field by field, creates the
// user and returns a fresh token pair. On any validation failure nothing
// is persisted and no tokens are issued.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	details := echo.Map{}
	if req.Username == "" {
		details["username"] = "username is required"
	}
	if req.Email == "" {
		details["email"] = "email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		details["email"] = "enter a valid email address"
	}
	if req.Password == "" {
		details["password"] = "password is required"
	} else if err := utils.CheckPasswordStrength(req.Password); err != nil {
		details["password"] = "password must be at least 8 characters and not entirely numeric"
	}
	if req.Password != req.ConfirmPassword {
		details["password"] = "passwords do not match"
	}
	if len(details) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": details})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Username, req.Password, req.Bio, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "validation failed", "details": echo.Map{"email": "a user with this email already exists"}})
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "validation failed", "details": echo.Map{"username": "a user with this username already exists"}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	tokens, err := h.issuePair(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		User:    toUserResponse(u),
		Tokens:  tokens,
		Message: "registration successful",
	})
}

// Login authenticates by email and password and returns a new token pair.
// Every failure mode (unknown email, wrong password, inactive account)
// yields the same generic message so the response does not reveal which
// half of the credentials was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tokens, err := h.issuePair(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    toUserResponse(u),
		Tokens:  tokens,
		Message: "login successful",
	})
}

// Refresh exchanges a valid, non-blacklisted refresh token for a new
// token pair. The old token is blacklisted in the same step (rotation),
// so replaying it afterwards fails. The blacklist lookup happens before
// any token is minted: a concurrently blacklisted token loses the race
// and gets an authentication error.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	claims, err := utils.ParseToken(h.Cfg.JWTSecret, strings.TrimSpace(req.RefreshToken), "refresh")
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, claims.JTI)
	if err != nil || userID != claims.UserID {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	// The consumed token must be revoked before a new pair exists; if the
	// revoke fails the rotation is aborted rather than leaving two live
	// refresh tokens.
	if err := h.Tokens.RevokeByJTI(ctx, claims.JTI); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	tokens, err := h.issuePair(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, tokens)
}

// Logout blacklists the refresh token supplied in the body; with
// {"all": true} it instead blacklists every active refresh token of the
// caller, ending all of their sessions at once. The route is registered
// behind JWTAuth, so the caller must also hold a valid access token. A
// missing, malformed or already-blacklisted refresh token is a client
// error.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.All {
		if err := h.Tokens.RevokeAllForUser(ctx, middleware.CallerID(c)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
	}

	if strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	claims, err := utils.ParseToken(h.Cfg.JWTSecret, strings.TrimSpace(req.RefreshToken), "refresh")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}

	if _, err := h.Tokens.ValidateRefresh(ctx, claims.JTI); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}
	if err := h.Tokens.RevokeByJTI(ctx, claims.JTI); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}
