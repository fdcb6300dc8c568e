package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel errors surfaced to callers on bad tokens
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // uuid generates the jti claim for refresh tokens
)

// ErrInvalidToken is returned when a token fails signature verification,
// has expired, or does not carry the expected claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp.  Access tokens are short-lived and sent in the Authorization
// header when calling protected endpoints.  They are not individually
// revocable before expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used solely to obtain new
// access tokens.  It is itself a signed JWT carrying a unique jti claim;
// the jti is recorded server-side at issuance so the token can be
// blacklisted later.  JTI is the identifier under which the blacklist
// entry is stored.
type RefreshToken struct {
    Token string    // the serialized JWT string returned to the client
    JTI   string    // unique token identifier (uuid)
    Exp   time.Time // UTC expiration time
}

// TokenClaims is the decoded, validated content of either token kind.
type TokenClaims struct {
    UserID    uint64 // subject claim (sub)
    TokenType string // "access" or "refresh"
    JTI       string // jti claim; empty on access tokens
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID and a TTL in minutes, and returns an
// AccessToken containing the signed string and its expiration time.  The
// JWT carries the standard claims subject (sub), expiration (exp) and
// issued-at (iat), plus a token_type discriminator so an access token can
// never be replayed against the refresh endpoint.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":        userID,
        "token_type": "access",
        "exp":        exp.Unix(),
        "iat":        time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh JWT.  The ttlDays
// parameter controls how many days the token stays valid.  Each refresh
// token receives a fresh uuid as its jti claim; callers must persist the
// jti so the token can be validated and blacklisted later.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (RefreshToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    jti := uuid.NewString()
    claims := jwt.MapClaims{
        "sub":        userID,
        "token_type": "refresh",
        "jti":        jti,
        "exp":        exp.Unix(),
        "iat":        time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{Token: signed, JTI: jti, Exp: exp}, nil
}

// ParseToken verifies the signature and expiry of a token string and
// returns its claims.  wantType restricts the token_type claim: passing
// "refresh" rejects access tokens and vice versa.  Expired or otherwise
// malformed tokens yield ErrInvalidToken; the caller decides whether that
// maps to 400 or 401.
func ParseToken(secret, raw, wantType string) (TokenClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC; an attacker
        // switching the algorithm must not get past verification.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return TokenClaims{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return TokenClaims{}, ErrInvalidToken
    }
    typ, _ := claims["token_type"].(string)
    if typ != wantType {
        return TokenClaims{}, ErrInvalidToken
    }
    // JWT numeric values decode as float64; the subject is our user ID.
    sub, ok := claims["sub"].(float64)
    if !ok || sub <= 0 {
        return TokenClaims{}, ErrInvalidToken
    }
    out := TokenClaims{UserID: uint64(sub), TokenType: typ}
    if jti, ok := claims["jti"].(string); ok {
        out.JTI = jti
    }
    if typ == "refresh" && out.JTI == "" {
        return TokenClaims{}, ErrInvalidToken
    }
    return out, nil
}
