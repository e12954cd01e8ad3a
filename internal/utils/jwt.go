package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/hmac"   // HMAC derivation of the refresh signing key
    "crypto/sha256" // SHA-256 as the HMAC hash
    "errors"        // sentinel errors for token validation
    "strconv"       // account ids travel as decimal strings in "sub"
    "time"          // expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // unique jti per token
)

// Token types carried in the "typ" claim.  Access tokens are rejected where
// a refresh token is expected and vice versa.
const (
    TypeAccess  = "access"
    TypeRefresh = "refresh"
)

// ErrInvalidToken is returned for any token that fails validation.  The
// cause (expired, tampered, wrong type) is deliberately not exposed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of both bearer token types.
type Claims struct {
    Type string `json:"typ"`
    jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken is a long-lived JWT used to mint new access tokens.  It is
// signed with a key derived from the account's current password hash, so a
// password change revokes every refresh token issued before it.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 access JWT for an account.
func NewAccessToken(secret string, accountID uint64, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    signed, err := sign([]byte(secret), TypeAccess, accountID, exp)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds a refresh JWT bound to passwordHash.
func NewRefreshToken(secret, passwordHash string, accountID uint64, ttlDays int) (RefreshToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    signed, err := sign(refreshKey(secret, passwordHash), TypeRefresh, accountID, exp)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{Raw: signed, Exp: exp}, nil
}

func sign(key []byte, typ string, accountID uint64, exp time.Time) (string, error) {
    now := time.Now().UTC()
    claims := Claims{
        Type: typ,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(accountID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
            ID:        uuid.NewString(),
        },
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseAccessToken validates an access token and returns its account id.
func ParseAccessToken(secret, raw string) (uint64, error) {
    return parse([]byte(secret), TypeAccess, raw)
}

// RefreshSubject reads the account id of a refresh token WITHOUT verifying
// it.  The caller must load that account and call VerifyRefreshToken before
// trusting anything else in the token.
func RefreshSubject(raw string) (uint64, error) {
    var claims Claims
    if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
        return 0, ErrInvalidToken
    }
    if claims.Type != TypeRefresh {
        return 0, ErrInvalidToken
    }
    id, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrInvalidToken
    }
    return id, nil
}

// VerifyRefreshToken checks signature, expiry and type of a refresh token
// against the account's current password hash.
func VerifyRefreshToken(secret, passwordHash, raw string, accountID uint64) error {
    id, err := parse(refreshKey(secret, passwordHash), TypeRefresh, raw)
    if err != nil {
        return err
    }
    if id != accountID {
        return ErrInvalidToken
    }
    return nil
}

func parse(key []byte, typ, raw string) (uint64, error) {
    var claims Claims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        return key, nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid || claims.Type != typ {
        return 0, ErrInvalidToken
    }
    id, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrInvalidToken
    }
    return id, nil
}

// refreshKey derives the refresh signing key from the server secret and the
// password hash.
func refreshKey(secret, passwordHash string) []byte {
    m := hmac.New(sha256.New, []byte(secret))
    m.Write([]byte("refresh:" + passwordHash))
    return m.Sum(nil)
}
