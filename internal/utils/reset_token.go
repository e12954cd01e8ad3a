package utils

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/base64"
    "encoding/hex"
    "errors"
    "strconv"
    "strings"
    "time"
)

// clockSkew tolerates reset tokens stamped slightly in the future by
// another server instance.
const clockSkew = time.Minute

// ResetTokens generates and checks password-reset tokens.  A token is
// "<base36 unix seconds>-<hmac>" where the HMAC covers the account id, the
// current password hash and the issue time.  Nothing is stored: once the
// password changes, every earlier token stops matching.
type ResetTokens struct {
    Secret  string
    Timeout time.Duration
    Now     func() time.Time // nil means time.Now
}

func (g ResetTokens) now() time.Time {
    if g.Now != nil {
        return g.Now()
    }
    return time.Now()
}

// Make issues a token for the account's current password hash.
func (g ResetTokens) Make(accountID uint64, passwordHash string) string {
    ts := strconv.FormatInt(g.now().Unix(), 36)
    return ts + "-" + g.mac(accountID, passwordHash, ts)
}

// Check reports whether token is valid for the account right now.
func (g ResetTokens) Check(accountID uint64, passwordHash, token string) bool {
    ts, sig, ok := strings.Cut(token, "-")
    if !ok || ts == "" || sig == "" {
        return false
    }
    issued, err := strconv.ParseInt(ts, 36, 64)
    if err != nil {
        return false
    }
    // Compare before looking at time so every failure costs the same.
    valid := hmac.Equal([]byte(sig), []byte(g.mac(accountID, passwordHash, ts)))
    age := g.now().Sub(time.Unix(issued, 0))
    return valid && age <= g.Timeout && age >= -clockSkew
}

func (g ResetTokens) mac(accountID uint64, passwordHash, ts string) string {
    m := hmac.New(sha256.New, []byte(g.Secret))
    m.Write([]byte("password-reset|" + strconv.FormatUint(accountID, 10) + "|" + passwordHash + "|" + ts))
    return hex.EncodeToString(m.Sum(nil))[:32]
}

var errBadUID = errors.New("invalid uid")

// EncodeUID is the opaque account reference placed next to a reset token.
func EncodeUID(accountID uint64) string {
    return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(accountID, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (uint64, error) {
    b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
    if err != nil {
        return 0, errBadUID
    }
    id, err := strconv.ParseUint(string(b), 10, 64)
    if err != nil || id == 0 {
        return 0, errBadUID
    }
    return id, nil
}
