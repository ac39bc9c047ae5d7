package auth

import (
    "crypto/sha256" // hashing session tokens before they are persisted
    "encoding/hex"  // hex encoding for token hashes
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Token kinds.  Every token carries an explicit "kind" claim which the
// verifier checks against the expectation for the call site.  Together with
// the disjoint key pairs this makes the two token families structurally
// non-interchangeable: splicing headers or prefixes between a session and an
// action token can never produce a token that verifies.
const (
    KindSession       = "session"        // long-lived login credential
    PurposeVerify     = "verify-email"   // action token consumed by GET /verification/:token
    PurposeResetPass  = "reset-password" // action token consumed by POST /reset-password/:token
)

// Verification failures.  Handlers collapse all of these to a 401 (or a 400
// for action-token links); the distinction exists for logging and for the
// middleware's operability sub-messages.
var (
    ErrInvalidToken    = errors.New("invalid token")
    ErrTokenExpired    = errors.New("token expired")
    ErrMalformedClaims = errors.New("missing required user information")
)

// SessionToken is a freshly signed session JWT together with its expiry, the
// shape handed back to login handlers.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// SessionClaims is the decoded payload of a verified session token.  All
// three identity fields are guaranteed present after VerifySessionToken
// succeeds.
type SessionClaims struct {
    UserID   uint64
    Username string
    Verified bool
    Exp      time.Time
}

// ActionClaims is the decoded payload of a verified action token.  Email is
// set for verify-email tokens, Username for reset-password tokens.
type ActionClaims struct {
    UserID   uint64
    Email    string
    Username string
    Purpose  string
    Exp      time.Time
}

// NewSessionToken builds and signs an RS256 session JWT for a user.  The JWT
// embeds exactly the identity claims the middleware needs (sub, username,
// verified) plus kind, exp and iat.
func (k *Keys) NewSessionToken(userID uint64, username string, verified bool, ttlMin int) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":      userID,
        "username": username,
        "verified": verified,
        "kind":     KindSession,
        "exp":      exp.Unix(),
        "iat":      now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
    signed, err := t.SignedString(k.SessionPrivate)
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// NewVerifyEmailToken signs a short-lived action token binding a user id to
// the exact email address being verified.
func (k *Keys) NewVerifyEmailToken(userID uint64, email string, ttlMin int) (string, error) {
    return k.signAction(jwt.MapClaims{"sub": userID, "email": email}, PurposeVerify, ttlMin)
}

// NewResetPasswordToken signs a short-lived action token binding a user id
// to its username for the password-reset flow.
func (k *Keys) NewResetPasswordToken(userID uint64, username string, ttlMin int) (string, error) {
    return k.signAction(jwt.MapClaims{"sub": userID, "username": username}, PurposeResetPass, ttlMin)
}

func (k *Keys) signAction(claims jwt.MapClaims, purpose string, ttlMin int) (string, error) {
    now := time.Now().UTC()
    claims["kind"] = purpose
    claims["exp"] = now.Add(time.Duration(ttlMin) * time.Minute).Unix()
    claims["iat"] = now.Unix()
    t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
    return t.SignedString(k.ActionPrivate)
}

// VerifySessionToken checks the signature against the session public key,
// the expiry, and the kind claim, then asserts that the identity claims are
// actually present.  A token with a valid signature but no sub or username
// fails with ErrMalformedClaims; the signature alone is not enough to
// authenticate a request.
func (k *Keys) VerifySessionToken(raw string) (SessionClaims, error) {
    claims, err := parseRS256(raw, k.SessionPublic)
    if err != nil {
        return SessionClaims{}, err
    }
    if kind, _ := claims["kind"].(string); kind != KindSession {
        return SessionClaims{}, ErrInvalidToken
    }
    userID, ok := claimUint64(claims, "sub")
    username, ok2 := claims["username"].(string)
    if !ok || !ok2 || username == "" {
        return SessionClaims{}, ErrMalformedClaims
    }
    verified, _ := claims["verified"].(bool)
    return SessionClaims{
        UserID:   userID,
        Username: username,
        Verified: verified,
        Exp:      claimTime(claims, "exp"),
    }, nil
}

// VerifyActionToken checks an action token against the action public key and
// the expected purpose.  Tokens signed for a different purpose (or with the
// session key) are rejected as invalid.
func (k *Keys) VerifyActionToken(raw, purpose string) (ActionClaims, error) {
    claims, err := parseRS256(raw, k.ActionPublic)
    if err != nil {
        return ActionClaims{}, err
    }
    if kind, _ := claims["kind"].(string); kind != purpose {
        return ActionClaims{}, ErrInvalidToken
    }
    userID, ok := claimUint64(claims, "sub")
    if !ok {
        return ActionClaims{}, ErrMalformedClaims
    }
    email, _ := claims["email"].(string)
    username, _ := claims["username"].(string)
    return ActionClaims{
        UserID:   userID,
        Email:    email,
        Username: username,
        Purpose:  purpose,
        Exp:      claimTime(claims, "exp"),
    }, nil
}

// parseRS256 parses and validates a JWT, pinning the accepted algorithm to
// RS256 so tokens signed with any other method (including HMAC tokens keyed
// on the public key bytes) are rejected outright.
func parseRS256(raw string, pub any) (jwt.MapClaims, error) {
    parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
    tok, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return pub, nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return nil, ErrTokenExpired
        }
        return nil, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// claimUint64 extracts a numeric claim.  JSON numbers decode as float64;
// some issuers encode numeric strings, so both shapes are accepted.
func claimUint64(claims jwt.MapClaims, key string) (uint64, bool) {
    switch v := claims[key].(type) {
    case float64:
        if v < 0 {
            return 0, false
        }
        return uint64(v), true
    case string:
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return 0, false
        }
        return n, true
    }
    return 0, false
}

func claimTime(claims jwt.MapClaims, key string) time.Time {
    if v, ok := claims[key].(float64); ok {
        return time.Unix(int64(v), 0).UTC()
    }
    return time.Time{}
}

// HashToken returns the SHA-256 hash of a token string as a hex string.  The
// session store persists only hashes, so a leaked database dump does not
// yield usable bearer tokens.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
