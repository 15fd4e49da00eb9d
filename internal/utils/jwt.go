package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/sha256" // SHA-256 digests of one-time link tokens
    "encoding/hex"  // hex encoding of digests
    "errors"        // sentinel for malformed claims
    "fmt"           // wrapping parse errors
    "time"          // expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string sent in the Authorization header.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is what an access token says about its bearer.
type Claims struct {
    UserID   uint64    // sub
    IsAdmin  bool      // adm
    Name     string    // display name used in audit lines
    IssuedAt time.Time // iat, compared against session revocation
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The token
// carries the user id (sub), the admin flag (adm), the display name, the
// issue time and the expiration.
func NewAccessToken(secret string, c Claims, ttlMin int) (AccessToken, error) {
    now := c.IssuedAt
    if now.IsZero() {
        now = time.Now().UTC()
    }
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  c.UserID,
        "adm":  c.IsAdmin,
        "name": c.Name,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

var errBadClaims = errors.New("malformed token claims")

// ParseAccessToken verifies the signature and expiry of raw and returns its
// claims.  Only HS256 is accepted.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return Claims{}, fmt.Errorf("parse token: %w", err)
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, errBadClaims
    }
    // numbers decode as float64 from JSON
    sub, ok := mc["sub"].(float64)
    if !ok || sub <= 0 {
        return Claims{}, errBadClaims
    }
    c := Claims{UserID: uint64(sub)}
    c.IsAdmin, _ = mc["adm"].(bool)
    c.Name, _ = mc["name"].(string)
    if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
        c.IssuedAt = iat.Time.UTC()
    }
    return c, nil
}

// HashToken returns the SHA-256 hash of a raw one-time link token as a hex
// string.  Only the hash is stored, so a leaked table cannot be replayed.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
