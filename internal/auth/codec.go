package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the fields carried by a signed token. Subject is the
// principal's username; Role (access tokens only) is the role authority,
// embedded so short-lived authorization decisions need no database hit.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Codec mints and parses signed tokens. All methods are pure functions
// over the configured secret and are safe for unbounded concurrent use.
type Codec struct {
	secret []byte
	keyID  string
	parser *jwt.Parser
}

// minCodecSecretLen is the minimum signing secret length in bytes (256 bits).
const minCodecSecretLen = 32

// NewCodec creates a token codec over a shared HMAC-SHA-256 secret.
//
// keyID is stamped into each token header as "kid" so a future secret
// rotation can route verification by key without invalidating every
// outstanding token at the same instant.
func NewCodec(secret, keyID string) (*Codec, error) {
	if len(secret) < minCodecSecretLen {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", minCodecSecretLen)
	}
	return &Codec{
		secret: []byte(secret),
		keyID:  keyID,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			// Expiry is judged separately by TemporallyValid so that
			// parsing and temporal validation stay distinct operations.
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue mints a signed token of the given kind for the subject.
//
// Claims always include sub, iat, and exp (now + ttl). extra claims are
// merged in; access tokens carry the principal's role authority under
// "role". Returns the compact token and its expiry instant.
func (c *Codec) Issue(kind TokenKind, subject string, extra map[string]any, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("issuing %s token: ttl must be positive", kind)
	}

	now := time.Now()
	expiry := now.Add(ttl)

	// jti keeps two tokens minted within the same second distinct, which
	// the ledger's unique hash index depends on.
	claims := jwt.MapClaims{
		"sub": subject,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": expiry.Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if c.keyID != "" {
		token.Header["kid"] = c.keyID
	}

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, expiry, nil
}

// Parse verifies a token's signature and decodes its claims without
// judging expiry. Failures map onto ErrTokenMalformed and
// ErrTokenSignatureInvalid.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	token, err := c.parser.ParseWithClaims(tokenString, &Claims{}, c.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %w", ErrTokenSignatureInvalid, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}

	return claims, nil
}

// Validate parses a token and additionally checks its temporal validity,
// returning ErrTokenExpired for a structurally valid but expired token.
func (c *Codec) Validate(tokenString string) (*Claims, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if !TemporallyValid(claims, time.Now()) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// keyFunc returns the signing secret, rejecting tokens whose kid header
// names a different key than the one this codec holds.
func (c *Codec) keyFunc(token *jwt.Token) (any, error) {
	if kid, ok := token.Header["kid"].(string); ok && c.keyID != "" && kid != c.keyID {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return c.secret, nil
}

// TemporallyValid reports whether claims are valid at the given instant:
// now < exp, exclusive at the boundary. A token presented exactly at its
// expiry instant is already invalid. Claims without an expiry are invalid.
func TemporallyValid(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	return now.Before(claims.ExpiresAt.Time)
}

// HashToken computes the SHA-256 hash of a raw token string for ledger
// storage. Raw tokens are never stored — only their hashes.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
