package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrTokenMalformed indicates the token is not a structurally valid JWT.
	ErrTokenMalformed = errors.New("token: malformed")
	// ErrSignatureInvalid indicates no configured key validates the signature.
	ErrSignatureInvalid = errors.New("token: signature invalid")
	// ErrTokenExpired indicates the token validated but its exp has passed.
	ErrTokenExpired = errors.New("token: expired")
	// ErrNoSigningKeys indicates the codec was built without key material.
	ErrNoSigningKeys = errors.New("token: no signing keys configured")
)

// SessionClaims is the claim set carried by every session token.
type SessionClaims struct {
	Kind  string `json:"knd"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionClaimsOptions configures creation of session token claims.
type SessionClaimsOptions struct {
	SubjectID string
	Kind      string
	Role      string
	Email     string
	Name      string
	Issuer    string
	TTL       time.Duration
	IssuedAt  time.Time
}

const defaultSessionTTL = 24 * time.Hour

// NewSessionClaims constructs standardized session claims with iat and exp set.
func NewSessionClaims(opts SessionClaimsOptions) (*SessionClaims, error) {
	subject := strings.TrimSpace(opts.SubjectID)
	if subject == "" {
		return nil, fmt.Errorf("token: subject id is required")
	}
	kind := strings.TrimSpace(opts.Kind)
	if kind == "" {
		return nil, fmt.Errorf("token: principal kind is required")
	}

	now := opts.IssuedAt
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &SessionClaims{
		Kind:  kind,
		Role:  strings.TrimSpace(opts.Role),
		Email: strings.TrimSpace(opts.Email),
		Name:  strings.TrimSpace(opts.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    strings.TrimSpace(opts.Issuer),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}, nil
}

// TokenCodec signs and verifies compact HMAC-SHA256 session tokens.
// Verification accepts an ordered list of candidate keys so historical
// signing secrets keep validating after rotation. The codec holds no
// mutable state and is safe for concurrent use.
type TokenCodec struct {
	keys [][]byte
}

// NewTokenCodec constructs a codec over the ordered candidate key list.
// The first key signs; every key verifies.
func NewTokenCodec(keys [][]byte) (*TokenCodec, error) {
	filtered := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if len(key) > 0 {
			filtered = append(filtered, key)
		}
	}
	if len(filtered) == 0 {
		return nil, ErrNoSigningKeys
	}
	return &TokenCodec{keys: filtered}, nil
}

// Sign encodes and signs the claims with the current key.
func (c *TokenCodec) Sign(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("token: claims required")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.keys[0])
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	return signed, nil
}

// Verify validates the raw token against each candidate key in order,
// stopping at the first key that validates both signature and expiry.
// The returned errors carry no information about which keys were tried.
func (c *TokenCodec) Verify(raw string) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	for _, key := range c.keys {
		claims := &SessionClaims{}
		parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		switch {
		case err == nil && parsed.Valid:
			return claims, nil
		case errors.Is(err, jwt.ErrTokenMalformed):
			// Structurally broken; no other key can fix that.
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			// Signature checked out for this key, only the expiry failed.
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			continue
		default:
			return nil, ErrTokenMalformed
		}
	}

	return nil, ErrSignatureInvalid
}
