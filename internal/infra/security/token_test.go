package security

import (
	"errors"
	"testing"
	"time"
)

func testClaims(t *testing.T, ttl time.Duration) *SessionClaims {
	t.Helper()

	claims, err := NewSessionClaims(SessionClaimsOptions{
		SubjectID: "acc-42",
		Kind:      "admin",
		Role:      "editor",
		Email:     "editor@dealership.example",
		Name:      "Edith",
		Issuer:    "dealership-gateway",
		TTL:       ttl,
		IssuedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to build claims: %v", err)
	}
	return claims
}

func TestTokenCodecRoundTripEveryKey(t *testing.T) {
	keys := [][]byte{
		[]byte("current-secret"),
		[]byte("legacy-secret-2023"),
		[]byte("legacy-secret-2021"),
	}

	verifier, err := NewTokenCodec(keys)
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	// Tokens signed with any historical key must keep validating.
	for i, key := range keys {
		signer, err := NewTokenCodec([][]byte{key})
		if err != nil {
			t.Fatalf("failed to build signer %d: %v", i, err)
		}

		claims := testClaims(t, time.Hour)
		token, err := signer.Sign(claims)
		if err != nil {
			t.Fatalf("failed to sign with key %d: %v", i, err)
		}

		got, err := verifier.Verify(token)
		if err != nil {
			t.Fatalf("expected key %d to verify, got %v", i, err)
		}

		if got.Subject != claims.Subject {
			t.Fatalf("subject changed in round trip: %q != %q", got.Subject, claims.Subject)
		}
		if got.Kind != claims.Kind || got.Role != claims.Role || got.Email != claims.Email {
			t.Fatalf("claims changed in round trip: %+v != %+v", got, claims)
		}
	}
}

func TestTokenCodecExpiredBeatsKeyOrder(t *testing.T) {
	codec, err := NewTokenCodec([][]byte{[]byte("current"), []byte("legacy")})
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	claims, err := NewSessionClaims(SessionClaimsOptions{
		SubjectID: "acc-42",
		Kind:      "admin",
		Role:      "editor",
		TTL:       time.Hour,
		IssuedAt:  time.Now().UTC().Add(-2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to build claims: %v", err)
	}

	token, err := codec.Sign(claims)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenCodecUnknownKey(t *testing.T) {
	signer, err := NewTokenCodec([][]byte{[]byte("rogue-secret")})
	if err != nil {
		t.Fatalf("failed to build signer: %v", err)
	}

	verifier, err := NewTokenCodec([][]byte{[]byte("current"), []byte("legacy")})
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}

	token, err := signer.Sign(testClaims(t, time.Hour))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestTokenCodecMalformed(t *testing.T) {
	codec, err := NewTokenCodec([][]byte{[]byte("current")})
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", raw, err)
		}
	}
}

func TestNewTokenCodecRequiresKeys(t *testing.T) {
	if _, err := NewTokenCodec(nil); !errors.Is(err, ErrNoSigningKeys) {
		t.Fatalf("expected ErrNoSigningKeys, got %v", err)
	}
	if _, err := NewTokenCodec([][]byte{nil, {}}); !errors.Is(err, ErrNoSigningKeys) {
		t.Fatalf("expected ErrNoSigningKeys for empty keys, got %v", err)
	}
}
