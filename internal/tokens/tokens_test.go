package tokens

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-32-bytes-should-be-long-enough"

func TestIssueAndRedeem(t *testing.T) {
	store := NewMemoryStore()
	iss := NewIssuer(testSecret, store)
	ctx := context.Background()

	raw, rec, err := iss.Issue(ctx, "user-123", PurposeNewsletter, "ada@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected stored record, got %d", store.Len())
	}

	// parse and validate claims
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token should be valid: %v", err)
	}
	c := parsed.Claims.(jwt.MapClaims)
	if c["sub"] != "user-123" || c["jti"] != rec.TokenID || c["purpose"] != PurposeNewsletter {
		t.Fatalf("unexpected claims: %v", c)
	}

	got, err := iss.Redeem(ctx, raw, PurposeNewsletter)
	if err != nil {
		t.Fatalf("Redeem error: %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}

	// one-time
	if _, err := iss.Redeem(ctx, raw, PurposeNewsletter); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second redemption should fail, got %v", err)
	}
}

func TestRedeemExpired(t *testing.T) {
	iss := NewIssuer(testSecret, NewMemoryStore())
	issued := time.Now()
	iss.now = func() time.Time { return issued }

	raw, _, err := iss.Issue(context.Background(), "u2", PurposeNewsletter, "")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	iss.now = func() time.Time { return issued.Add(DefaultTTL + time.Minute) }
	if _, err := iss.Redeem(context.Background(), raw, PurposeNewsletter); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry failure, got %v", err)
	}
}

func TestRedeemWrongPurpose(t *testing.T) {
	iss := NewIssuer(testSecret, NewMemoryStore())
	raw, _, _ := iss.Issue(context.Background(), "u3", PurposeNewsletter, "")
	if _, err := iss.Redeem(context.Background(), raw, "password-reset"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected purpose mismatch failure, got %v", err)
	}
}

func TestRedeemWrongSecretFails(t *testing.T) {
	store := NewMemoryStore()
	raw, _, _ := NewIssuer(testSecret, store).Issue(context.Background(), "u4", PurposeNewsletter, "")
	other := NewIssuer("different-secret-xxxxxxxxxxxxxxxx", store)
	if _, err := other.Redeem(context.Background(), raw, PurposeNewsletter); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}
}

// seg encodes one JWT segment (unpadded base64url).
func seg(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// Rejected when alg=none (unsigned token)
func TestRedeemAlgNoneRejected(t *testing.T) {
	headerEnc := seg([]byte(`{"alg":"none"}`))
	payloadEnc := seg([]byte(`{"sub":"u-none","jti":"x","purpose":"newsletter","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	if _, err := NewIssuer(testSecret, NewMemoryStore()).Redeem(context.Background(), tok, PurposeNewsletter); err == nil {
		t.Fatalf("expected alg=none token to be rejected")
	}
}

// Tampering with payload must fail signature verification
func TestRedeemTamperedPayload(t *testing.T) {
	iss := NewIssuer(testSecret, NewMemoryStore())
	raw, _, _ := iss.Issue(context.Background(), "user-t", PurposeNewsletter, "")
	parts := strings.Split(raw, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	parts[1] = seg([]byte(strings.Replace(string(payload), "user-t", "attacker", 1)))
	if _, err := iss.Redeem(context.Background(), strings.Join(parts, "."), PurposeNewsletter); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

func TestRevokeAllForUser(t *testing.T) {
	store := NewMemoryStore()
	iss := NewIssuer(testSecret, store)
	_, _, _ = iss.Issue(context.Background(), "u5", PurposeNewsletter, "")
	_, _, _ = iss.Issue(context.Background(), "u5", PurposeNewsletter, "")
	_, _, _ = iss.Issue(context.Background(), "u6", PurposeNewsletter, "")

	if err := iss.RevokeAllForUser(context.Background(), "u5"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 remaining token, got %d", store.Len())
	}
}
