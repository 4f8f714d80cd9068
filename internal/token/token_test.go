package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"repair-tracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour, nil)
	p := models.Principal{UserID: 7, Role: models.RoleMaster}

	signed, expires, err := m.Issue(p)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("token already expired: %v", expires)
	}

	claims, err := m.Parse(context.Background(), signed)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.UserID != 7 || claims.Role != models.RoleMaster || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	m := NewManager("secret", time.Hour, nil)
	signed, _, _ := m.Issue(models.Principal{UserID: 1, Role: models.RoleAdmin})

	other := NewManager("other", time.Hour, nil)
	if _, err := other.Parse(context.Background(), signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for foreign secret, got %v", err)
	}

	expired := NewManager("secret", time.Hour, nil)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue(models.Principal{UserID: 1, Role: models.RoleAdmin})
	if _, err := m.Parse(context.Background(), old); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for expired token, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := m.Parse(context.Background(), unsigned); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unsigned token, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewManager("secret", time.Hour, NewMemoryBlacklist())
	signed, _, _ := m.Issue(models.Principal{UserID: 3, Role: models.RoleOperator})

	if err := m.Revoke(ctx, signed); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if _, err := m.Parse(ctx, signed); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}

	fresh, _, _ := m.Issue(models.Principal{UserID: 3, Role: models.RoleOperator})
	if _, err := m.Parse(ctx, fresh); err != nil {
		t.Fatalf("new token rejected: %v", err)
	}
}

func TestMemoryBlacklistExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewMemoryBlacklist()
	b.now = func() time.Time { return now }

	_ = b.Add(ctx, "a", time.Minute)
	if ok, _ := b.Contains(ctx, "a"); !ok {
		t.Fatalf("expected id in blacklist")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := b.Contains(ctx, "a"); ok {
		t.Fatalf("expected id to expire")
	}
}
