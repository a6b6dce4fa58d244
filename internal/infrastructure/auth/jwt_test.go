package authinfra

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	token, exp, err := issuer.Issue("ops")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if exp.IsZero() {
		t.Error("expected expiry")
	}

	claims, err := issuer.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken failed: %v", err)
	}
	if claims.Subject != "ops" || claims.ID == "" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestJWTIssuer_Rejects(t *testing.T) {
	t.Run("wrong_secret", func(t *testing.T) {
		token, _, _ := NewJWTIssuer("a", time.Hour).Issue("ops")
		if _, err := NewJWTIssuer("b", time.Hour).ParseAccessToken(token); err == nil {
			t.Error("expected signature error")
		}
	})

	t.Run("expired", func(t *testing.T) {
		issuer := NewJWTIssuer("secret", time.Minute)
		base := time.Now()
		issuer.now = func() time.Time { return base.Add(-time.Hour) }
		token, _, err := issuer.Issue("ops")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		issuer.now = func() time.Time { return base }
		if _, err := issuer.ParseAccessToken(token); !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("expected expired error, got %v", err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		issuer := NewJWTIssuer("", time.Hour)
		if _, _, err := issuer.Issue("ops"); !errors.Is(err, ErrDisabled) {
			t.Errorf("expected ErrDisabled, got %v", err)
		}
		if issuer.Enabled() {
			t.Error("expected disabled issuer")
		}
	})

	t.Run("empty_subject", func(t *testing.T) {
		if _, _, err := NewJWTIssuer("secret", 0).Issue("  "); err == nil {
			t.Error("expected subject error")
		}
	})
}
