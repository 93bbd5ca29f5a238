package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	user := &domain.User{ID: 42, Role: domain.UserRoleAdmin}

	token, err := tm.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token.SubjectID != 42 || token.Role != domain.UserRoleAdmin {
		t.Errorf("unexpected token metadata %+v", token)
	}

	claims, err := tm.ParseToken(token.Value)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != 42 || claims.Role != domain.UserRoleAdmin || claims.Subject != "42" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	issuer := NewTokenManager("secret", 1)
	token, err := issuer.GenerateToken(&domain.User{ID: 7, Role: domain.UserRoleUser})
	if err != nil {
		t.Fatal(err)
	}

	other := NewTokenManager("another-secret", 1)
	if _, err := other.ParseToken(token.Value); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}

	later := NewTokenManager("secret", 1)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := later.ParseToken(token.Value); err == nil {
		t.Error("expired token must be rejected")
	}

	if _, err := issuer.ParseToken("not-a-jwt"); err == nil {
		t.Error("garbage must be rejected")
	}
}
