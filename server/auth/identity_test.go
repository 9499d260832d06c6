package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"eclipse/server/domain"
)

func TestJWTResolverRoundTrip(t *testing.T) {
	r := NewJWTResolver("dev-secret")
	profile := domain.Profile{ID: "u1", Username: "alice", SelectedFighterID: "fighter_3"}

	token, err := r.Issue(profile, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	got, err := r.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != profile {
		t.Errorf("profile = %+v, want %+v", got, profile)
	}
}

func TestJWTResolverRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTResolver("dev-secret")
	verifier := NewJWTResolver("other-secret")

	token, err := issuer.Issue(domain.Profile{ID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Resolve(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestJWTResolverRejectsExpiredToken(t *testing.T) {
	r := NewJWTResolver("dev-secret")

	token, err := r.Issue(domain.Profile{ID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := r.Resolve(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestJWTResolverRejectsGarbage(t *testing.T) {
	r := NewJWTResolver("dev-secret")

	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("empty: err = %v, want ErrMissingCredential", err)
	}
	if _, err := r.Resolve(context.Background(), "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v, want ErrInvalidToken", err)
	}
}

// websocketクライアント向けにヘッダーとクエリの両方を受け付けます。
func TestCredentialFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	if got := CredentialFromRequest(req); got != "" {
		t.Errorf("bare request: %q", got)
	}

	req = httptest.NewRequest("GET", "/ws?token=query-token", nil)
	if got := CredentialFromRequest(req); got != "query-token" {
		t.Errorf("query: %q", got)
	}

	req = httptest.NewRequest("GET", "/ws?token=query-token", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	if got := CredentialFromRequest(req); got != "header-token" {
		t.Errorf("header wins: %q", got)
	}
}
