package httpapi

import (
	"testing"
	"time"

	"nexostock/backend/internal/domain"
)

func TestLoginWithBootstrapCredential(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, "", "", "")

	resp, err := auth.Login(domain.LoginRequest{Email: "admin@stock.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("expected bootstrap login to succeed, got %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected signed token")
	}
	if resp.Operator.Role != "admin" {
		t.Fatalf("expected admin role, got %q", resp.Operator.Role)
	}
}

func TestLoginWithConfiguredOperator(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, "Owner@Tienda.com", "s3guro-pass", "Dueño")

	if _, err := auth.Login(domain.LoginRequest{Email: "admin@stock.com", Password: "admin123"}); err == nil {
		t.Fatalf("expected default credential to be rejected when operator is configured")
	}

	resp, err := auth.Login(domain.LoginRequest{Email: "owner@tienda.com", Password: "s3guro-pass"})
	if err != nil {
		t.Fatalf("expected configured login to succeed, got %v", err)
	}
	if resp.Operator.Name != "Dueño" {
		t.Fatalf("expected operator name Dueño, got %q", resp.Operator.Name)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, "", "", "")

	if _, err := auth.Login(domain.LoginRequest{Email: "admin@stock.com", Password: "nope"}); err == nil {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, "", "", "")

	resp, err := auth.Login(domain.LoginRequest{Email: "admin@stock.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	operator, err := auth.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if operator.Name != "Administrador" || operator.Role != "admin" {
		t.Fatalf("unexpected operator from token: %+v", operator)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthManager("issuer-secret-key", time.Hour, "", "", "")
	verifier := NewAuthManager("verifier-secret-key", time.Hour, "", "", "")

	resp, err := issuer.Login(domain.LoginRequest{Email: "admin@stock.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := verifier.ParseToken(resp.Token); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, "", "", "")

	if _, err := auth.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}
