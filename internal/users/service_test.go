package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/KunalSingh5431/smartPDF/internal/shared/auth"
)

func newTestService(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	auth.Configure("test-secret", time.Hour)
	t.Cleanup(func() { auth.Configure("", 0) })
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.Cost = bcrypt.MinCost
	svc.Now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, " Ada ", "Ada@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" || user.Name != "Ada" || user.PasswordHash == "secret1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	stored, err := repo.GetByID(ctx, user.ID)
	if err != nil || stored.PasswordHash == "" {
		t.Fatalf("expected stored hash, got %+v err=%v", stored, err)
	}

	token, got, err := svc.Login(ctx, "ADA@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
	claims, err := auth.VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != user.ID || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name, email, password string
	}{
		{"", "a@example.com", "secret1"},
		{"Ada", "", "secret1"},
		{"Ada", "not-an-email", "secret1"},
		{"Ada", "a@example.com", "123"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.name, tc.email, tc.password); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Register(%q,%q): expected ErrInvalidInput, got %v", tc.name, tc.email, err)
		}
	}

	if _, err := svc.Register(ctx, "Ada", "a@example.com", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "Other", "A@EXAMPLE.COM", "secret1"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Update(ctx, "someone-else", user.ID, UpdateInput{Name: "X"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := svc.Update(ctx, user.ID, user.ID, UpdateInput{Name: "Ada Lovelace"})
	if err != nil {
		t.Fatalf("Update name: %v", err)
	}
	if updated.Name != "Ada Lovelace" || updated.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %+v", updated)
	}

	if _, err := svc.Update(ctx, user.ID, user.ID, UpdateInput{NewPassword: "newsecret", CurrentPassword: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Update(ctx, user.ID, user.ID, UpdateInput{NewPassword: "newsecret", CurrentPassword: "secret1"}); err != nil {
		t.Fatalf("Update password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ada@example.com", "newsecret"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func TestUpsertGoogle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertGoogle(ctx, "g-1", "grace@example.com", "Grace")
	if err != nil {
		t.Fatalf("UpsertGoogle create: %v", err)
	}
	if created.GoogleSub != "g-1" || created.PasswordHash != "" {
		t.Fatalf("unexpected user: %+v", created)
	}
	again, err := svc.UpsertGoogle(ctx, "g-1", "Grace@example.com", "Grace")
	if err != nil || again.ID != created.ID {
		t.Fatalf("expected same user, got %+v err=%v", again, err)
	}

	// A password account is linked rather than duplicated.
	ada, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	linked, err := svc.UpsertGoogle(ctx, "g-2", "ada@example.com", "Ada")
	if err != nil {
		t.Fatalf("UpsertGoogle link: %v", err)
	}
	if linked.ID != ada.ID {
		t.Fatalf("expected link to %s, got %s", ada.ID, linked.ID)
	}
	stored, _ := repo.GetByID(ctx, ada.ID)
	if stored.GoogleSub != "g-2" || stored.PasswordHash == "" {
		t.Fatalf("unexpected stored user: %+v", stored)
	}

	// Password login is refused for Google-only accounts.
	if _, _, err := svc.Login(ctx, "grace@example.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
