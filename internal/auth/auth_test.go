package auth

import (
	"context"
	"testing"
	"time"

	"github.com/celerix-dev/certify-one/internal/engine"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T, slots engine.SlotStore, now func() time.Time) *Authenticator {
	t.Helper()
	a, err := New(context.Background(), slots, nil, Options{
		Secret: "test-secret",
		TTL:    time.Hour,
		Cost:   bcrypt.MinCost,
		Now:    now,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func fileSlots(t *testing.T) *engine.FileSlots {
	t.Helper()
	slots, err := engine.NewFileSlots(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSlots failed: %v", err)
	}
	return slots
}

func TestLogin_DemoAccounts(t *testing.T) {
	tests := []struct {
		username, secret string
		wantID           string
		wantRole         schema.Role
		wantName         string
	}{
		{"admin", "admin", "1", schema.RoleAdmin, "System Administrator"},
		{"employee", "employee", "2", schema.RoleEmployee, "John Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			a := newAuth(t, fileSlots(t), nil)
			token, user, err := a.Login(context.Background(), tt.username, tt.secret)
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			if token == "" {
				t.Fatal("Expected a token")
			}
			if user.ID != tt.wantID || user.Role != tt.wantRole || user.DisplayName() != tt.wantName {
				t.Errorf("Unexpected user: %+v", user)
			}
			if !a.IsAuthenticated() || a.Token() != token {
				t.Error("Login should set the current session")
			}
		})
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	a := newAuth(t, fileSlots(t), nil)
	ctx := context.Background()

	_, _, errUnknown := a.Login(ctx, "nobody", "admin")
	_, _, errWrong := a.Login(ctx, "admin", "wrong")
	_, _, errEmpty := a.Login(ctx, "", "")

	for _, err := range []error{errUnknown, errWrong, errEmpty} {
		if !errors.Is(err, pkgengine.ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("Failure messages differ: %q vs %q", errUnknown, errWrong)
	}
	if a.IsAuthenticated() {
		t.Error("Failed login must not authenticate")
	}
}

func TestLogin_WritesSlotsAndRestores(t *testing.T) {
	slots := fileSlots(t)
	ctx := context.Background()

	a := newAuth(t, slots, nil)
	token, _, err := a.Login(ctx, "employee", "employee")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	stored, err := slots.Load(ctx, pkgengine.SlotAuthToken)
	if err != nil || string(stored) != token {
		t.Fatalf("Token slot mismatch: %q, %v", stored, err)
	}

	restored := newAuth(t, slots, nil)
	user, ok := restored.Current()
	if !ok || user.Username != "employee" {
		t.Errorf("Session not restored: %+v, %v", user, ok)
	}

	if err := restored.Logout(ctx, ""); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if restored.IsAuthenticated() {
		t.Error("Logout should clear the current user")
	}
	for _, name := range []string{pkgengine.SlotAuthToken, pkgengine.SlotUserData} {
		if _, err := slots.Load(ctx, name); !errors.Is(err, pkgengine.ErrSlotNotFound) {
			t.Errorf("Slot %s should be removed, got %v", name, err)
		}
	}
}

func TestRestore_CorruptBlobClearsSession(t *testing.T) {
	slots := fileSlots(t)
	ctx := context.Background()
	slots.Save(ctx, pkgengine.SlotAuthToken, []byte("some-token"))
	slots.Save(ctx, pkgengine.SlotUserData, []byte("{broken"))

	a := newAuth(t, slots, nil)
	if a.IsAuthenticated() {
		t.Error("Corrupt session should not authenticate")
	}
	if _, err := slots.Load(ctx, pkgengine.SlotAuthToken); !errors.Is(err, pkgengine.ErrSlotNotFound) {
		t.Errorf("Token slot should be cleared, got %v", err)
	}
}

func TestRestore_NeedsBothSlots(t *testing.T) {
	slots := fileSlots(t)
	slots.Save(context.Background(), pkgengine.SlotUserData, []byte(`{"id":"1","username":"admin"}`))

	if newAuth(t, slots, nil).IsAuthenticated() {
		t.Error("A user blob without a token should not restore a session")
	}
}

func TestVerify(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	a := newAuth(t, fileSlots(t), clock)

	token, _, err := a.Login(context.Background(), "admin", "admin")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	user, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !user.IsAdmin() {
		t.Errorf("Expected admin, got %+v", user)
	}

	other, _ := New(context.Background(), fileSlots(t), nil, Options{Secret: "other", Cost: bcrypt.MinCost})
	tests := []struct {
		name  string
		auth  *Authenticator
		token string
	}{
		{"empty", a, ""},
		{"garbage", a, "not.a.jwt"},
		{"wrong secret", other, token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.auth.Verify(tt.token); !errors.Is(err, pkgengine.ErrUnauthorized) {
				t.Errorf("Expected ErrUnauthorized, got %v", err)
			}
		})
	}

	now = now.Add(2 * time.Hour)
	if _, err := a.Verify(token); !errors.Is(err, pkgengine.ErrUnauthorized) {
		t.Errorf("Expired token should be rejected, got %v", err)
	}
}

func TestLogout_RevokesTokens(t *testing.T) {
	ctx := context.Background()
	a := newAuth(t, fileSlots(t), nil)

	adminToken, _, err := a.Login(ctx, "admin", "admin")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	employeeToken, _, err := a.Login(ctx, "employee", "employee")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The admin token is no longer the current session but is passed explicitly.
	if err := a.Logout(ctx, adminToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	for name, token := range map[string]string{"admin": adminToken, "employee": employeeToken} {
		if _, err := a.Verify(token); !errors.Is(err, pkgengine.ErrUnauthorized) {
			t.Errorf("%s token should be revoked, got %v", name, err)
		}
	}

	fresh, _, err := a.Login(ctx, "admin", "admin")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := a.Verify(fresh); err != nil {
		t.Errorf("A new login should verify, got %v", err)
	}
}
