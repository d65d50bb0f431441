package auth

import (
	"errors"
	"testing"
)

func testAccounts(t *testing.T) []Account {
	t.Helper()
	hash, err := HashPassword("cue-stack")
	if err != nil {
		t.Fatal(err)
	}
	return []Account{
		{Name: "desk", Role: RoleOperator, PasswordHash: hash},
		{Name: "foh-monitor", Role: RoleDisplay, PasswordHash: hash},
	}
}

func TestAuthenticate(t *testing.T) {
	a, err := NewAuthenticator(testAccounts(t))
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d", a.Len())
	}

	tests := []struct {
		name     string
		user     string
		password string
		wantRole Role
		wantErr  error
	}{
		{"operator", "desk", "cue-stack", RoleOperator, nil},
		{"display", "foh-monitor", "cue-stack", RoleDisplay, nil},
		{"wrong password", "desk", "wrong", "", ErrInvalidCredentials},
		{"unknown account", "ghost", "cue-stack", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := a.Authenticate(tt.user, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && acc.Role != tt.wantRole {
				t.Errorf("Role = %s, want %s", acc.Role, tt.wantRole)
			}
		})
	}
}

func TestAuthenticateCorruptHash(t *testing.T) {
	a, err := NewAuthenticator([]Account{{Name: "desk", Role: RoleOperator, PasswordHash: "plaintext"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Authenticate("desk", "x"); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidHash", err)
	}
}

func TestNewAuthenticatorRejects(t *testing.T) {
	tests := []struct {
		name     string
		accounts []Account
	}{
		{"missing name", []Account{{Role: RoleOperator, PasswordHash: "h"}}},
		{"missing hash", []Account{{Name: "desk", Role: RoleOperator}}},
		{"bad role", []Account{{Name: "desk", Role: "owner", PasswordHash: "h"}}},
		{"duplicate", []Account{
			{Name: "desk", Role: RoleOperator, PasswordHash: "h"},
			{Name: "desk", Role: RoleDisplay, PasswordHash: "h"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAuthenticator(tt.accounts); !errors.Is(err, ErrInvalidAccount) {
				t.Errorf("NewAuthenticator() error = %v, want ErrInvalidAccount", err)
			}
		})
	}
}
