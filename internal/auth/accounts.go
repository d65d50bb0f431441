package auth

import (
	"fmt"
	"sync"
)

// Authenticator checks account credentials.
type Authenticator struct {
	accounts map[string]Account

	// dummyHash is verified for unknown names so lookups take as long as
	// real password checks.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator validates and indexes accounts by name.
//
// Returns ErrInvalidAccount for a duplicate name, an unknown role or a
// missing password hash.
func NewAuthenticator(accounts []Account) (*Authenticator, error) {
	a := &Authenticator{accounts: make(map[string]Account, len(accounts))}
	for _, acc := range accounts {
		if acc.Name == "" || acc.PasswordHash == "" {
			return nil, fmt.Errorf("%w: %q needs a name and password hash", ErrInvalidAccount, acc.Name)
		}
		if !IsValidRole(acc.Role) {
			return nil, fmt.Errorf("%w: %q has unknown role %q", ErrInvalidAccount, acc.Name, acc.Role)
		}
		if _, dup := a.accounts[acc.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidAccount, acc.Name)
		}
		a.accounts[acc.Name] = acc
	}
	return a, nil
}

// Len returns the number of accounts.
func (a *Authenticator) Len() int {
	return len(a.accounts)
}

// Authenticate returns the account whose name and password match.
//
// Returns ErrInvalidCredentials for an unknown name or a wrong password.
func (a *Authenticator) Authenticate(name, password string) (*Account, error) {
	acc, ok := a.accounts[name]
	if !ok {
		VerifyPassword(password, a.dummy()) //nolint:errcheck // timing equalisation only
		return nil, ErrInvalidCredentials
	}

	match, err := VerifyPassword(password, acc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying %q: %w", name, err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return &acc, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = HashPassword("screener-dummy-password") //nolint:errcheck // failure only loses timing equalisation
	})
	return a.dummyHash
}
