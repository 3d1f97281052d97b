package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/shoebox/backoffice/internal/authz"
)

// Credential is one entry of the fixed login table. This table is a separate
// population from the user directory: the two are matched by email at login
// time but never reconciled.
type Credential struct {
	Email        string
	PasswordHash string
	Name         string
	Role         authz.CoarseRole
}

// CredentialTable holds login credentials keyed by lowercased email.
type CredentialTable struct {
	byEmail map[string]Credential
}

// NewCredentialTable builds a table from the given entries.
func NewCredentialTable(entries []Credential) *CredentialTable {
	byEmail := make(map[string]Credential, len(entries))
	for _, entry := range entries {
		byEmail[strings.ToLower(entry.Email)] = entry
	}
	return &CredentialTable{byEmail: byEmail}
}

// Lookup finds a credential by email, case-insensitively.
func (t *CredentialTable) Lookup(email string) (Credential, bool) {
	cred, ok := t.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return cred, ok
}

// DemoCredentials returns the built-in back office accounts. Passwords are
// hashed at construction; the plaintext values exist only for local seeding.
func DemoCredentials() []Credential {
	return []Credential{
		{Email: "admin@shoebox.com", PasswordHash: mustHash("admin123"), Name: "Admin User", Role: authz.RoleAdmin},
		{Email: "staff@shoebox.com", PasswordHash: mustHash("staff123"), Name: "Staff User", Role: authz.RoleStaff},
	}
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}
