package auth

import (
	"fmt"
	"strings"

	"github.com/fatali-fataliyev/expense_manager/internal/validation"
)

const (
	MAX_LENGTH_NAME     = 255
	MAX_LENGTH_EMAIL    = 255
	MIN_PASSWORD_LENGTH = 6
	MAX_PASSWORD_LENGTH = 72
)

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailRegistered    = "Email already registered"
)

// SessionRecord is the identity cached under the currentUser key.
type SessionRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LocalUser is an entry of the local account list.
type LocalUser struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	PasswordHashed string `json:"passwordHash"`
}

func (u LocalUser) session() SessionRecord {
	return SessionRecord{ID: u.ID, Name: u.Name, Email: u.Email}
}

type NewUser struct {
	Name          string
	Email         string
	PasswordPlain string
}

type Credentials struct {
	Email         string
	PasswordPlain string
}

func (newUser NewUser) ValidateUserFields() error {
	errs := validation.Errors{}

	errs.Check(validation.Required(newUser.Name), "name", "Name is required")
	errs.Check(len(newUser.Name) <= MAX_LENGTH_NAME, "name", fmt.Sprintf("Name is too long, maximum length is %d", MAX_LENGTH_NAME))

	errs.Check(validation.Required(newUser.Email), "email", "Email is required")
	errs.Check(validation.Email(newUser.Email), "email", "Please enter a valid email")
	errs.Check(len(newUser.Email) <= MAX_LENGTH_EMAIL, "email", fmt.Sprintf("Email is too long, maximum length is %d", MAX_LENGTH_EMAIL))

	errs.Check(validation.Required(newUser.PasswordPlain), "password", "Password is required")
	errs.Check(validation.MinLength(newUser.PasswordPlain, MIN_PASSWORD_LENGTH), "password", fmt.Sprintf("Password must be at least %d characters", MIN_PASSWORD_LENGTH))
	errs.Check(len(newUser.PasswordPlain) <= MAX_PASSWORD_LENGTH, "password", fmt.Sprintf("Password is too long, maximum length is %d", MAX_PASSWORD_LENGTH))

	return errs.Err()
}

func (c Credentials) Validate() error {
	errs := validation.Errors{}
	errs.Check(validation.Required(c.Email), "email", "Email is required")
	errs.Check(validation.Email(c.Email), "email", "Please enter a valid email")
	errs.Check(validation.Required(c.PasswordPlain), "password", "Password is required")
	return errs.Err()
}

// nameFromEmail is the display name used when the provider has none.
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
