package models

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/desertthunder/karaoke/internal/shared"
)

// MinNicknameLength is the shortest nickname a user may choose.
const MinNicknameLength = 3

// User is an account created on first sign-in. Name holds the display nickname.
type User struct {
	record
	email string
	name  string
}

// NewUser creates a [User] with the given sequence, email and display name.
func NewUser(sequence int, email, name string) *User {
	return &User{record: newRecord(sequence), email: email, name: name}
}

func (u *User) Email() string { return u.email }
func (u *User) Name() string  { return u.name }

// SetName replaces the display name.
func (u *User) SetName(name string) { u.name = name }

// Validate checks that the user has a well-formed email.
func (u *User) Validate() error {
	if strings.TrimSpace(u.email) == "" {
		return fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	if _, err := mail.ParseAddress(u.email); err != nil {
		return fmt.Errorf("%w: invalid email %q", shared.ErrValidation, u.email)
	}
	return nil
}

// ValidateNickname checks the nickname length rule.
func ValidateNickname(nickname string) error {
	if len([]rune(nickname)) < MinNicknameLength {
		return shared.ErrNicknameShort
	}
	return nil
}

// MarshalJSON renders the public profile of the user.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}{u.id, u.email, u.name, u.createdAt, u.updatedAt})
}
