package user

import (
	"fmt"
	"strings"
)

// User is a person registered with the system.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks the fields a caller supplies on create and update.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrInvalidName
	}
	at := strings.IndexByte(u.Email, '@')
	if at <= 0 || at == len(u.Email)-1 {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, u.Email)
	}
	return nil
}
