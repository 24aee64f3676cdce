package user

import "errors"

// Domain errors for the user package.
var (
	// ErrUserNotFound is returned when a user ID does not exist.
	ErrUserNotFound = errors.New("user: not found")

	// ErrEmailExists is returned when another user already has the email.
	ErrEmailExists = errors.New("user: email already exists")

	// ErrInvalidName is returned when a user name is empty.
	ErrInvalidName = errors.New("user: invalid name")

	// ErrInvalidEmail is returned when an email is empty or malformed.
	ErrInvalidEmail = errors.New("user: invalid email")
)
