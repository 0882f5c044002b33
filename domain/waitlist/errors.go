package waitlist

import (
	apperrors "github.com/akeren/atelier-waitlist/pkg/errors"
)

// Messages shown inline under the signup form. They are the only two error texts a visitor sees.
const (
	AlreadyRegisteredMessage = "You're already on the waitlist!"
	SubmissionFailedMessage  = "Something went wrong. Please try again."
)

var (
	// ErrAlreadyRegistered is returned by Join when the email already has a row.
	ErrAlreadyRegistered = apperrors.NewConflictError(AlreadyRegisteredMessage, nil)

	ErrEmptyEmail = apperrors.NewInvalidRequestError("email cannot be empty", nil)
)
