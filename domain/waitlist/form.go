package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/akeren/atelier-waitlist/internal/log"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const successNotice = "Thanks for joining the waitlist! We'll be in touch soon."

// FormState is a snapshot of the signup form as the page renders it.
type FormState struct {
	Email         string `json:"email"`
	Status        Status `json:"status"`
	ErrorMessage  string `json:"error_message,omitempty"`
	CanSubmit     bool   `json:"can_submit"`
	InputDisabled bool   `json:"input_disabled"`
	ButtonLabel   string `json:"button_label"`
	Notice        string `json:"notice,omitempty"`
}

// Form drives one signup form from keystroke to confirmed or failed signup.
//
// A submission moves the form idle/error -> loading -> success|error. While loading or after
// success, Submit is a no-op, so submissions never overlap. Success is soft-terminal: the email
// can still be edited but the form will not submit again.
type Form struct {
	service WaitlistService
	logger  *log.Logger

	mu           sync.Mutex
	email        string
	status       Status
	errorMessage string
	lastErr      error
}

func NewForm(service WaitlistService, logger *log.Logger) *Form {
	return &Form{
		service: service,
		logger:  logger,
		status:  StatusIdle,
	}
}

// UpdateEmail sets the field value. Surrounding whitespace is dropped the way an email input does.
func (f *Form) UpdateEmail(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.email = strings.TrimSpace(value)
}

func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.canSubmitLocked()
}

func (f *Form) canSubmitLocked() bool {
	return f.email != "" && f.status != StatusLoading && f.status != StatusSuccess
}

func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stateLocked()
}

// Err returns the error behind the current error state, or nil.
func (f *Form) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastErr
}

// Submit runs one signup attempt and returns the resulting state. It returns the current state
// untouched when the form cannot submit.
func (f *Form) Submit(ctx context.Context) FormState {
	f.mu.Lock()
	if !f.canSubmitLocked() {
		state := f.stateLocked()
		f.mu.Unlock()
		return state
	}

	f.status = StatusLoading
	f.errorMessage = ""
	f.lastErr = nil
	email := f.email
	f.mu.Unlock()

	err := f.join(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastErr = err

	switch {
	case err == nil:
		f.status = StatusSuccess
		f.email = ""
	case errors.Is(err, ErrAlreadyRegistered):
		f.status = StatusError
		f.errorMessage = AlreadyRegisteredMessage
	default:
		log.GetLoggerInstanceFromContext(ctx, f.logger).Error("Waitlist submission failed", "error", err)
		f.status = StatusError
		f.errorMessage = SubmissionFailedMessage
	}

	return f.stateLocked()
}

func (f *Form) join(ctx context.Context, email string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("waitlist: submission panicked: %v", r)
		}
	}()

	return f.service.Join(ctx, email)
}

func (f *Form) stateLocked() FormState {
	state := FormState{
		Email:         f.email,
		Status:        f.status,
		ErrorMessage:  f.errorMessage,
		CanSubmit:     f.canSubmitLocked(),
		InputDisabled: f.status == StatusLoading || f.status == StatusSuccess,
		ButtonLabel:   "Get early access",
	}

	switch f.status {
	case StatusLoading:
		state.ButtonLabel = "Adding..."
	case StatusSuccess:
		state.ButtonLabel = "Added!"
		state.Notice = successNotice
	}

	return state
}
