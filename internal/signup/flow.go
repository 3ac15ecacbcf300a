// Package signup implements the caller-side sign-up state machine: issue a
// verification code for a pending registration, collect the 6-digit code,
// verify it (which provisions the account) and hand off to sign-in.
package signup

import (
	"context"
	"errors"
	"sync"

	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
	"github.com/ejehcaleb2/ease-home-find/internal/service"
)

// State identifies where the flow is.
type State int

const (
	// StateIdle: collecting credentials, nothing issued yet.
	StateIdle State = iota
	// StateAwaitingCode: a code has been issued, waiting for the user to
	// type it in.
	StateAwaitingCode
	// StateResending: a resend request is in flight.
	StateResending
	// StateVerifying: a verify request is in flight.
	StateVerifying
	// StateSucceeded: the account exists; terminal, the caller proceeds to
	// sign-in.
	StateSucceeded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateResending:
		return "resending"
	case StateVerifying:
		return "verifying"
	case StateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// CodeLength is the number of digits the user has to enter.
const CodeLength = 6

var (
	// ErrInvalidTransition is returned for actions not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("action not allowed in current state")
	// ErrBusy is returned when another request from this flow is still in
	// flight; it is what makes double-clicks harmless.
	ErrBusy = errors.New("another request is in flight")
	// ErrCodeIncomplete is returned when Verify is attempted with fewer
	// than 6 digits entered.
	ErrCodeIncomplete = errors.New("enter the 6-digit code first")
	// ErrCodeNotDigits is returned when the entered code contains
	// non-digit characters.
	ErrCodeNotDigits = errors.New("code must contain digits only")
)

// PendingRegistration is the ephemeral sign-up input. It lives only inside
// the flow until verification provisions the account; it is never stored
// server-side before that.
type PendingRegistration struct {
	Email    string
	Password string
	FullName string
}

// Issuer issues verification codes. *service.OTPService satisfies it.
type Issuer interface {
	IssueCode(ctx context.Context, email string) (*service.IssueResult, error)
}

// Verifier verifies codes and provisions accounts. *service.OTPService
// satisfies it.
type Verifier interface {
	VerifyCode(ctx context.Context, in service.VerifyInput) (*entity.User, error)
}

// Flow drives one user's sign-up. All methods are safe for concurrent use;
// at most one issue/resend/verify call is in flight at a time.
type Flow struct {
	issuer   Issuer
	verifier Verifier

	mu    sync.Mutex
	state State
	busy  bool
	reg   PendingRegistration
	code  string
}

// NewFlow creates an idle flow.
func NewFlow(issuer Issuer, verifier Verifier) *Flow {
	return &Flow{issuer: issuer, verifier: verifier, state: StateIdle}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// EnteredCode returns the digits entered so far.
func (f *Flow) EnteredCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

// CanVerify reports whether the verify action is enabled: awaiting a code
// with exactly 6 digits entered.
func (f *Flow) CanVerify() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateAwaitingCode && !f.busy && len(f.code) == CodeLength
}

// Start submits the pending registration and requests the first code. On
// issuance success the flow moves to AwaitingCode; on failure it stays Idle
// and the registration is kept so the user can retry.
func (f *Flow) Start(ctx context.Context, reg PendingRegistration) (*service.IssueResult, error) {
	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if f.busy {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.busy = true
	f.reg = reg
	f.mu.Unlock()

	res, err := f.issuer.IssueCode(ctx, reg.Email)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		return res, err
	}
	f.state = StateAwaitingCode
	f.code = ""
	return res, nil
}

// EnterCode records the user's code input. Only digits are accepted and
// input beyond 6 digits is rejected.
func (f *Flow) EnterCode(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAwaitingCode {
		return ErrInvalidTransition
	}
	if len(code) > CodeLength {
		return ErrCodeIncomplete
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrCodeNotDigits
		}
	}
	f.code = code
	return nil
}

// Resend requests a fresh code. Earlier codes stay valid until they expire
// or are consumed. A resend already in flight rejects further resends.
func (f *Flow) Resend(ctx context.Context) (*service.IssueResult, error) {
	f.mu.Lock()
	if f.state == StateResending {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	if f.state != StateAwaitingCode || f.busy {
		f.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	f.state = StateResending
	f.busy = true
	email := f.reg.Email
	f.mu.Unlock()

	res, err := f.issuer.IssueCode(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.state = StateAwaitingCode
	return res, err
}

// Verify submits the entered code. Success is terminal; failure clears the
// code box and returns to AwaitingCode.
func (f *Flow) Verify(ctx context.Context) (*entity.User, error) {
	f.mu.Lock()
	if f.state == StateVerifying {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	if f.state != StateAwaitingCode || f.busy {
		f.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if len(f.code) != CodeLength {
		f.mu.Unlock()
		return nil, ErrCodeIncomplete
	}
	f.state = StateVerifying
	f.busy = true
	in := service.VerifyInput{
		Email:    f.reg.Email,
		Code:     f.code,
		Password: f.reg.Password,
		FullName: f.reg.FullName,
	}
	f.mu.Unlock()

	user, err := f.verifier.VerifyCode(ctx, in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		f.state = StateAwaitingCode
		f.code = ""
		return nil, err
	}
	f.state = StateSucceeded
	return user, nil
}

// Back abandons code entry and discards the pending registration. Issued
// rows are not revoked; they expire on their own.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAwaitingCode || f.busy {
		return ErrInvalidTransition
	}
	f.state = StateIdle
	f.reg = PendingRegistration{}
	f.code = ""
	return nil
}
