package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ghuser/auctiondesk/pkg/logger"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var (
	// ErrNotApproved means the email is not on the approved-operator list.
	ErrNotApproved = errors.New("email not approved for operator access")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike,
	// so responses do not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken means an operator account already exists for the email.
	ErrEmailTaken = errors.New("account already exists for this email")
	// ErrWeakPassword means the password fails the length requirement.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// OperatorStore persists operator accounts and the approval list.
type OperatorStore interface {
	// CreateOperator stores a new account. Returns ErrEmailTaken on conflict.
	CreateOperator(ctx context.Context, email, passwordHash string) error
	// FindPasswordHash returns the stored bcrypt hash for email.
	// Returns ErrInvalidCredentials when no account exists.
	FindPasswordHash(ctx context.Context, email string) (string, error)
	// IsApproved reports whether email is on the approval list. When the
	// list has never been provisioned the gate fails open: every email is
	// approved until the table exists.
	IsApproved(ctx context.Context, email string) (bool, error)
}

// Operators implements registration and login on top of an OperatorStore.
type Operators struct {
	store OperatorStore
	log   logger.Logger
}

// NewOperators returns an Operators service.
func NewOperators(store OperatorStore, log logger.Logger) *Operators {
	return &Operators{store: store, log: log}
}

// Register creates an operator account for an approved email.
func (o *Operators) Register(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	approved, err := o.store.IsApproved(ctx, email)
	if err != nil {
		return fmt.Errorf("check approval: %w", err)
	}
	if !approved {
		o.log.WarnContext(ctx, "registration rejected: email not approved", "email", email)
		return ErrNotApproved
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := o.store.CreateOperator(ctx, email, string(hash)); err != nil {
		return err
	}
	o.log.InfoContext(ctx, "operator registered", "email", email)
	return nil
}

// Login verifies credentials, then re-checks the approval list so a revoked
// email cannot sign in. Approval is only consulted after the password
// matches; an unauthenticated caller cannot probe the allow-list with
// guessed emails.
func (o *Operators) Login(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ErrInvalidCredentials
	}

	hash, err := o.store.FindPasswordHash(ctx, email)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	approved, err := o.store.IsApproved(ctx, email)
	if err != nil {
		return fmt.Errorf("check approval: %w", err)
	}
	if !approved {
		return ErrNotApproved
	}
	return nil
}

// IsApproved reports whether email is still on the approval list. The
// session middleware calls this on every request, so a revocation locks an
// operator out without waiting for the session to expire.
func (o *Operators) IsApproved(ctx context.Context, email string) (bool, error) {
	return o.store.IsApproved(ctx, normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
