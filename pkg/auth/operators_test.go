package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// fakeOperatorStore keeps accounts and the approval list in memory.
// approveAll mimics a deployment whose approval table was never provisioned.
type fakeOperatorStore struct {
	accounts   map[string]string
	approved   map[string]bool
	approveAll bool
}

func newFakeOperatorStore() *fakeOperatorStore {
	return &fakeOperatorStore{
		accounts: map[string]string{},
		approved: map[string]bool{},
	}
}

func (s *fakeOperatorStore) CreateOperator(_ context.Context, email, hash string) error {
	if _, ok := s.accounts[email]; ok {
		return ErrEmailTaken
	}
	s.accounts[email] = hash
	return nil
}

func (s *fakeOperatorStore) FindPasswordHash(_ context.Context, email string) (string, error) {
	hash, ok := s.accounts[email]
	if !ok {
		return "", ErrInvalidCredentials
	}
	return hash, nil
}

func (s *fakeOperatorStore) IsApproved(_ context.Context, email string) (bool, error) {
	if s.approveAll {
		return true, nil
	}
	return s.approved[email], nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("approved email registers", func(t *testing.T) {
		store := newFakeOperatorStore()
		store.approved["pat@example.org"] = true
		ops := NewOperators(store, newTestLogger())

		if err := ops.Register(ctx, "Pat@Example.org ", "long-enough-pw"); err != nil {
			t.Fatalf("Register: %v", err)
		}
		hash, ok := store.accounts["pat@example.org"]
		if !ok {
			t.Fatal("account not created under normalized email")
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte("long-enough-pw")) != nil {
			t.Fatal("stored hash does not match password")
		}
	})

	t.Run("unapproved email rejected", func(t *testing.T) {
		ops := NewOperators(newFakeOperatorStore(), newTestLogger())
		if err := ops.Register(ctx, "stranger@example.org", "long-enough-pw"); !errors.Is(err, ErrNotApproved) {
			t.Fatalf("err = %v, want ErrNotApproved", err)
		}
	})

	t.Run("unprovisioned approval list fails open", func(t *testing.T) {
		store := newFakeOperatorStore()
		store.approveAll = true
		ops := NewOperators(store, newTestLogger())
		if err := ops.Register(ctx, "first@example.org", "long-enough-pw"); err != nil {
			t.Fatalf("Register with open gate: %v", err)
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		store := newFakeOperatorStore()
		store.approved["pat@example.org"] = true
		ops := NewOperators(store, newTestLogger())
		if err := ops.Register(ctx, "pat@example.org", "short"); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("err = %v, want ErrWeakPassword", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		store := newFakeOperatorStore()
		store.approved["pat@example.org"] = true
		ops := NewOperators(store, newTestLogger())
		if err := ops.Register(ctx, "pat@example.org", "long-enough-pw"); err != nil {
			t.Fatalf("first register: %v", err)
		}
		if err := ops.Register(ctx, "pat@example.org", "long-enough-pw"); !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("err = %v, want ErrEmailTaken", err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Operators, *fakeOperatorStore) {
		t.Helper()
		store := newFakeOperatorStore()
		store.approved["pat@example.org"] = true
		ops := NewOperators(store, newTestLogger())
		if err := ops.Register(ctx, "pat@example.org", "long-enough-pw"); err != nil {
			t.Fatalf("register: %v", err)
		}
		return ops, store
	}

	t.Run("valid credentials", func(t *testing.T) {
		ops, _ := setup(t)
		if err := ops.Login(ctx, "pat@example.org", "long-enough-pw"); err != nil {
			t.Fatalf("Login: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ops, _ := setup(t)
		if err := ops.Login(ctx, "pat@example.org", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		ops, store := setup(t)
		store.approved["ghost@example.org"] = true
		if err := ops.Login(ctx, "ghost@example.org", "long-enough-pw"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("revoked approval locks out", func(t *testing.T) {
		ops, store := setup(t)
		delete(store.approved, "pat@example.org")
		if err := ops.Login(ctx, "pat@example.org", "long-enough-pw"); !errors.Is(err, ErrNotApproved) {
			t.Fatalf("err = %v, want ErrNotApproved", err)
		}
	})

	t.Run("wrong password does not reveal approval state", func(t *testing.T) {
		ops, store := setup(t)
		delete(store.approved, "pat@example.org")
		// Approval is only consulted after the password matches, so this must
		// look like any other bad credential, not a 403.
		if err := ops.Login(ctx, "pat@example.org", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestIsApproved(t *testing.T) {
	ctx := context.Background()
	store := newFakeOperatorStore()
	store.approved["pat@example.org"] = true
	ops := NewOperators(store, newTestLogger())

	if ok, err := ops.IsApproved(ctx, " Pat@Example.org "); err != nil || !ok {
		t.Fatalf("IsApproved = %v, %v; want true under the normalized email", ok, err)
	}
	delete(store.approved, "pat@example.org")
	if ok, _ := ops.IsApproved(ctx, "pat@example.org"); ok {
		t.Fatal("IsApproved must reflect a revocation immediately")
	}
}
