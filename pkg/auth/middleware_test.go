package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"

	"github.com/ghuser/auctiondesk/pkg/config"
	"github.com/ghuser/auctiondesk/pkg/logger"
)

// newTestStore returns a gorilla CookieStore (no Redis required) for unit tests.
// In production the RedisStore is used; the sessions.Store interface is identical.
func newTestStore() sessions.Store {
	return sessions.NewCookieStore(
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
	)
}

func newTestLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

// fakeApprovals is an in-memory allow-list for middleware tests.
type fakeApprovals struct {
	approved map[string]bool
	err      error
}

func (f *fakeApprovals) IsApproved(_ context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.approved[email], nil
}

func allow(emails ...string) *fakeApprovals {
	f := &fakeApprovals{approved: map[string]bool{}}
	for _, e := range emails {
		f.approved[e] = true
	}
	return f
}

// requestWithSession builds an *http.Request that carries a valid session
// cookie containing the given operator email.
func requestWithSession(t *testing.T, store sessions.Store, email string) *http.Request {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/items", nil)

	session, err := store.Get(r, SessionName)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	session.Values[sessionOperatorKey] = email
	if err := session.Save(r, w); err != nil {
		t.Fatalf("save session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRequireOperator_ValidSession(t *testing.T) {
	store := newTestStore()
	log := newTestLogger()

	var captured string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = OperatorFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	r := requestWithSession(t, store, "pat@example.org")
	w := httptest.NewRecorder()
	RequireOperator(store, allow("pat@example.org"), log)(next).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured != "pat@example.org" {
		t.Fatalf("expected operator in context, got %q", captured)
	}
}

func TestRequireOperator_MissingCookie(t *testing.T) {
	store := newTestStore()
	log := newTestLogger()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	w := httptest.NewRecorder()
	RequireOperator(store, allow(), log)(next).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireOperator_SessionWithoutOperator(t *testing.T) {
	store := newTestStore()
	log := newTestLogger()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	})

	writeReq := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	w1 := httptest.NewRecorder()
	session, _ := store.Get(writeReq, SessionName)
	// intentionally no operator value
	_ = session.Save(writeReq, w1)

	r := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	for _, c := range w1.Result().Cookies() {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	RequireOperator(store, allow("pat@example.org"), log)(next).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireOperator_RevokedApproval(t *testing.T) {
	store := newTestStore()
	log := newTestLogger()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	})

	// The session was issued while the operator was approved; the approval
	// has since been removed.
	r := requestWithSession(t, store, "pat@example.org")
	w := httptest.NewRecorder()
	RequireOperator(store, allow(), log)(next).ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("session cookie must be expired when approval is revoked")
	}
}

func TestRequireOperator_ApprovalLookupFailure(t *testing.T) {
	store := newTestStore()
	log := newTestLogger()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	})

	approvals := &fakeApprovals{err: errors.New("dial tcp: connection refused")}
	r := requestWithSession(t, store, "pat@example.org")
	w := httptest.NewRecorder()
	RequireOperator(store, approvals, log)(next).ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionName && c.MaxAge < 0 {
			t.Fatal("a transient lookup failure must not destroy the session")
		}
	}
}
