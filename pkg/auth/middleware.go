package auth

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ghuser/auctiondesk/pkg/httpx"
	"github.com/ghuser/auctiondesk/pkg/logger"
)

const sessionOperatorKey = "operator_email"

// Approvals is the allow-list lookup consulted on every authenticated
// request. *Operators satisfies it.
type Approvals interface {
	IsApproved(ctx context.Context, email string) (bool, error)
}

// RequireOperator is a chi middleware that enforces authentication via
// session cookies. It reads the session cookie, extracts the operator email,
// re-checks the approval list, and injects the email into the request
// context. Returns 401 Unauthorized if the session is missing, invalid, or
// carries no operator. An operator whose approval was revoked gets 403 and
// the session is destroyed, so a revocation takes effect on the very next
// request instead of at the next login.
//
// After this middleware, handlers can safely call auth.OperatorFromCtx(r.Context()).
func RequireOperator(store sessions.Store, approvals Approvals, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, SessionName)
			if err != nil {
				log.WarnContext(r.Context(), "invalid session cookie", "error", err)
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}

			email, ok := session.Values[sessionOperatorKey].(string)
			if !ok || email == "" {
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}

			approved, err := approvals.IsApproved(r.Context(), email)
			if err != nil {
				// A transient lookup failure must not destroy live sessions.
				log.ErrorContext(r.Context(), "approval check failed", "email", email, "error", err)
				httpx.JSON(w, http.StatusInternalServerError, map[string]string{"error": "authorization check failed"})
				return
			}
			if !approved {
				log.WarnContext(r.Context(), "session terminated: operator no longer approved", "email", email)
				if err := SignOut(store, w, r); err != nil {
					log.WarnContext(r.Context(), "failed to destroy session", "error", err)
				}
				httpx.JSON(w, http.StatusForbidden, map[string]string{"error": "access denied: email not approved"})
				return
			}

			ctx := WithOperator(r.Context(), email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignIn binds the operator's email to the request's session and writes the
// session cookie.
func SignIn(store sessions.Store, w http.ResponseWriter, r *http.Request, email string) error {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return err
	}
	session.Values[sessionOperatorKey] = email
	return session.Save(r, w)
}

// SignOut deletes the session and expires the cookie. Safe to call without a
// live session.
func SignOut(store sessions.Store, w http.ResponseWriter, r *http.Request) error {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return err
	}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
