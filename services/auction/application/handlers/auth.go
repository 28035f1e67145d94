package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ghuser/auctiondesk/pkg/auth"
	"github.com/ghuser/auctiondesk/pkg/httpx"
	"github.com/ghuser/auctiondesk/pkg/logger"
	pkgvalidator "github.com/ghuser/auctiondesk/pkg/validator"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
)

// CredentialsRequest is the request body for register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// OperatorResponse identifies the signed-in operator.
type OperatorResponse struct {
	Email string `json:"email"`
}

// AuthHandler handles the /auth endpoints.
type AuthHandler struct {
	svc      *appsvcs.Services
	sessions sessions.Store
	log      logger.Logger
}

// NewAuthHandler returns an AuthHandler backed by the given services.
func NewAuthHandler(svc *appsvcs.Services, store sessions.Store, log logger.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: store, log: log}
}

// Register creates an account for an approved email and signs the operator in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CredentialsRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.Operators.Register(r.Context(), req.Email, req.Password); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	if err := auth.SignIn(h.sessions, w, r, req.Email); err != nil {
		h.log.ErrorContext(r.Context(), "failed to start session after registration", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "registration succeeded but session could not be created")
		return
	}
	httpx.JSON(w, http.StatusCreated, OperatorResponse{Email: req.Email})
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CredentialsRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.Operators.Login(r.Context(), req.Email, req.Password); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	if err := auth.SignIn(h.sessions, w, r, req.Email); err != nil {
		h.log.ErrorContext(r.Context(), "failed to start session", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "session could not be created")
		return
	}
	httpx.JSON(w, http.StatusOK, OperatorResponse{Email: req.Email})
}

// Logout ends the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(h.sessions, w, r); err != nil {
		h.log.WarnContext(r.Context(), "failed to end session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in operator.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	email, err := auth.OperatorFromCtx(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, OperatorResponse{Email: email})
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrNotApproved):
		httpx.JSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		httpx.JSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrWeakPassword):
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "auth failure", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "authentication unavailable")
	}
}
