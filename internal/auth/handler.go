package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskloop/taskloop/internal/platform/httpx"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      gate,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
	r.Get("/verify-email/{token}", h.handleVerifyEmail)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Put("/reset-password/{token}", h.handleResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireUser)
		r.Post("/resend-verification", h.handleResendVerification)
		r.Get("/me", h.handleMe)
	})
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// userSummary is the outward user shape; the password hash never leaves the
// process.
type userSummary struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

func summarize(user *User, withCreatedAt bool) userSummary {
	s := userSummary{
		ID:              user.ID.String(),
		Name:            user.Name,
		Email:           user.Email,
		IsEmailVerified: user.IsEmailVerified,
	}
	if withCreatedAt {
		created := user.CreatedAt
		s.CreatedAt = &created
	}
	return s
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Please provide name, email and a password of at least 8 characters")
		return
	}

	result, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	message := "User registered successfully. Please check your email to verify your account."
	if !result.EmailSent {
		message = "User registered successfully. Email verification could not be sent."
	}
	httpx.OK(w, http.StatusCreated, httpx.Envelope{Message: message, Token: result.Token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.Fail(w, http.StatusBadRequest, "Please provide email and password")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		// A malformed email cannot match a stored account; reply exactly as a
		// failed lookup would to avoid a distinguishable response shape.
		httpx.Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, httpx.Envelope{Token: token, User: summarize(user, false)})
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		if errors.Is(err, ErrTokenInvalidOrExpired) {
			httpx.Fail(w, http.StatusBadRequest, "Invalid or expired verification token")
			return
		}
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, httpx.Envelope{Message: "Email verified successfully"})
}

func (h *Handler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.service.ResendVerification(r.Context(), user); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, httpx.Envelope{Message: "Verification email sent"})
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Please provide an email address")
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, httpx.Envelope{Message: "Password reset email sent"})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Please provide a password of at least 8 characters")
		return
	}
	token, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		if errors.Is(err, ErrTokenInvalidOrExpired) {
			httpx.Fail(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, httpx.Envelope{Message: "Password reset successful", Token: token})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	httpx.OK(w, http.StatusOK, httpx.Envelope{User: summarize(user, true)})
}

// respondError translates flow errors to a fixed status and message. The
// conflated cases (invalid credentials, invalid-or-expired token) stay
// conflated on purpose.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		httpx.Fail(w, http.StatusBadRequest, "User already exists with this email")
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Fail(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, ErrTokenInvalidOrExpired):
		httpx.Fail(w, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, ErrAlreadyVerified):
		httpx.Fail(w, http.StatusBadRequest, "Email is already verified")
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "No user found with this email")
	case errors.Is(err, ErrEmailDispatch):
		httpx.Fail(w, http.StatusInternalServerError, "Email could not be sent")
	default:
		h.logger.Error("auth flow failed", slog.Any("error", err))
		httpx.Internal(w)
	}
}
