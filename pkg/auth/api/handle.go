package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/aigovpro/authcore/pkg/auth"
	"github.com/aigovpro/authcore/pkg/errors"
	"github.com/aigovpro/authcore/pkg/ratelimit"
)

const loginAction = "login"

// Handle exposes the credential endpoints over HTTP
type Handle struct {
	authService *auth.Service
	limiter     *ratelimit.Limiter
}

// HandleOption configures a Handle
type HandleOption func(*Handle)

// WithLimiter adds a persisted attempt limiter in front of the login
// endpoint, as defense in depth alongside the per-account lockout
func WithLimiter(limiter *ratelimit.Limiter) HandleOption {
	return func(h *Handle) {
		h.limiter = limiter
	}
}

func NewHandle(authService *auth.Service, opts ...HandleOption) *Handle {
	h := &Handle{
		authService: authService,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the auth routes
func (h *Handle) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/exists", h.Exists)
		r.Get("/locked", h.Locked)
	})
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	Organization string `json:"organization"`
	Role         string `json:"role,omitempty"`
}

type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Register handles the request to create a new credential record
func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	data := registerRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	user, err := h.authService.CreateUser(r.Context(), data.Email, data.Password, data.FullName, data.Organization, data.Role)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toUserResponse(user))
}

// Login handles the request to authenticate a credential
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	data := loginRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	if h.limiter != nil {
		allowed, msg, err := h.limiter.CheckRateLimit(r.Context(), data.Email, loginAction)
		if err != nil {
			renderError(w, r, errors.Internal(err))
			return
		}
		if !allowed {
			renderError(w, r, errors.New(errors.ErrCodeRateLimitExceeded, msg))
			return
		}
	}

	user, err := h.authService.Authenticate(r.Context(), data.Email, data.Password)
	if err != nil {
		if h.limiter != nil && errors.IsCode(err, errors.ErrCodeInvalidCredentials) {
			if _, lerr := h.limiter.RecordFailedAttempt(r.Context(), data.Email, loginAction); lerr != nil {
				slog.Error("Failed to record limiter attempt", "email", data.Email, "err", lerr)
			}
		}
		renderError(w, r, err)
		return
	}

	if h.limiter != nil {
		if lerr := h.limiter.ResetAttempts(r.Context(), data.Email, loginAction); lerr != nil {
			slog.Error("Failed to reset limiter attempts", "email", data.Email, "err", lerr)
		}
	}

	render.JSON(w, r, toUserResponse(user))
}

// Exists reports whether a credential record exists for the email query
// parameter. Registration forms use this to check availability up front.
func (h *Handle) Exists(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		renderError(w, r, errors.InvalidInput("email", "query parameter is required"))
		return
	}

	registered, err := h.authService.GetUser(r.Context(), email)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]bool{"registered": registered})
}

// Locked reports whether the account named by the email query parameter
// is currently locked out
func (h *Handle) Locked(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		renderError(w, r, errors.InvalidInput("email", "query parameter is required"))
		return
	}

	locked, err := h.authService.IsAccountLocked(r.Context(), email)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]bool{"locked": locked})
}

func toUserResponse(user auth.User) userResponse {
	return userResponse{
		ID:           user.ID.String(),
		Email:        user.Email,
		FullName:     user.FullName,
		Organization: user.Organization,
		Role:         user.Role,
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	render.Status(r, errors.MapErrorCodeToHTTPStatus(code))
	render.JSON(w, r, errorResponse{
		Code:    string(code),
		Message: errors.GetMessage(err),
	})
}
