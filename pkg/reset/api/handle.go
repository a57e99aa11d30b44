package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/aigovpro/authcore/pkg/errors"
	"github.com/aigovpro/authcore/pkg/reset"
)

// Handle exposes the password reset endpoints over HTTP
type Handle struct {
	resetService *reset.Service
}

func NewHandle(resetService *reset.Service) *Handle {
	return &Handle{
		resetService: resetService,
	}
}

// RegisterRoutes registers the reset routes
func (h *Handle) RegisterRoutes(r chi.Router) {
	r.Route("/password-reset", func(r chi.Router) {
		r.Post("/request", h.Request)
		r.Get("/verify", h.Verify)
		r.Post("/complete", h.Complete)
	})
}

type requestResetRequest struct {
	Email string `json:"email"`
}

type completeResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Request handles the request to issue a reset token. The token itself is
// only delivered over email; the response reports whether that delivery
// happened.
func (h *Handle) Request(w http.ResponseWriter, r *http.Request) {
	data := requestResetRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	_, sent, err := h.resetService.RequestReset(r.Context(), data.Email)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]bool{"email_sent": sent})
}

// Verify handles the request to check a token without consuming it
func (h *Handle) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		renderError(w, r, errors.InvalidInput("token", "query parameter is required"))
		return
	}

	email, err := h.resetService.VerifyResetToken(r.Context(), token)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"email": email})
}

// Complete handles the request to consume a token and set a new password
func (h *Handle) Complete(w http.ResponseWriter, r *http.Request) {
	data := completeResetRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "unable to parse body"))
		return
	}

	if err := h.resetService.ResetPassword(r.Context(), data.Token, data.Password); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "password updated"})
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	render.Status(r, errors.MapErrorCodeToHTTPStatus(code))
	render.JSON(w, r, errorResponse{
		Code:    string(code),
		Message: errors.GetMessage(err),
	})
}
