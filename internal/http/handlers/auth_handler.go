package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/http/response"
	"github.com/andhikafr19/eo-app/pkg/logger"
)

// Login handles POST /v1/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	res, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid email or password")
			return
		}
		logger.ErrorContext(r.Context(), "Login failed", "error", err)
		response.InternalError(w, "Unexpected error during login")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
