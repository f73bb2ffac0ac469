package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/andhikafr19/eo-app/internal/service"
	"github.com/andhikafr19/eo-app/pkg/auth"
	"github.com/andhikafr19/eo-app/pkg/config"
	"github.com/andhikafr19/eo-app/pkg/logger"
)

type claimsKey struct{}

type Handlers struct {
	authService   service.AuthService
	ticketService service.TicketService
	scanService   service.ScanService
	attendance    service.AttendanceQuery
	config        *config.Config
}

func New(
	authService service.AuthService,
	ticketService service.TicketService,
	scanService service.ScanService,
	attendance service.AttendanceQuery,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:   authService,
		ticketService: ticketService,
		scanService:   scanService,
		attendance:    attendance,
		config:        config,
	}
}

// RequireJWT gates a route on a valid staff token with the given role.
// Organizers pass every gate.
func (h *Handlers) RequireJWT(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Missing or invalid authorization header", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != "organizer" {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), logger.StaffIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey{}).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
