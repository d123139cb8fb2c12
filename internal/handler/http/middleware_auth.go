package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/service"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
)

const bearerScheme = "Bearer"

// auth resolves the bearer token to a user id and stores it with
// [utils.WithUserID]. Every document path the handlers build is scoped to it.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		raw, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			log.Warn().Err(err).Msg("rejected request without usable token")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		token, err := h.services.AuthService.ParseToken(r.Context(), raw)
		switch {
		case errors.Is(err, service.ErrTokenIsExpired):
			log.Warn().Err(err).Msg("token expired")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		case err != nil:
			log.Warn().Err(err).Msg("token rejected")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithUserID(r.Context(), token.UserID)))
	})
}

// bearerToken returns the token of a "Bearer <token>" header. The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrEmptyAuthorizationHeader
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return "", ErrInvalidAuthorizationHeader
	}
	if !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrUnsupportedAuthScheme
	}
	return strings.TrimSpace(token), nil
}
