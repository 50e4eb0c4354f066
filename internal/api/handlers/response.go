// Package handlers maps HTTP requests onto the service layer.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dom/worknest/internal/auth"
	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

const retryMessage = "something went wrong, please try again"

type errorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

// WriteError maps err onto a status code and an {"error": ...} body.
// Storage and unexpected failures are logged and answered with a generic
// message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("request failed")
	}
	WriteErrorMessage(w, status, message)
}

func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "file exceeds the maximum attachment size"
	case errors.Is(err, domain.ErrValidation):
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return http.StatusBadRequest, verr.Error()
		}
		return http.StatusBadRequest, trimKind(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, trimKind(err, domain.ErrUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, trimKind(err, domain.ErrForbidden)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, trimKind(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, trimKind(err, domain.ErrConflict)
	case errors.Is(err, domain.ErrOverloaded), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "server is busy, please try again"
	default:
		return http.StatusInternalServerError, retryMessage
	}
}

// trimKind turns "not found: ticket 123" into "ticket 123", keeping the bare
// kind when there is nothing more specific.
func trimKind(err, kind error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok && rest != "" {
		return rest
	}
	return msg
}

// decodeJSON reads a bounded JSON body into v. Enum and field errors raised
// while decoding keep their validation message.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation):
		return err
	case errors.Is(err, io.EOF):
		return domain.Invalid("body", "request body is required")
	default:
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return domain.Invalid("body", "request body too large")
		}
		return domain.Invalid("body", "invalid JSON")
	}
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.Invalid(name, "must be a valid id")
	}
	return id, nil
}

// caller returns the authenticated identity. The auth middleware guarantees
// one on protected routes.
func caller(r *http.Request) (auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, auth.ErrTokenInvalid
	}
	return identity, nil
}
