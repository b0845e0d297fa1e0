package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"learnlens/internal/logger"
	"learnlens/internal/security"
	"learnlens/internal/service"
	"learnlens/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps a service error to its status. Unknown
// errors are logged and reported as internal.
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrKidNotFound),
		errors.Is(err, service.ErrActivityNotFound):
		respondWithError(w, log, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, log, http.StatusForbidden, "Forbidden", "", nil)
	case errors.Is(err, service.ErrInvalidCommand),
		errors.Is(err, validation.ErrInvalidEmail),
		errors.Is(err, validation.ErrPasswordTooShort),
		errors.Is(err, validation.ErrInvalidName),
		errors.Is(err, validation.ErrInvalidColor):
		respondWithError(w, log, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, log, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, log, http.StatusUnauthorized, err.Error(), "", nil)
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, security.ErrInvalidToken):
		respondWithError(w, log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a single JSON value of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
