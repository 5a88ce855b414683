package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bookclub/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type insufficientCoinsResponse struct {
	Error    string `json:"error"`
	Required int64  `json:"required"`
	Held     int64  `json:"held"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads an optional JSON body. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseID(r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	return id, err == nil
}

// writeServiceError maps the service error taxonomy onto HTTP statuses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound     *service.NotFoundError
		conflict     *service.ConflictError
		forbidden    *service.ForbiddenError
		insufficient *service.InsufficientCoinsError
		invalid      *service.ValidationError
	)

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Message)
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &forbidden):
		writeError(w, http.StatusForbidden, forbidden.Message)
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, insufficientCoinsResponse{
			Error:    insufficient.Error(),
			Required: insufficient.Required,
			Held:     insufficient.Held,
		})
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Message)
	default:
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
