package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskhub/pkg/message"
	"taskhub/pkg/notify"
	"taskhub/pkg/task"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// pageEnvelope flattens pagination fields to the top level, matching the
// list response contract.
type pageEnvelope struct {
	Success    bool        `json:"success"`
	Data       []task.Task `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, envelope{Success: true, Data: v})
}

func (s *Server) writePage(w http.ResponseWriter, p *task.Page) {
	writeJSON(w, http.StatusOK, pageEnvelope{
		Success:    true,
		Data:       p.Items,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	})
}

// writeFailure maps a domain error to its HTTP status. Unexpected errors are
// logged in full and answered with a generic message so internals never leak.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *task.ValidationError
		terr *task.TransitionError
		serr *task.StateError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &terr), errors.As(err, &serr),
		errors.Is(err, task.ErrNotFound),
		errors.Is(err, message.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, task.ErrUnavailable):
		writeJSON(w, statusFor(err), envelope{Success: false, Error: err.Error()})
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("unexpected error")
		writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Error: "internal server error"})
	}
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: msg})
}

func statusFor(err error) int {
	var (
		verr *task.ValidationError
		terr *task.TransitionError
		serr *task.StateError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrNotFound), errors.Is(err, message.ErrNotFound), errors.Is(err, notify.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &terr), errors.As(err, &serr):
		return http.StatusConflict
	case errors.Is(err, task.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
