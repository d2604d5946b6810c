package api

import (
	"net/http"

	"taskhub/pkg/task"
)

func (s *Server) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var verr task.ValidationError
	userID := q.Get("userId")
	if userID == "" {
		verr.Add("userId", "userId is required")
	}
	limit := parseInt(q.Get("limit"), "limit", &verr)
	if len(verr.Fields) > 0 {
		s.writeFailure(w, r, &verr)
		return
	}

	notes, err := s.notes.ByUser(r.Context(), userID, limit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	unread, err := s.notes.UnreadCount(r.Context(), userID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    notes,
		"unread":  unread,
	})
}

func (s *Server) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
