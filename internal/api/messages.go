package api

import (
	"encoding/json"
	"net/http"

	"taskhub/pkg/message"
	"taskhub/pkg/task"
)

func (s *Server) handleMessageList(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if _, err := s.tasks.Get(r.Context(), taskID); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	msgs, err := s.messages.ByTask(r.Context(), taskID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, msgs)
}

func (s *Server) handleMessageCreate(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")

	var req struct {
		SenderID string `json:"senderId"`
		Content  string `json:"content"`
		Type     string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	var verr task.ValidationError
	if req.SenderID == "" {
		verr.Add("senderId", "senderId is required")
	}
	if req.Content == "" {
		verr.Add("content", "content is required")
	}
	if len(verr.Fields) > 0 {
		s.writeFailure(w, r, &verr)
		return
	}

	if _, err := s.tasks.Get(r.Context(), taskID); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	m, err := s.messages.Create(r.Context(), &message.Message{
		TaskID:   taskID,
		SenderID: req.SenderID,
		Content:  req.Content,
		Type:     req.Type,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusCreated, m)
}

func (s *Server) handleMessageRead(w http.ResponseWriter, r *http.Request) {
	if err := s.messages.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
