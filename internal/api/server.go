// Package api exposes the task marketplace over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"taskhub/internal/config"
	"taskhub/pkg/message"
	"taskhub/pkg/notify"
	"taskhub/pkg/pricing"
	"taskhub/pkg/task"
)

// Server is the HTTP API server.
type Server struct {
	tasks    task.Store
	messages message.Store
	notes    notify.Store
	calc     pricing.Calculator
	log      *logrus.Logger
	mux      *http.ServeMux
}

// New creates a new Server.
func New(tasks task.Store, messages message.Store, notes notify.Store, calc pricing.Calculator, log *logrus.Logger) *Server {
	s := &Server{
		tasks:    tasks,
		messages: messages,
		notes:    notes,
		calc:     calc,
		log:      log,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(sw, r)
	s.log.WithFields(logrus.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   sw.status,
		"duration": time.Since(start).String(),
	}).Info("request")
}

func (s *Server) routes() {
	// Tasks
	s.mux.HandleFunc("GET /tasks", s.handleTaskList)
	s.mux.HandleFunc("POST /tasks", s.handleTaskCreate)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleTaskGet)
	s.mux.HandleFunc("PUT /tasks/{id}", s.handleTaskUpdate)
	s.mux.HandleFunc("DELETE /tasks/{id}", s.handleTaskDelete)
	s.mux.HandleFunc("POST /tasks/{id}/status", s.handleTaskStatus)
	s.mux.HandleFunc("POST /tasks/{id}/assign", s.handleTaskAssign)
	s.mux.HandleFunc("GET /tasks/{id}/history", s.handleTaskHistory)

	// Lifecycle metadata
	s.mux.HandleFunc("GET /statuses", s.handleStatuses)

	// Pricing
	s.mux.HandleFunc("POST /pricing/quote", s.handleQuote)

	// Messaging
	s.mux.HandleFunc("GET /tasks/{id}/messages", s.handleMessageList)
	s.mux.HandleFunc("POST /tasks/{id}/messages", s.handleMessageCreate)
	s.mux.HandleFunc("POST /messages/{id}/read", s.handleMessageRead)

	// Notifications
	s.mux.HandleFunc("GET /notifications", s.handleNotificationList)
	s.mux.HandleFunc("POST /notifications/{id}/read", s.handleNotificationRead)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"message":   "TaskHub API is running",
		"version":   config.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type statusInfo struct {
	Status      task.Status   `json:"status"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Next        []task.Status `json:"next"`
	Terminal    bool          `json:"terminal"`
}

func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request) {
	all := []task.Status{
		task.StatusCreated, task.StatusAssigned, task.StatusEnRoute, task.StatusOnSite,
		task.StatusInProgress, task.StatusCompleted, task.StatusDisputed, task.StatusCancelled,
	}
	infos := make([]statusInfo, len(all))
	for i, st := range all {
		infos[i] = statusInfo{
			Status:      st,
			Label:       st.Label(),
			Description: st.Describe(),
			Next:        st.AllowedNext(),
			Terminal:    st.IsTerminal(),
		}
	}
	s.writeData(w, http.StatusOK, infos)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
