package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskhub/pkg/task"
)

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var verr task.ValidationError
	f := task.Filter{
		CategoryID: q.Get("categoryId"),
		ClientID:   q.Get("clientId"),
		TaskerID:   q.Get("taskerId"),
		Query:      q.Get("q"),
	}
	if v := q.Get("status"); v != "" {
		st := task.Status(v)
		if !st.Valid() {
			verr.Add("status", "unknown status "+strconv.Quote(v))
		}
		f.Status = st
	}
	if v := q.Get("priority"); v != "" {
		p := task.Priority(v)
		if !p.Valid() {
			verr.Add("priority", "unknown priority "+strconv.Quote(v))
		}
		f.Priority = p
	}
	if v := q.Get("isUrgent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			verr.Add("isUrgent", "must be true or false")
		}
		f.IsUrgent = &b
	}
	f.MinPrice = parseFloat(q.Get("minPrice"), "minPrice", &verr)
	f.MaxPrice = parseFloat(q.Get("maxPrice"), "maxPrice", &verr)

	p := task.PageRequest{
		Page:  parseInt(q.Get("page"), "page", &verr),
		Limit: parseInt(q.Get("limit"), "limit", &verr),
	}
	if len(verr.Fields) > 0 {
		s.writeFailure(w, r, &verr)
		return
	}

	page, err := s.tasks.List(r.Context(), f, p)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writePage(w, page)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var in task.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if err := task.ValidateInput(&in); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	t := task.NewFromInput(&in, s.calc.Fee(in.PriceGHS))
	created, err := s.tasks.Create(r.Context(), t)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusCreated, map[string]string{"taskId": created.ID})
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, t)
}

type updateRequest struct {
	Title           *string        `json:"title"`
	Description     *string        `json:"description"`
	ScheduledAt     *time.Time     `json:"scheduledAt"`
	DurationEstMins *int           `json:"durationEstMins"`
	PriceGHS        *float64       `json:"priceGHS"`
	Priority        *task.Priority `json:"priority"`
	IsUrgent        *bool          `json:"isUrgent"`
	Location        *string        `json:"location"`
	Status          *string        `json:"status"`
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	var verr task.ValidationError
	if req.Status != nil {
		// Status moves only through the guarded route.
		verr.Add("status", "status cannot be changed here; use POST /tasks/{id}/status")
	}
	if req.Title != nil && len(*req.Title) < 5 {
		verr.Add("title", "title must be at least 5 characters")
	}
	if req.Description != nil && len(*req.Description) < 20 {
		verr.Add("description", "description must be at least 20 characters")
	}
	if req.ScheduledAt != nil && !req.ScheduledAt.After(time.Now()) {
		verr.Add("scheduledAt", "scheduled time must be in the future")
	}
	if req.DurationEstMins != nil && *req.DurationEstMins < task.MinDurationMins {
		verr.Add("durationEstMins", "minimum duration is "+strconv.Itoa(task.MinDurationMins)+" minutes")
	}
	if req.PriceGHS != nil && *req.PriceGHS < task.MinPriceGHS {
		verr.Add("priceGHS", "minimum price is "+strconv.Itoa(task.MinPriceGHS)+" GHS")
	}
	if req.Priority != nil && !req.Priority.Valid() {
		verr.Add("priority", "unknown priority "+strconv.Quote(string(*req.Priority)))
	}
	if len(verr.Fields) > 0 {
		s.writeFailure(w, r, &verr)
		return
	}

	u := task.Update{
		Title:           req.Title,
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt,
		DurationEstMins: req.DurationEstMins,
		PriceGHS:        req.PriceGHS,
		Priority:        req.Priority,
		IsUrgent:        req.IsUrgent,
		Location:        req.Location,
	}
	if u == (task.Update{}) {
		s.badRequest(w, "no fields to update")
		return
	}
	if req.PriceGHS != nil {
		// The fee stays a pure function of the price.
		fee := s.calc.Fee(*req.PriceGHS)
		u.PlatformFeeGHS = &fee
	}

	t, err := s.tasks.Update(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, t)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status task.Status `json:"status"`
		Note   string      `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if !req.Status.Valid() {
		var verr task.ValidationError
		verr.Add("status", "unknown status "+strconv.Quote(string(req.Status)))
		s.writeFailure(w, r, &verr)
		return
	}

	t, err := s.tasks.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.Note)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, t)
}

func (s *Server) handleTaskAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskerID string `json:"taskerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.TaskerID == "" {
		var verr task.ValidationError
		verr.Add("taskerId", "taskerId is required")
		s.writeFailure(w, r, &verr)
		return
	}

	t, err := s.tasks.Assign(r.Context(), r.PathValue("id"), req.TaskerID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Server) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.tasks.History(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, entries)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriceGHS float64 `json:"priceGHS"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.PriceGHS < task.MinPriceGHS {
		var verr task.ValidationError
		verr.Add("priceGHS", "minimum price is "+strconv.Itoa(task.MinPriceGHS)+" GHS")
		s.writeFailure(w, r, &verr)
		return
	}
	s.writeData(w, http.StatusOK, s.calc.Quote(req.PriceGHS))
}

func parseInt(v, field string, verr *task.ValidationError) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		verr.Add(field, field+" must be an integer")
		return 0
	}
	if n == 0 {
		// zero means "unset" internally, so an explicit 0 is rejected here
		verr.Add(field, field+" must be at least 1")
	}
	return n
}

func parseFloat(v, field string, verr *task.ValidationError) float64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		verr.Add(field, field+" must be a number")
		return 0
	}
	return n
}
