package task

import (
	"context"
	"math"
	"time"
)

// Currency is the only currency the marketplace operates in.
const Currency = "GHS"

// Task is a single unit of service work posted by a client.
type Task struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ClientID        string    `json:"clientId"`
	TaskerID        *string   `json:"taskerId"`
	CategoryID      string    `json:"categoryId"`
	AddressID       string    `json:"addressId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationEstMins int       `json:"durationEstMins"`
	Status          Status    `json:"status"`
	Priority        Priority  `json:"priority"`
	IsUrgent        bool      `json:"isUrgent"`
	PriceGHS        float64   `json:"priceGHS"`
	PlatformFeeGHS  float64   `json:"platformFeeGHS"`
	Currency        string    `json:"currency"`
	Location        string    `json:"location,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Update holds optional field changes for an existing task. Nil fields are
// left untouched. Status is deliberately absent: status moves only through
// Store.UpdateStatus so the transition guard cannot be bypassed.
type Update struct {
	Title           *string
	Description     *string
	ScheduledAt     *time.Time
	DurationEstMins *int
	PriceGHS        *float64
	PlatformFeeGHS  *float64
	Priority        *Priority
	IsUrgent        *bool
	Location        *string
}

// HistoryEntry records one status movement on a task's audit trail.
type HistoryEntry struct {
	ID     string    `json:"id"`
	TaskID string    `json:"taskId"`
	From   Status    `json:"from,omitempty"`
	To     Status    `json:"to"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// Filter selects tasks; zero-valued fields are ignored. All provided fields
// must match.
type Filter struct {
	Status     Status
	CategoryID string
	ClientID   string
	TaskerID   string
	Query      string
	Priority   Priority
	IsUrgent   *bool
	MinPrice   float64
	MaxPrice   float64
}

// PageRequest is 1-based offset pagination input.
type PageRequest struct {
	Page  int
	Limit int
}

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// normalize applies defaults and the limit cap. Explicit non-positive values
// are rejected rather than silently producing empty or negative slices.
func (p PageRequest) normalize() (PageRequest, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	var verr ValidationError
	if p.Page < 1 {
		verr.Add("page", "page must be at least 1")
	}
	if p.Limit < 1 {
		verr.Add("limit", "limit must be at least 1")
	}
	if len(verr.Fields) > 0 {
		return PageRequest{}, &verr
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p, nil
}

// Page is one page of list results.
type Page struct {
	Items      []Task `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

func totalPages(total, limit int) int {
	return int(math.Ceil(float64(total) / float64(limit)))
}

// Store is the contract for task persistence. Implementations enforce the
// lifecycle guard on UpdateStatus and Assign, and the state guard on Delete,
// inside their own critical section so concurrent mutations cannot interleave
// a read-modify-write on the same record.
type Store interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, f Filter, p PageRequest) (*Page, error)
	Update(ctx context.Context, id string, u Update) (*Task, error)
	UpdateStatus(ctx context.Context, id string, next Status, note string) (*Task, error)
	Assign(ctx context.Context, id, taskerID string) (*Task, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]HistoryEntry, error)
	Count(ctx context.Context) (int, error)
	EnsureTable(ctx context.Context) error
}

// matches reports whether t satisfies every provided filter field.
func (f Filter) matches(t *Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.ClientID != "" && t.ClientID != f.ClientID {
		return false
	}
	if f.TaskerID != "" && (t.TaskerID == nil || *t.TaskerID != f.TaskerID) {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.IsUrgent != nil && t.IsUrgent != *f.IsUrgent {
		return false
	}
	if f.MinPrice > 0 && t.PriceGHS < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && t.PriceGHS > f.MaxPrice {
		return false
	}
	if f.Query != "" && !containsFold(t.Title, f.Query) && !containsFold(t.Description, f.Query) {
		return false
	}
	return true
}
