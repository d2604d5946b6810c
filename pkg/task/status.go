package task

import "strings"

// Status is a task lifecycle state.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusAssigned   Status = "ASSIGNED"
	StatusEnRoute    Status = "EN_ROUTE"
	StatusOnSite     Status = "ON_SITE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusDisputed   Status = "DISPUTED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the single source of truth for the lifecycle. Stores consult
// it inside their mutation critical sections; it is never advisory.
var transitions = map[Status][]Status{
	StatusCreated:    {StatusAssigned},
	StatusAssigned:   {StatusEnRoute, StatusCancelled},
	StatusEnRoute:    {StatusOnSite, StatusCancelled},
	StatusOnSite:     {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusDisputed},
	StatusDisputed:   {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether s -> next is a permitted lifecycle edge.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from s in one transition.
func (s Status) AllowedNext() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether s has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Label returns a short display name for s.
func (s Status) Label() string {
	switch s {
	case StatusCreated:
		return "Posted"
	case StatusAssigned:
		return "Assigned"
	case StatusEnRoute:
		return "En Route"
	case StatusOnSite:
		return "On Site"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusDisputed:
		return "Disputed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// Describe returns a one-line description of what s means for the parties.
func (s Status) Describe() string {
	switch s {
	case StatusCreated:
		return "Task is posted and waiting for a tasker"
	case StatusAssigned:
		return "A tasker has accepted the task"
	case StatusEnRoute:
		return "Tasker is on the way"
	case StatusOnSite:
		return "Tasker has arrived at the location"
	case StatusInProgress:
		return "Work is underway"
	case StatusCompleted:
		return "Task is done"
	case StatusDisputed:
		return "The outcome is under dispute"
	case StatusCancelled:
		return "Task was cancelled"
	default:
		return ""
	}
}

// Priority is the client's urgency classification.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// DefaultPriority applies when a creation request omits priority.
const DefaultPriority = PriorityMedium

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Categories of work the marketplace offers.
const (
	CategoryCleaning     = "CLEANING"
	CategoryMaintenance  = "MAINTENANCE"
	CategoryDelivery     = "DELIVERY"
	CategoryTransport    = "TRANSPORT"
	CategoryConsultation = "CONSULTATION"
	CategoryOther        = "OTHER"
)

// ValidCategory reports whether id names a known category.
func ValidCategory(id string) bool {
	switch id {
	case CategoryCleaning, CategoryMaintenance, CategoryDelivery,
		CategoryTransport, CategoryConsultation, CategoryOther:
		return true
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
