package task

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Input is a task creation request.
type Input struct {
	Title           string    `json:"title" validate:"required,min=5"`
	Description     string    `json:"description" validate:"required,min=20"`
	ClientID        string    `json:"clientId" validate:"required"`
	CategoryID      string    `json:"categoryId" validate:"required,category"`
	AddressID       string    `json:"addressId" validate:"required"`
	ScheduledAt     time.Time `json:"scheduledAt" validate:"required,future"`
	DurationEstMins int       `json:"durationEstMins" validate:"required,min=15"`
	PriceGHS        float64   `json:"priceGHS" validate:"required,min=10"`
	Priority        Priority  `json:"priority" validate:"omitempty,priority"`
	IsUrgent        bool      `json:"isUrgent"`
	Location        string    `json:"location"`
}

// MinPriceGHS is the lowest price a task may be posted at.
const MinPriceGHS = 10

// MinDurationMins is the shortest duration estimate a task may carry.
const MinDurationMins = 15

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.After(time.Now())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return ValidCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return Priority(fl.Field().String()).Valid()
	})
	return v
}

// ValidateInput checks every constraint on in and returns a ValidationError
// listing all violations, or nil when in is acceptable.
func ValidateInput(in *Input) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	ferrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var verr ValidationError
	for _, fe := range ferrs {
		verr.Add(fe.Field(), messageFor(fe))
	}
	return &verr
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "future":
		return "scheduled time must be in the future"
	case "category":
		return fmt.Sprintf("unknown category %q", fe.Value())
	case "priority":
		return fmt.Sprintf("unknown priority %q", fe.Value())
	case "min":
		switch fe.Field() {
		case "title":
			return "title must be at least 5 characters"
		case "description":
			return "description must be at least 20 characters"
		case "durationEstMins":
			return fmt.Sprintf("minimum duration is %d minutes", MinDurationMins)
		case "priceGHS":
			return fmt.Sprintf("minimum price is %d GHS", MinPriceGHS)
		}
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// NewFromInput builds an unsaved Task from a validated creation request.
// The platform fee is supplied by the caller so the fee formula lives in
// exactly one place.
func NewFromInput(in *Input, platformFee float64) *Task {
	priority := in.Priority
	if priority == "" {
		priority = DefaultPriority
	}
	return &Task{
		Title:           in.Title,
		Description:     in.Description,
		ClientID:        in.ClientID,
		CategoryID:      in.CategoryID,
		AddressID:       in.AddressID,
		ScheduledAt:     in.ScheduledAt,
		DurationEstMins: in.DurationEstMins,
		Priority:        priority,
		IsUrgent:        in.IsUrgent,
		PriceGHS:        in.PriceGHS,
		PlatformFeeGHS:  platformFee,
		Currency:        Currency,
		Location:        in.Location,
	}
}
