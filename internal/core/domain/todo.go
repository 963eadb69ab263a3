package domain

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

const DefaultCategory = ""

type Todo struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool
	Priority    Priority
	Category    string
	CreatedAt   time.Time
	DueDate     *time.Time
	Order       int
	OwnerID     int64
}

// TodoFields holds every field a caller may set on a todo. Updates replace
// all of them at once.
type TodoFields struct {
	Title       string  `validate:"required,max=255"`
	Description *string `validate:"omitempty,max=500"`
	Completed   bool
	Priority    Priority `validate:"omitempty,oneof=high medium low"`
	Category    string   `validate:"max=50"`
	DueDate     *time.Time
	Order       int
}

// Normalize fills defaults for fields left empty by the caller.
func (f TodoFields) Normalize() TodoFields {
	f.Title = strings.TrimSpace(f.Title)

	if f.Priority == "" {
		f.Priority = PriorityMedium
	}

	if f.DueDate != nil {
		due := f.DueDate.UTC()
		f.DueDate = &due
	}

	return f
}

// Apply overwrites the mutable fields of the todo. Owner, id and creation
// time are left untouched.
func (t *Todo) Apply(f TodoFields) {
	t.Title = f.Title
	t.Description = f.Description
	t.Completed = f.Completed
	t.Priority = f.Priority
	t.Category = f.Category
	t.DueDate = f.DueDate
	t.Order = f.Order
}

func (t *Todo) BelongsTo(userID int64) bool {
	return t.OwnerID == userID
}
