package factory

import (
	"fmt"
	"math/rand/v2"
	"time"

	fab "github.com/Goldziher/fabricator"

	"tasklist/internal/core/domain"
)

// NewTodo builds a pending medium priority todo. OwnerID should always be
// passed in customData.
func NewTodo[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	defaults := map[string]any{
		"ID":          int64(0),
		"Title":       fmt.Sprintf("todo %d", rand.IntN(1_000_000)),
		"Description": (*string)(nil),
		"Completed":   false,
		"Priority":    domain.PriorityMedium,
		"Category":    domain.DefaultCategory,
		"CreatedAt":   time.Now().UTC(),
		"DueDate":     (*time.Time)(nil),
		"Order":       0,
	}

	return instance.Build(append([]map[string]any{defaults}, customData...)...)
}
