package request

import (
	"time"

	"tasklist/internal/core/domain"
)

type SignUpRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest binds either an OAuth2 password form or a JSON body.
type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type TodoRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
	Order       int        `json:"order"`
}

type ListTodosQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

func (r SignUpRequest) ToRegistration() domain.Registration {
	return domain.Registration{
		Username:    r.Username,
		Password:    r.Password,
		PhoneNumber: r.PhoneNumber,
	}
}

func (r TodoRequest) ToFields() domain.TodoFields {
	return domain.TodoFields{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    domain.Priority(r.Priority),
		Category:    r.Category,
		DueDate:     r.DueDate,
		Order:       r.Order,
	}
}
