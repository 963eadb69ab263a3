package response

import (
	"time"

	"tasklist/internal/core/domain"
)

type UserResponse struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	PhoneNumber *string `json:"phone_number"`
}

type TodoResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date"`
	Order       int        `json:"order"`
	OwnerID     int64      `json:"owner_id"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type DeleteResponse struct {
	OK      bool   `json:"ok"`
	Deleted *int64 `json:"deleted,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}

func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
	}
}

func NewTodoResponse(t domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		Category:    t.Category,
		CreatedAt:   t.CreatedAt,
		DueDate:     t.DueDate,
		Order:       t.Order,
		OwnerID:     t.OwnerID,
	}
}

func NewTodoListResponse(todos []domain.Todo) []TodoResponse {
	list := make([]TodoResponse, 0, len(todos))

	for _, t := range todos {
		list = append(list, NewTodoResponse(t))
	}

	return list
}
