package domain

import "time"

type User struct {
	ID           int64
	Username     string
	PhoneNumber  *string
	PasswordHash string
	CreatedAt    time.Time
}

// Registration is the input accepted when creating an account.
type Registration struct {
	Username    string `validate:"required,min=2,max=50,username"`
	Password    string `validate:"required,min=6,max=72"`
	PhoneNumber string `validate:"required,mobile"`
}

func (u *User) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}

	return *u.PhoneNumber
}
