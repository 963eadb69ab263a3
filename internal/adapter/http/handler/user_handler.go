package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	. "tasklist/internal/adapter/http/helper"
	"tasklist/internal/adapter/http/middleware"
	"tasklist/internal/core/model/response"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

func (u *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)

	if !ok {
		SendUnauthorizedError(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, response.NewUserResponse(user))
}
