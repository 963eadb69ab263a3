package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	. "tasklist/internal/adapter/http/helper"
	"tasklist/internal/core/model/request"
	"tasklist/internal/core/model/response"
	"tasklist/internal/core/port"
)

type AuthHandler struct {
	svc    port.AuthService
	logger *otelzap.Logger
}

func NewAuthHandler(svc port.AuthService, logger *otelzap.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

func (a *AuthHandler) Register(c *gin.Context) {
	var params request.SignUpRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequestError(c, "request", "Invalid request body")
		return
	}

	user, err := a.svc.Register(c.Request.Context(), params.ToRegistration())

	if err != nil {
		sendError(c, a.logger, err, "register")
		return
	}

	c.JSON(http.StatusOK, response.NewUserResponse(user))
}

// Login accepts an OAuth2 password form or the same fields as JSON.
func (a *AuthHandler) Login(c *gin.Context) {
	var params request.LoginRequest

	if err := c.ShouldBind(&params); err != nil {
		SendBadRequestError(c, "request", "username and password are required")
		return
	}

	token, err := a.svc.Login(c.Request.Context(), params.Username, params.Password)

	if err != nil {
		sendError(c, a.logger, err, "login")
		return
	}

	c.JSON(http.StatusOK, response.TokenResponse{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
	})
}
