package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	. "tasklist/internal/adapter/http/helper"
	"tasklist/internal/adapter/http/middleware"
	"tasklist/internal/core/domain"
	"tasklist/internal/core/model/request"
	"tasklist/internal/core/model/response"
	"tasklist/internal/core/port"
)

type TodoHandler struct {
	svc    port.TodoService
	logger *otelzap.Logger
}

func NewTodoHandler(svc port.TodoService, logger *otelzap.Logger) *TodoHandler {
	return &TodoHandler{
		svc:    svc,
		logger: logger,
	}
}

func currentOwner(c *gin.Context) (domain.User, bool) {
	user, ok := middleware.CurrentUser(c)

	if !ok {
		SendUnauthorizedError(c, "Not authenticated")
	}

	return user, ok
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)

	if err != nil {
		SendBadRequestError(c, "id", "id must be an integer")
		return 0, false
	}

	return id, true
}

func (t *TodoHandler) List(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}

	var query request.ListTodosQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		SendBadRequestError(c, "query", "skip and limit must be integers")
		return
	}

	todos, err := t.svc.List(c.Request.Context(), owner, query.Skip, query.Limit)

	if err != nil {
		sendError(c, t.logger, err, "list_todos")
		return
	}

	c.JSON(http.StatusOK, response.NewTodoListResponse(todos))
}

func (t *TodoHandler) Create(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}

	var params request.TodoRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequestError(c, "request", "Invalid request body")
		return
	}

	todo, err := t.svc.Create(c.Request.Context(), owner, params.ToFields())

	if err != nil {
		sendError(c, t.logger, err, "create_todo")
		return
	}

	c.JSON(http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) Update(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}

	id, ok := todoID(c)
	if !ok {
		return
	}

	var params request.TodoRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequestError(c, "request", "Invalid request body")
		return
	}

	todo, err := t.svc.Update(c.Request.Context(), owner, id, params.ToFields())

	if err != nil {
		sendError(c, t.logger, err, "update_todo")
		return
	}

	c.JSON(http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) Delete(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}

	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := t.svc.Delete(c.Request.Context(), owner, id); err != nil {
		sendError(c, t.logger, err, "delete_todo")
		return
	}

	c.JSON(http.StatusOK, response.DeleteResponse{OK: true})
}

func (t *TodoHandler) DeleteCompleted(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}

	count, err := t.svc.DeleteCompleted(c.Request.Context(), owner)

	if err != nil {
		sendError(c, t.logger, err, "delete_completed_todos")
		return
	}

	c.JSON(http.StatusOK, response.DeleteResponse{OK: true, Deleted: &count})
}
