package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jansmig/magmamath/pkg/models"
)

// UserService is the domain service behind the user endpoints.
type UserService interface {
	CreateUser(ctx context.Context, name, email string) (models.User, error)
	FindOne(ctx context.Context, id string) (models.User, error)
	FindMany(ctx context.Context, page, limit int) (models.PaginatedUsers, error)
	UpdateOne(ctx context.Context, id string, req models.UpdateUserRequest) (models.User, error)
	RemoveOne(ctx context.Context, id string) (models.User, error)
}

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	Users UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{Users: svc}
}

// CreateUser godoc
// @Summary      Create a new user
// @Description  Creates a user and publishes a user.created event
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateUserRequest  true  "Create user request"
// @Success      201      {object}  Response
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Users.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "User created successfully", user)
}

// ListUsers godoc
// @Summary      List users
// @Description  Returns a page of users, newest first
// @Tags         users
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 3, max 100)"
// @Success      200    {object}  ListResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q models.ListUsersQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}

	page, limit := 1, 0
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}

	result, err := h.Users.FindMany(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Message: "Users retrieved successfully",
		Data:    result.Data,
		Meta:    result.Meta,
	})
}

// GetUser godoc
// @Summary      Get a user by ID
// @Description  Returns a single user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID (MongoDB ObjectId)"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	var p models.UserIDParam
	if err := bindURI(c, &p); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Users.FindOne(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User retrieved successfully", user)
}

// UpdateUser godoc
// @Summary      Update a user
// @Description  Updates only the supplied fields of a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "User ID (MongoDB ObjectId)"
// @Param        request  body      models.UpdateUserRequest  true  "Update user request"
// @Success      200      {object}  Response
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var p models.UserIDParam
	if err := bindURI(c, &p); err != nil {
		respondError(c, err)
		return
	}
	var req models.UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Users.UpdateOne(c.Request.Context(), p.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", user)
}

// DeleteUser godoc
// @Summary      Delete a user
// @Description  Deletes a user and publishes a user.deleted event
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID (MongoDB ObjectId)"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var p models.UserIDParam
	if err := bindURI(c, &p); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Users.RemoveOne(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", user)
}
