package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"userapi/internal/apperrors"
	"userapi/internal/service/user"
)

type UserHandler struct {
	userService *user.Service
}

func NewUserHandler(userService *user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func userID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apperrors.Validation("ID deve ser um numero valido")
	}
	return id, nil
}

// List handles GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, http.StatusOK, users, len(users))
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	u, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, u, "")
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Age   *int   `json:"age"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Dados nao fornecidos"))
		return
	}

	u, err := h.userService.Create(c.Request.Context(), user.CreateInput{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, u, "Usuario criado com sucesso")
}

// Update handles PUT /users/:id. Only the supplied fields change; an
// empty body is a no-op that still refreshes updated_at.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Age   *int    `json:"age"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperrors.Validation("Dados nao fornecidos"))
		return
	}

	u, err := h.userService.Update(c.Request.Context(), id, user.UpdateInput{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, u, "Usuario atualizado com sucesso")
}

// Delete handles DELETE /users/:id and returns the deleted row's snapshot.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	u, err := h.userService.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, u, "Usuario removido com sucesso")
}
