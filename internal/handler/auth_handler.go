package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userapi/internal/apperrors"
	"userapi/internal/model"
	"userapi/internal/service/auth"
	"userapi/internal/util"
)

type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type tokenPairResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Age      *int   `json:"age"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Dados nao fornecidos"))
		return
	}

	u, pair, err := h.authService.Register(c.Request.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, tokenPairResponse{
		User:         u,
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	}, "Usuario registrado com sucesso")
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Email e senha sao obrigatorios"))
		return
	}

	u, pair, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tokenPairResponse{
		User:         u,
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	}, "Login realizado com sucesso")
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token comes in
// the Authorization header, or in the body for clients that prefer it.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := util.ExtractToken(c.Request)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		respondError(c, apperrors.Auth("Token nao fornecido"))
		return
	}

	access, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"access_token": access}, "Token renovado com sucesso")
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("user_id")

	u, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, u, "")
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := c.MustGet("claims").(*util.Claims)
	if !ok {
		respondError(c, apperrors.Auth("Token invalido"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Logout realizado com sucesso",
	})
}
