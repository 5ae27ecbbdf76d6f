package handlers

import (
	"net/http"

	"booking-system/internal/services"
	"booking-system/models"

	"github.com/pocketbase/pocketbase/core"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Register(e *core.RequestEvent) error {
	var req registerRequest
	if err := e.BindBody(&req); err != nil {
		return errorResponse(err)
	}

	user, err := h.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		return errorResponse(err)
	}

	return e.JSON(http.StatusCreated, userView(user))
}

func (h *AuthHandler) Login(e *core.RequestEvent) error {
	var req loginRequest
	if err := e.BindBody(&req); err != nil {
		return errorResponse(err)
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		return errorResponse(err)
	}

	return e.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (h *AuthHandler) Me(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, userView(user))
}

func userView(r *core.Record) models.User {
	return models.User{
		ID:        r.Id,
		Username:  r.GetString("username"),
		Email:     r.GetString("email"),
		IsAdmin:   r.GetBool("is_admin"),
		CreatedAt: r.GetDateTime("created").Time(),
		UpdatedAt: r.GetDateTime("updated").Time(),
	}
}
