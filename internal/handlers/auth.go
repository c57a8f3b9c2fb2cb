package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"solo-drops-backend/internal/middleware"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/supabase"
)

// Authenticator signs admins in and out against the hosted auth service.
type Authenticator interface {
	SignIn(email, password string) (*supabase.Session, error)
	SignOut(accessToken string) error
}

type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary     Admin login
// @Description Signs in with email and password and returns an access token
// @Tags        admin
// @Accept      json
// @Produce     json
// @Param       request body models.LoginRequest true "Credentials"
// @Success     200 {object} models.LoginResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	session, err := h.auth.SignIn(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		Email:        session.Email,
	})
}

// Logout godoc
// @Summary     Admin logout
// @Tags        admin
// @Security    Bearer
// @Success     204
// @Failure     401 {object} models.ErrorResponse
// @Router      /admin/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.SignOut(c.GetString(middleware.AccessTokenKey)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
