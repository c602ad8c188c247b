package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/lilybloom/babynames-backend/internal/services"
)

type AuthHandler struct {
  authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

type credentialsBody struct {
  Email    string `json:"email" binding:"required,email"`
  Password string `json:"password" binding:"required"`
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var body credentialsBody
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  user, err := ah.authService.RegisterUser(c.Request.Context(), body.Email, body.Password)
  if err != nil {
    if errors.Is(err, services.ErrEmailTaken) {
      RespondError(c, http.StatusConflict, "email_taken", err)
      return
    }
    RespondError(c, http.StatusBadRequest, "registration_failed", err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var body credentialsBody
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), body.Email, body.Password)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "invalid_credentials", services.ErrInvalidCredentials)
    return
  }
  RespondOK(c, gin.H{"access_token": accessToken, "refresh_token": refreshToken})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
  var body struct {
    RefreshToken string `json:"refresh_token" binding:"required"`
  }
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context(), body.RefreshToken)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "invalid_refresh_token", err)
    return
  }
  RespondOK(c, gin.H{"access_token": accessToken, "refresh_token": refreshToken})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
    RespondError(c, http.StatusBadRequest, "logout_failed", err)
    return
  }
  RespondOK(c, gin.H{"status": "logged out"})
}
