package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/lilybloom/babynames-backend/internal/services"
)

type UserHandler struct {
  userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
  return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
  me, err := uh.userService.GetMe(c.Request.Context(), nil)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "profile_failed", err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"me": me})
}
