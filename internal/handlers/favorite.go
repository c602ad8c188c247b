package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/lilybloom/babynames-backend/internal/services"
)

type FavoriteHandler struct {
  favoriteService services.FavoriteService
}

func NewFavoriteHandler(favoriteService services.FavoriteService) *FavoriteHandler {
  return &FavoriteHandler{favoriteService: favoriteService}
}

func (fh *FavoriteHandler) SaveFavorite(c *gin.Context) {
  var body services.NameSuggestion
  if err := c.ShouldBindJSON(&body); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  favorite, err := fh.favoriteService.SaveFavorite(c.Request.Context(), body)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "favorite_failed", err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"favorite": favorite})
}

func (fh *FavoriteHandler) ListFavorites(c *gin.Context) {
  favorites, err := fh.favoriteService.ListFavorites(c.Request.Context())
  if err != nil {
    RespondError(c, http.StatusBadRequest, "favorites_failed", err)
    return
  }
  RespondOK(c, gin.H{"favorites": favorites})
}

func (fh *FavoriteHandler) RemoveFavorite(c *gin.Context) {
  favoriteID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  if err := fh.favoriteService.RemoveFavorite(c.Request.Context(), favoriteID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      RespondError(c, http.StatusNotFound, "favorite_not_found", err)
      return
    }
    RespondError(c, http.StatusBadRequest, "favorite_failed", err)
    return
  }
  RespondOK(c, gin.H{"status": "removed"})
}
