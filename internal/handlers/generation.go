package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/lilybloom/babynames-backend/internal/services"
)

type GenerationHandler struct {
  generationService services.GenerationService
}

func NewGenerationHandler(generationService services.GenerationService) *GenerationHandler {
  return &GenerationHandler{generationService: generationService}
}

// GenerateNames serves POST /api/names/generate for both anonymous and
// authenticated callers. Quota violations are the caller's problem (403);
// oracle and parse failures are ours (500) and worth a retry.
func (gh *GenerationHandler) GenerateNames(c *gin.Context) {
  var req services.GenerationRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }

  names, err := gh.generationService.Generate(c.Request.Context(), &req)
  if err != nil {
    switch {
    case errors.Is(err, services.ErrQuotaExceeded):
      RespondError(c, http.StatusForbidden, "quota_exceeded", services.ErrQuotaExceeded)
    case errors.Is(err, services.ErrOracleUnavailable):
      RespondError(c, http.StatusInternalServerError, "oracle_unavailable", services.ErrOracleUnavailable)
    case errors.Is(err, services.ErrMalformedOracleResponse):
      RespondError(c, http.StatusInternalServerError, "malformed_response", services.ErrMalformedOracleResponse)
    default:
      RespondError(c, http.StatusInternalServerError, "generation_failed", err)
    }
    return
  }

  RespondOK(c, gin.H{"names": names})
}
