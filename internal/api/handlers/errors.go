package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/poslytics/backend/internal/parse"
	"github.com/poslytics/backend/internal/repository"
)

// respondError maps domain errors onto HTTP status codes: malformed
// spreadsheets get 422, missing resources 404, everything else 500.
func respondError(c *gin.Context, err error) {
	var structural *parse.StructuralError
	switch {
	case errors.As(err, &structural):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": structural.Message,
			"code":  structural.Code,
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
