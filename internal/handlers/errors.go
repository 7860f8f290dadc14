package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobhackerbot/backend/internal/errs"
)

// respondError maps the store's typed errors onto HTTP status codes. Storage
// failures get a generic body; the driver detail is already logged at the
// repo layer and must not reach clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errs.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
