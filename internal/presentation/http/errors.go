package httppresentation

import (
	"errors"
	"net/http"

	appcart "github.com/Zhima-Mochi/notafiscal-console/internal/application/cart"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error      string              `json:"error"`
	Violations []failure.Violation `json:"violations,omitempty"`
}

func writeError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func writeDomainError(c *gin.Context, err error) {
	var verr *failure.ValidationError
	var ferr *failure.FetchError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: verr.Message, Violations: verr.Violations})
	case errors.As(err, &ferr):
		c.AbortWithStatusJSON(http.StatusBadGateway, errorResponse{Error: ferr.Message})
	case errors.Is(err, failure.ErrInFlight):
		writeError(c, http.StatusConflict, failure.ErrInFlight)
	case errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, appcart.ErrLineNotFound):
		writeError(c, http.StatusNotFound, err)
	case errors.Is(err, domcatalog.ErrInsufficientStock),
		errors.Is(err, domcatalog.ErrInvalidQuantity):
		writeError(c, http.StatusBadRequest, err)
	default:
		writeError(c, http.StatusInternalServerError, err)
	}
}
