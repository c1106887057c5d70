package httpapi

import (
	"errors"
	"net/http"

	"leafscan/api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the client-safe message of err. Internal causes
// are logged here and never sent to the client.
func (s *Server) writeError(c *gin.Context, err error, fallback string) {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindInternal, Message: fallback, Err: err}
	}

	if se.Kind == service.KindInternal {
		s.log.Error(se.Message,
			zap.String("route", c.FullPath()),
			zap.String("request_id", c.GetHeader(requestIDHeader)),
			zap.Error(se.Err),
		)
	}
	c.JSON(statusFor(se.Kind), errorResponse{Error: se.Message})
}
