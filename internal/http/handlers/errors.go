package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	pkgerrors "github.com/yungbote/classroom-backend/internal/pkg/errors"
	"github.com/yungbote/classroom-backend/internal/platform/apierr"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

// toAPIError maps the service error taxonomy onto HTTP statuses.
func toAPIError(err error) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	var (
		nf  *services.NotFoundError
		ve  *services.ValidationError
		au  *services.AuthorizationError
		ext *services.ExternalDependencyError
	)
	switch {
	case errors.As(err, &nf):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.As(err, &ve):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.As(err, &au):
		return apierr.New(http.StatusForbidden, "forbidden", err)
	case errors.As(err, &ext):
		return apierr.New(http.StatusBadGateway, "upstream_failure", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		return apierr.New(http.StatusConflict, "conflict", err)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return apierr.New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		return apierr.NotFound(err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return apierr.BadRequest("invalid_request", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, "timeout", err)
	default:
		return nil
	}
}

// respondErr writes err using the shared envelope. Unmapped errors are logged
// and reported as a generic 500.
func respondErr(c *gin.Context, log *logger.Logger, op string, err error) {
	if ae := toAPIError(err); ae != nil {
		if ae.Status >= http.StatusInternalServerError {
			log.Error(op+" failed", "error", err, "path", c.FullPath())
		}
		response.RespondAPIError(c, ae)
		return
	}
	log.Error(op+" failed", "error", err, "path", c.FullPath())
	response.RespondAPIError(c, err)
}
