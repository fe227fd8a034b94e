package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

// dbc carries the request context with no open transaction; services start
// their own where they need one.
func dbc(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func principal(c *gin.Context) (types.Principal, bool) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok || p.ID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
		return types.Principal{}, false
	}
	return p, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// courseAccess resolves the :id course and checks the caller's capability on it.
type courseAccess struct {
	log   *logger.Logger
	guard services.Guard
}

func (a courseAccess) require(c *gin.Context, capability services.CourseCapability) (uuid.UUID, types.Principal, bool) {
	p, ok := principal(c)
	if !ok {
		return uuid.Nil, p, false
	}
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return uuid.Nil, p, false
	}
	if _, err := a.guard.CheckCapability(dbc(c), p, courseID, capability); err != nil {
		respondErr(c, a.log, "CheckCapability", err)
		return uuid.Nil, p, false
	}
	return courseID, p, true
}
