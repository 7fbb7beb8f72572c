package api

import (
	"net/http"

	"handicraft-store/internal/domain/user"
	"handicraft-store/internal/handler/httperr"
	"handicraft-store/internal/handler/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return uuid.Nil, false
	}
	return userID, true
}

func requireIdentity(c *gin.Context) (uuid.UUID, user.Role, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return uuid.Nil, "", false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return uuid.Nil, "", false
	}
	return userID, role, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

const idempotencyKeyHeader = "Idempotency-Key"

// optionalIdempotencyKey reads the header when present. A malformed key aborts.
func optionalIdempotencyKey(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.GetHeader(idempotencyKeyHeader)
	if raw == "" {
		return nil, true
	}
	key, err := uuid.Parse(raw)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid "+idempotencyKeyHeader+" header", nil)
		return nil, false
	}
	return &key, true
}
