package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-api/internal/api/middleware"
	"github.com/leadbook/crm-api/internal/core/domain"
)

// callerIdentity builds the domain identity from the claims injected by the
// Auth middleware. Requests without claims resolve to the anonymous identity,
// which owns nothing and is rejected by every guarded operation.
func callerIdentity(c echo.Context) domain.Identity {
	username, _ := c.Get(middleware.KeyUsername).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	if username == "" || role == "" {
		return domain.Anonymous()
	}
	userID, _ := c.Get(middleware.KeyUserID).(int64)
	return domain.Identity{UserID: userID, Username: username, Role: role}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
