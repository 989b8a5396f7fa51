package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-api/internal/core/ports"
)

type StatsHandler struct {
	service ports.StatsService
}

func NewStatsHandler(service ports.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Dashboard handles GET /v1/dashboard-stats.
//
// @Summary      Dashboard figures for a period
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Param        period  query     string  false  "Reporting window (default current_week)"  Enums(current_week, last_week, last_two, last_month, last_quarter)
// @Success      200     {object}  ports.DashboardStats
// @Failure      401     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/dashboard-stats [get]
// @Router       /api/dashboard-stats [get]
func (h *StatsHandler) Dashboard(c echo.Context) error {
	stats, err := h.service.GetDashboardStats(c.Request().Context(), callerIdentity(c), c.QueryParam("period"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// ByAffiliation handles GET /v1/stats/affiliations.
//
// @Summary      Customer breakdown per affiliation
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.AffiliationStats
// @Failure      401  {object}  errorResponse
// @Router       /v1/stats/affiliations [get]
func (h *StatsHandler) ByAffiliation(c echo.Context) error {
	rows, err := h.service.GetCustomerStatsByAffiliation(c.Request().Context(), callerIdentity(c))
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []ports.AffiliationStats{}
	}
	return c.JSON(http.StatusOK, rows)
}

// Users handles GET /v1/stats/users.
//
// @Summary      Per-user performance
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.UserStats
// @Failure      403  {object}  errorResponse
// @Router       /v1/stats/users [get]
func (h *StatsHandler) Users(c echo.Context) error {
	rows, err := h.service.GetUsersAnalysisData(c.Request().Context(), callerIdentity(c))
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []ports.UserStats{}
	}
	return c.JSON(http.StatusOK, rows)
}
