package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-api/internal/api/metrics"
	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// DetailHandler handles transaction detail requests.
type DetailHandler struct {
	service ports.DetailService
}

func NewDetailHandler(service ports.DetailService) *DetailHandler {
	return &DetailHandler{service: service}
}

// List handles GET /v1/customers/:id/details.
//
// @Summary      List a customer's transaction details with totals
// @Tags         details
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {object}  detailSummaryResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/customers/{id}/details [get]
func (h *DetailHandler) List(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	summary, err := h.service.ListDetails(c.Request().Context(), callerIdentity(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSummaryResponse(summary))
}

// Create handles POST /v1/customers/:id/details. Recording any line marks
// the customer's deal as closed.
//
// @Summary      Record transaction detail lines
// @Tags         details
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Customer ID"
// @Param        body  body      createDetailsRequest  true  "Detail lines"
// @Success      201   {array}   domain.TransactionDetail
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/customers/{id}/details [post]
func (h *DetailHandler) Create(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createDetailsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	details, err := h.service.CreateDetails(c.Request().Context(), callerIdentity(c), id, toDetailInputs(req.Details))
	if err != nil {
		return err
	}

	metrics.DetailsCreatedTotal.Add(float64(len(details)))
	if details == nil {
		details = []*domain.TransactionDetail{}
	}
	return c.JSON(http.StatusCreated, details)
}

// Delete handles DELETE /v1/details/:id.
//
// @Summary      Delete a transaction detail line
// @Tags         details
// @Security     BearerAuth
// @Param        id   path  int  true  "Detail ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/details/{id} [delete]
func (h *DetailHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteDetail(c.Request().Context(), callerIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
