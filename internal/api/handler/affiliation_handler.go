package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

type AffiliationHandler struct {
	service ports.AffiliationService
}

func NewAffiliationHandler(service ports.AffiliationService) *AffiliationHandler {
	return &AffiliationHandler{service: service}
}

// List handles GET /v1/affiliations.
//
// @Summary      List affiliations visible to the caller
// @Tags         affiliations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.CustomerAffiliation
// @Failure      401  {object}  errorResponse
// @Router       /v1/affiliations [get]
func (h *AffiliationHandler) List(c echo.Context) error {
	items, err := h.service.ListAffiliations(c.Request().Context(), callerIdentity(c))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.CustomerAffiliation{}
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /v1/affiliations.
//
// @Summary      Create an affiliation
// @Tags         affiliations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAffiliationRequest  true  "Affiliation"
// @Success      201   {object}  domain.CustomerAffiliation
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/affiliations [post]
func (h *AffiliationHandler) Create(c echo.Context) error {
	var req createAffiliationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.CreateAffiliation(c.Request().Context(), callerIdentity(c), req.Name, req.Avatar, req.Link)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// Update handles PATCH /v1/affiliations/:id.
//
// @Summary      Update affiliation avatar and link
// @Tags         affiliations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                       true  "Affiliation ID"
// @Param        body  body      updateAffiliationRequest  true  "Avatar and link"
// @Success      200   {object}  domain.CustomerAffiliation
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/affiliations/{id} [patch]
func (h *AffiliationHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateAffiliationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.UpdateAffiliation(c.Request().Context(), callerIdentity(c), id, req.Avatar, req.Link)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /v1/affiliations/:id. Customers referencing the
// affiliation are left unassigned.
//
// @Summary      Delete an affiliation
// @Tags         affiliations
// @Security     BearerAuth
// @Param        id   path  int  true  "Affiliation ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/affiliations/{id} [delete]
func (h *AffiliationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteAffiliation(c.Request().Context(), callerIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
