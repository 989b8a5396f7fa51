package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-api/internal/api/metrics"
	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// CustomerHandler handles HTTP requests for customer operations.
type CustomerHandler struct {
	service ports.CustomerService
}

func NewCustomerHandler(service ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// List handles GET /v1/customers.
//
// @Summary      List customers visible to the caller
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Page size (default 10, max 100)"
// @Success      200     {object}  customerListResponse
// @Failure      401     {object}  errorResponse
// @Router       /v1/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	res, err := h.service.ListCustomers(c.Request().Context(), callerIdentity(c), ports.ListCustomersInput{
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	items := res.Items
	if items == nil {
		items = []*domain.Customer{}
	}
	return c.JSON(http.StatusOK, customerListResponse{
		Customers:   items,
		TotalCount:  res.TotalCount,
		TotalPages:  res.TotalPages,
		CurrentPage: res.CurrentPage,
	})
}

// Create handles POST /v1/customers.
//
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCustomerRequest  true  "Customer details"
// @Success      201   {object}  domain.Customer
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	var req createCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.CreateCustomer(c.Request().Context(), callerIdentity(c), ports.CreateCustomerInput{
		CustomerName:      req.CustomerName,
		PhoneNumber:       req.PhoneNumber,
		Affiliation:       req.Affiliation,
		CustomerStatus:    req.CustomerStatus,
		TransactionStatus: req.TransactionStatus,
		Notes:             req.Notes,
	})
	if err != nil {
		return err
	}

	metrics.CustomersCreatedTotal.WithLabelValues(string(customer.CustomerStatus)).Inc()
	return c.JSON(http.StatusCreated, customer)
}

// Get handles GET /v1/customers/:id.
//
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {object}  domain.Customer
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	customer, err := h.service.GetCustomer(c.Request().Context(), callerIdentity(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Permission handles GET /v1/customers/:id/permission.
//
// @Summary      Check whether the caller may modify a customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {object}  permissionResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/customers/{id}/permission [get]
func (h *CustomerHandler) Permission(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ok, err := h.service.HasPermission(c.Request().Context(), callerIdentity(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permissionResponse{HasPermission: ok})
}

// UpdateStatus handles PATCH /v1/customers/:id/status.
//
// @Summary      Update the customer status
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Customer ID"
// @Param        body  body      customerStatusRequest  true  "New status"
// @Success      200   {object}  domain.Customer
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/customers/{id}/status [patch]
func (h *CustomerHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req customerStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.UpdateCustomerStatus(c.Request().Context(), callerIdentity(c), id, req.CustomerStatus)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// UpdateTransactionStatus handles PATCH /v1/customers/:id/transaction-status.
//
// @Summary      Update the deal status
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                       true  "Customer ID"
// @Param        body  body      transactionStatusRequest  true  "New deal status"
// @Success      200   {object}  domain.Customer
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/customers/{id}/transaction-status [patch]
func (h *CustomerHandler) UpdateTransactionStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transactionStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.UpdateTransactionStatus(c.Request().Context(), callerIdentity(c), id, req.TransactionStatus)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// UpdateNotes handles PATCH /v1/customers/:id/notes.
//
// @Summary      Replace the customer notes
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int           true  "Customer ID"
// @Param        body  body      notesRequest  true  "Notes"
// @Success      200   {object}  domain.Customer
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/customers/{id}/notes [patch]
func (h *CustomerHandler) UpdateNotes(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req notesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.UpdateCustomerNotes(c.Request().Context(), callerIdentity(c), id, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// UpdateAffiliation handles PATCH /v1/customers/:id/affiliation.
//
// @Summary      Assign or clear the customer affiliation
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                         true  "Customer ID"
// @Param        body  body      customerAffiliationRequest  true  "Affiliation name; empty clears it"
// @Success      200   {object}  domain.Customer
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/customers/{id}/affiliation [patch]
func (h *CustomerHandler) UpdateAffiliation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req customerAffiliationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.UpdateCustomerAffiliation(c.Request().Context(), callerIdentity(c), id, req.Affiliation)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Delete handles DELETE /v1/customers/:id.
//
// @Summary      Delete a customer and its transaction details
// @Tags         customers
// @Security     BearerAuth
// @Param        id   path  int  true  "Customer ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteCustomer(c.Request().Context(), callerIdentity(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
