package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	orderService service.OrderService
	carts        CartProvider
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService, carts CartProvider) *OrderHandler {
	return &OrderHandler{orderService: orderService, carts: carts, validator: validator.New()}
}

// CreateOrder godoc
//	@Summary		Place a cash-on-delivery order
//	@Description	Turns the current cart into a pending order and empties the cart. City and postcode default when omitted.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		models.CreateOrderRequest	true	"Delivery details"
//	@Success		201		{object}	models.Order				"Successfully created order"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error or empty cart"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req models.CreateOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create order input")
			return
		}

		cart := h.carts.Acquire(r.Context(), identity)

		order, err := h.orderService.CreateOrder(r.Context(), identity, cart, &req.DeliveryInfo)
		if err != nil {
			logger.Error("Failed to create order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order created successfully", slog.String("orderId", order.ID.String()))
		response.Success(w, http.StatusCreated, order)
	}
}

// GetOrder godoc
//	@Summary		Get an order by ID
//	@Description	Customers see their own orders only; administrators see any order.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Successfully retrieved order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrder(r.Context(), identity, id)
		if err != nil {
			logger.Warn("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//	@Summary		List the caller's orders
//	@Description	Newest first.
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number for pagination (default: 1)"			minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved list of orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		page, pageSize := utils.ParsePagination(r)

		orders, total, err := h.orderService.ListOrdersForUser(r.Context(), identity, identity.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.NewPaginatedResponse(orders, total, page, pageSize))
	}
}

// ConfirmDelivery godoc
//	@Summary		Confirm an order was delivered
//	@Description	The owner's confirmation is timestamped. Confirming again returns the order unchanged.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Confirmed order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		409	{object}	response.ErrorResponse	"Order cannot be confirmed"
//	@Security		BearerAuth
//	@Router			/orders/{id}/confirm-delivery [post]
func (h *OrderHandler) ConfirmDelivery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		order, err := h.orderService.ConfirmDelivery(r.Context(), identity, id)
		if err != nil {
			logger.Warn("Delivery confirmation failed", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Delivery confirmed", slog.String("orderId", id.String()))
		response.Success(w, http.StatusOK, order)
	}
}

// ListAllOrders godoc
//	@Summary		List every order
//	@Description	Administrators only. Newest first.
//	@Tags			Admin
//	@Produce		json
//	@Param			page		query		int												false	"Page number for pagination (default: 1)"			minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse							"Administrator access required"
//	@Security		BearerAuth
//	@Router			/admin/orders [get]
func (h *OrderHandler) ListAllOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		page, pageSize := utils.ParsePagination(r)

		orders, total, err := h.orderService.ListAllOrders(r.Context(), identity, page, pageSize)
		if err != nil {
			logger.Error("Failed to list all orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.NewPaginatedResponse(orders, total, page, pageSize))
	}
}

// AdvanceOrderStatus godoc
//	@Summary		Advance an order's status
//	@Description	Moves pending to processing, or processing to delivered. current_status must match the stored status.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Order ID (UUID)"	Format(uuid)
//	@Param			status	body		models.AdvanceOrderStatusRequest	true	"Status the caller last saw"
//	@Success		200		{object}	models.Order						"Updated order"
//	@Failure		400		{object}	response.ErrorResponse				"Invalid input"
//	@Failure		403		{object}	response.ErrorResponse				"Administrator access required"
//	@Failure		404		{object}	response.ErrorResponse				"Order not found"
//	@Failure		409		{object}	response.ErrorResponse				"Status changed or is terminal"
//	@Security		BearerAuth
//	@Router			/admin/orders/{id}/status [patch]
func (h *OrderHandler) AdvanceOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.AdvanceOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid status update input")
			return
		}

		order, err := h.orderService.AdvanceStatus(r.Context(), identity, id, req.CurrentStatus)
		if err != nil {
			logger.Warn("Status update failed", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order status advanced", slog.String("orderId", id.String()), slog.String("status", order.Status.String()))
		response.Success(w, http.StatusOK, order)
	}
}
