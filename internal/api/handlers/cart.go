package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// CartProvider hands out the live cart of a signed-in user.
type CartProvider interface {
	Acquire(ctx context.Context, identity *models.Identity) *service.CartManager
}

type CartHandler struct {
	carts          CartProvider
	productService service.ProductService
	validator      *validator.Validate
}

func NewCartHandler(carts CartProvider, productService service.ProductService) *CartHandler {
	return &CartHandler{carts: carts, productService: productService, validator: validator.New()}
}

// GetCart godoc
//	@Summary		Get the current cart
//	@Description	Returns the authenticated user's cart with its running total.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.Cart				"Current cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, _, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		response.Success(w, http.StatusOK, h.carts.Acquire(r.Context(), identity).View())
	}
}

// AddItem godoc
//	@Summary		Add a product to the cart
//	@Description	Adds one unit of the product. Adding a product already in the cart increments its quantity.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product to add"
//	@Success		200		{object}	models.Cart				"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Security		BearerAuth
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add to cart input")
			return
		}

		product, err := h.productService.GetProductByID(r.Context(), req.ProductID)
		if err != nil {
			logger.Warn("Product lookup failed", slog.String("productId", req.ProductID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		cart := h.carts.Acquire(r.Context(), identity)
		if err := cart.AddToCart(r.Context(), product); err != nil {
			logger.Warn("Add to cart rejected", slog.String("productId", product.ID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.String("productId", product.ID.String()))
		response.Success(w, http.StatusOK, cart.View())
	}
}

// UpdateQuantity godoc
//	@Summary		Set the quantity of a cart item
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			productId	path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Param			quantity	body		models.UpdateQuantityRequest	true	"New quantity (at least 1)"
//	@Success		200			{object}	models.Cart					"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse		"Invalid product ID or quantity"
//	@Failure		401			{object}	response.ErrorResponse		"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart/items/{productId} [put]
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart := h.carts.Acquire(r.Context(), identity)
		if err := cart.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
			logger.Warn("Quantity update rejected", slog.Int("quantity", req.Quantity), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart.View())
	}
}

// RemoveItem godoc
//	@Summary		Remove a product from the cart
//	@Description	Removing a product that is not in the cart leaves the cart unchanged.
//	@Tags			Cart
//	@Produce		json
//	@Param			productId	path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Success		200			{object}	models.Cart				"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid product ID"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, _, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		cart := h.carts.Acquire(r.Context(), identity)
		cart.RemoveFromCart(r.Context(), productID)

		response.Success(w, http.StatusOK, cart.View())
	}
}

// ClearCart godoc
//	@Summary		Empty the cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.Cart				"Empty cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		cart := h.carts.Acquire(r.Context(), identity)
		cart.ClearCart(r.Context())

		logger.Info("Cart cleared")
		response.Success(w, http.StatusOK, cart.View())
	}
}
