package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"foodhub-api/middleware"
	"foodhub-api/models"
)

type CartItemRequest struct {
	MealID   string `json:"mealId" binding:"required"`
	Quantity int    `json:"quantity"`
}

type RemoveCartItemRequest struct {
	MealID string `json:"mealId" binding:"required"`
}

// CartResponse carries the lines and what checkout would charge for them.
type CartResponse struct {
	Items    []models.CartLine `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Tax      decimal.Decimal   `json:"tax"`
	Total    decimal.Decimal   `json:"total"`
}

func (h *Handler) cartResponse(lines []models.CartLine) CartResponse {
	q := h.checkout.Quote(lines, models.Address{})
	return CartResponse{Items: lines, Subtotal: q.Subtotal, Tax: q.Tax, Total: q.Total}
}

func (h *Handler) GetCart(c *gin.Context) {
	lines, err := h.cart.Get(c.Request.Context(), middleware.GetActor(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(lines))
}

// AddToCart merges the quantity into the customer's cart
func (h *Handler) AddToCart(c *gin.Context) {
	var req CartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	lines, err := h.cart.Add(c.Request.Context(), middleware.GetActor(c).ID, req.MealID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(lines))
}

// UpdateCartItem sets an absolute quantity; below 1 removes the line
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	lines, err := h.cart.SetQuantity(c.Request.Context(), middleware.GetActor(c).ID, req.MealID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(lines))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	var req RemoveCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	lines, err := h.cart.Remove(c.Request.Context(), middleware.GetActor(c).ID, req.MealID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(lines))
}

func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), middleware.GetActor(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse([]models.CartLine{}))
}
