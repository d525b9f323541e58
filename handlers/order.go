package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"foodhub-api/checkout"
	"foodhub-api/middleware"
	"foodhub-api/models"
)

const IdempotencyHeader = "Idempotency-Key"

// PlaceOrderRequest mirrors the storefront's checkout payload. Items and
// TotalAmount are accepted but never trusted: lines come from the stored cart
// and prices from the catalog.
type PlaceOrderRequest struct {
	Email         string           `json:"email" binding:"required,email"`
	Address       models.Address   `json:"address"`
	PaymentMethod string           `json:"paymentMethod" binding:"required"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
	Items         []struct {
		MealID   string          `json:"mealId"`
		Quantity int             `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
	} `json:"items"`
}

// PlaceOrder turns the customer's cart into an order
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.checkout.PlaceOrder(c.Request.Context(), middleware.GetActor(c), checkout.Request{
		Email:          req.Email,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		ClientTotal:    req.TotalAmount,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res.Order)
}

// GetMyOrders returns all orders for the logged-in customer
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.ledger.ListForCustomer(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderDetail returns a single order's full detail with history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	order, err := h.ledger.Get(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateOrderStatus moves an order along its lifecycle. Which moves are
// allowed depends on the caller's role.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	target, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		target = models.OrderStatus(req.Status)
	}
	res, err := h.ledger.Transition(c.Request.Context(), middleware.GetActor(c), c.Param("id"), target, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
