package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodhub-api/ledger"
	"foodhub-api/middleware"
)

// GetProviderOrders returns orders containing the provider's meals.
// ?type=incoming lists live orders, ?type=history finished ones.
func (h *Handler) GetProviderOrders(c *gin.Context) {
	view, err := ledger.ParseView(c.Query("type"))
	if err != nil {
		writeError(c, err)
		return
	}

	orders, err := h.ledger.ListForProvider(c.Request.Context(), middleware.GetActor(c), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
