package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodhub-api/apperrors"
	"foodhub-api/ledger"
	"foodhub-api/middleware"
	"foodhub-api/models"
)

// AdminGetAllOrders returns every order plus a dashboard summary (admin only)
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	f := ledger.Filter{CustomerID: c.Query("customerId")}
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseOrderStatus(raw)
		if !ok {
			writeError(c, apperrors.NewValidationError("unknown order status "+raw,
				apperrors.ValidationDetail{Field: "status", Message: "not a known order status"}))
			return
		}
		f.Status = status
	}

	orders, err := h.ledger.ListAll(c.Request.Context(), middleware.GetActor(c), f)
	if err != nil {
		writeError(c, err)
		return
	}

	summary := ledger.Summarize(orders)
	c.JSON(http.StatusOK, gin.H{
		"orderSummary": summary.ByStatus,
		"totalRevenue": summary.TotalRevenue,
		"count":        summary.Count,
		"orders":       orders,
	})
}

// AdminGetAllUsers returns all users (admin only)
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context())
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	users := []models.User{}
	if err := query.Order("created_at asc").Find(&users).Error; err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
