package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"foodhub-api/catalog"
	"foodhub-api/middleware"
)

// ── Menu Management ─────────────────────────────────────────────────────────

type CreateMealRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
}

type UpdateMealRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	IsAvailable *bool            `json:"isAvailable"`
}

// CreateMeal adds a meal to the calling provider's menu
func (h *Handler) CreateMeal(c *gin.Context) {
	var req CreateMealRequest
	if !bindJSON(c, &req) {
		return
	}

	meal, err := h.catalog.Create(c.Request.Context(), middleware.GetActor(c), catalog.MealInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// UpdateMeal changes a meal's fields. Placed orders keep the price they were sold at.
func (h *Handler) UpdateMeal(c *gin.Context) {
	var req UpdateMealRequest
	if !bindJSON(c, &req) {
		return
	}

	meal, err := h.catalog.Update(c.Request.Context(), middleware.GetActor(c), c.Param("id"), catalog.MealUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// DeleteMeal takes a meal off the menu
func (h *Handler) DeleteMeal(c *gin.Context) {
	if err := h.catalog.MarkUnavailable(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meal removed", "id": c.Param("id")})
}
