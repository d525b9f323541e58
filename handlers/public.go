package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodhub-api/apperrors"
	"foodhub-api/catalog"
	"foodhub-api/models"
)

// ListMeals returns the catalog (public)
func (h *Handler) ListMeals(c *gin.Context) {
	f := catalog.Filter{
		ProviderID: c.Query("providerId"),
		Search:     c.Query("search"),
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, apperrors.NewValidationError("invalid available filter",
				apperrors.ValidationDetail{Field: "available", Message: "must be true or false"}))
			return
		}
		f.Available = &available
	}

	meals, err := h.catalog.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

// GetMeal returns a single meal
func (h *Handler) GetMeal(c *gin.Context) {
	meal, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// GetStateMachineInfo returns the order lifecycle for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	machine := h.ledger.Machine()

	var terminal []models.OrderStatus
	for _, s := range models.AllStatuses {
		if s.IsTerminal() {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"transitions":                 machine.Transitions(),
		"statuses":                    models.AllStatuses,
		"terminalStates":              terminal,
		"operatorCancelAfterDispatch": machine.Policy().OperatorCancelAfterDispatch,
	})
}

func (h *Handler) Health(c *gin.Context) {
	status := http.StatusOK
	state := "healthy"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "foodhub-api",
	})
}
