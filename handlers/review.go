package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodhub-api/middleware"
	"foodhub-api/review"
)

type CreateReviewRequest struct {
	MealID  string  `json:"mealId" binding:"required"`
	Rating  float64 `json:"rating" binding:"required"`
	Comment string  `json:"comment"`
}

// GetMealReviews returns a meal's reviews with their average (public)
func (h *Handler) GetMealReviews(c *gin.Context) {
	out, err := h.reviews.ListByMeal(c.Request.Context(), c.Param("mealId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetReviewEligibility(c *gin.Context) {
	ok, err := h.reviews.CanReview(c.Request.Context(), middleware.GetActor(c), c.Param("mealId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canReview": ok})
}

// CreateReview stores a review if the meal was delivered to the customer
func (h *Handler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.reviews.Create(c.Request.Context(), middleware.GetActor(c), review.Input{
		MealID:  req.MealID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}
