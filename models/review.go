package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Review is a customer's rating of a meal; at most one per (customer, meal).
type Review struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	MealID     string    `json:"mealId" gorm:"size:36;not null;uniqueIndex:idx_review_customer_meal"`
	CustomerID string    `json:"customerId" gorm:"size:36;not null;uniqueIndex:idx_review_customer_meal"`
	Rating     float64   `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
