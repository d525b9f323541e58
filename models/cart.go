package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one (meal, quantity) pair of a customer's open cart.
// A stored line always has Quantity >= 1; a line that would drop below is deleted.
type CartLine struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	CustomerID string    `json:"-" gorm:"size:36;not null;uniqueIndex:idx_cart_customer_meal"`
	MealID     string    `json:"mealId" gorm:"size:36;not null;uniqueIndex:idx_cart_customer_meal"`
	Meal       Meal      `json:"meal" gorm:"foreignKey:MealID"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// LineTotal uses the meal's current price and is for display only.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Meal.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSubtotal sums the display totals of lines.
func CartSubtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
