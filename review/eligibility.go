package review

import "foodhub-api/models"

// Eligible reports whether orders, all belonging to one customer, contain a
// delivered order with mealID. Server and client both decide with this function.
func Eligible(orders []models.Order, mealID string) bool {
	for _, o := range orders {
		if o.Status == models.StatusDelivered && o.ContainsMeal(mealID) {
			return true
		}
	}
	return false
}
