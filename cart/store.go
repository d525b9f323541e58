package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodhub-api/apperrors"
	"foodhub-api/models"
)

// Store persists each customer's open cart. A stored line always has quantity >= 1.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Get returns the customer's lines with their meals, oldest first.
func (s *Store) Get(ctx context.Context, customerID string) ([]models.CartLine, error) {
	return s.LinesTx(ctx, s.db, customerID)
}

func (s *Store) LinesTx(ctx context.Context, tx *gorm.DB, customerID string) ([]models.CartLine, error) {
	if customerID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	lines := []models.CartLine{}
	err := tx.WithContext(ctx).
		Preload("Meal").
		Where("customer_id = ?", customerID).
		Order("created_at asc").
		Find(&lines).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load cart", err)
	}
	return lines, nil
}

// Add merges quantity into the line for mealID, creating it if absent.
func (s *Store) Add(ctx context.Context, customerID, mealID string, quantity int) ([]models.CartLine, error) {
	if customerID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if quantity < 1 {
		return nil, apperrors.Newf(apperrors.KindInvalidQuantity, "quantity must be a positive integer, got %d", quantity)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMeal(tx, mealID); err != nil {
			return err
		}
		line := models.CartLine{CustomerID: customerID, MealID: mealID, Quantity: quantity}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "meal_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("cart_lines.quantity + ?", quantity)}),
		}).Create(&line).Error
	})
	if err != nil {
		return nil, s.fail("add", err)
	}

	s.logger.Info("cart line added",
		zap.String("customer_id", customerID), zap.String("meal_id", mealID), zap.Int("quantity", quantity))
	return s.Get(ctx, customerID)
}

// SetQuantity sets the absolute quantity of mealID. Anything below 1 removes the line.
func (s *Store) SetQuantity(ctx context.Context, customerID, mealID string, quantity int) ([]models.CartLine, error) {
	if customerID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if quantity < 1 {
		return s.Remove(ctx, customerID, mealID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMeal(tx, mealID); err != nil {
			return err
		}
		line := models.CartLine{CustomerID: customerID, MealID: mealID, Quantity: quantity}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "meal_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": quantity}),
		}).Create(&line).Error
	})
	if err != nil {
		return nil, s.fail("set quantity", err)
	}

	s.logger.Info("cart line set",
		zap.String("customer_id", customerID), zap.String("meal_id", mealID), zap.Int("quantity", quantity))
	return s.Get(ctx, customerID)
}

// Remove deletes the line for mealID. Removing an absent line is not an error.
func (s *Store) Remove(ctx context.Context, customerID, mealID string) ([]models.CartLine, error) {
	if customerID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	res := s.db.WithContext(ctx).
		Where("customer_id = ? AND meal_id = ?", customerID, mealID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return nil, s.fail("remove", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("cart line removed", zap.String("customer_id", customerID), zap.String("meal_id", mealID))
	}
	return s.Get(ctx, customerID)
}

func (s *Store) Clear(ctx context.Context, customerID string) error {
	if customerID == "" {
		return apperrors.ErrUnauthenticated
	}
	if _, err := s.ClearTx(ctx, s.db, customerID); err != nil {
		return s.fail("clear", err)
	}
	s.logger.Info("cart cleared", zap.String("customer_id", customerID))
	return nil
}

// ClearTx empties the cart inside tx and returns how many lines it removed.
// Checkout calls it in the same transaction that creates the order.
func (s *Store) ClearTx(ctx context.Context, tx *gorm.DB, customerID string) (int64, error) {
	res := tx.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

func (s *Store) fail(op string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	s.logger.Error("cart "+op+" failed", zap.Error(err))
	return apperrors.Wrap(apperrors.KindInternal, "failed to update cart", err)
}

func requireMeal(tx *gorm.DB, mealID string) error {
	var meal models.Meal
	err := tx.Select("id", "is_available").Where("id = ?", mealID).First(&meal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Newf(apperrors.KindNotFound, "meal %s not found", mealID)
	}
	if err != nil {
		return err
	}
	if !meal.IsAvailable {
		return apperrors.Newf(apperrors.KindValidation, "meal %s is not available", mealID)
	}
	return nil
}
