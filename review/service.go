package review

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodhub-api/apperrors"
	"foodhub-api/models"
)

type Input struct {
	MealID  string  `json:"mealId"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

type MealReviews struct {
	Reviews       []models.Review `json:"reviews"`
	Count         int             `json:"count"`
	AverageRating float64         `json:"averageRating"`
}

// Service stores reviews behind the eligibility gate.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CanReview applies Eligible to the customer's delivered orders.
func (s *Service) CanReview(ctx context.Context, actor models.Actor, mealID string) (bool, error) {
	if actor.ID == "" {
		return false, apperrors.ErrUnauthenticated
	}
	if !actor.Is(models.RoleCustomer) {
		return false, nil
	}
	return s.canReviewTx(ctx, s.db, actor.ID, mealID)
}

func (s *Service) canReviewTx(ctx context.Context, tx *gorm.DB, customerID, mealID string) (bool, error) {
	var orders []models.Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ? AND status = ?", customerID, models.StatusDelivered).
		Find(&orders).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindInternal, "failed to load order history", err)
	}
	return Eligible(orders, mealID), nil
}

// Create stores a review. Customers only, one per meal, and only after the meal
// was delivered to them.
func (s *Service) Create(ctx context.Context, actor models.Actor, in Input) (*models.Review, error) {
	if actor.ID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if !actor.Is(models.RoleCustomer) {
		return nil, apperrors.New(apperrors.KindForbidden, "only customers can review meals")
	}
	if strings.TrimSpace(in.MealID) == "" {
		return nil, apperrors.NewValidationError("mealId is required",
			apperrors.ValidationDetail{Field: "mealId", Message: "is required"})
	}
	if math.IsNaN(in.Rating) || in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5",
			apperrors.ValidationDetail{Field: "rating", Message: "must be between 1 and 5"})
	}

	review := models.Review{
		MealID:     in.MealID,
		CustomerID: actor.ID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMeal(tx, in.MealID); err != nil {
			return err
		}
		ok, err := s.canReviewTx(ctx, tx, actor.ID, in.MealID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.KindNotEligible, "you can only review meals that were delivered to you")
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("customer_id = ? AND meal_id = ?", actor.ID, in.MealID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.New(apperrors.KindConflict, "you have already reviewed this meal")
		}
		return tx.Create(&review).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = apperrors.New(apperrors.KindConflict, "you have already reviewed this meal")
	}
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.Wrap(apperrors.KindInternal, "failed to save review", err)
		}
		s.logger.Warn("review rejected",
			zap.String("meal_id", in.MealID), zap.String("customer_id", actor.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("review created",
		zap.String("review_id", review.ID), zap.String("meal_id", in.MealID), zap.String("customer_id", actor.ID))
	return &review, nil
}

// ListByMeal returns the meal's reviews, newest first, with their average rating.
func (s *Service) ListByMeal(ctx context.Context, mealID string) (*MealReviews, error) {
	if err := requireMeal(s.db.WithContext(ctx), mealID); err != nil {
		return nil, err
	}

	reviews := []models.Review{}
	if err := s.db.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load reviews", err)
	}

	out := &MealReviews{Reviews: reviews, Count: len(reviews)}
	if len(reviews) > 0 {
		sum := 0.0
		for _, r := range reviews {
			sum += r.Rating
		}
		out.AverageRating = math.Round(sum/float64(len(reviews))*10) / 10
	}
	return out, nil
}

func requireMeal(tx *gorm.DB, mealID string) error {
	var n int64
	if err := tx.Model(&models.Meal{}).Where("id = ?", mealID).Count(&n).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to load meal", err)
	}
	if n == 0 {
		return apperrors.Newf(apperrors.KindNotFound, "meal %s not found", mealID)
	}
	return nil
}
