package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodhub-api/apperrors"
	"foodhub-api/models"
)

// Service owns the meal catalog and is the only source of authoritative prices.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type Filter struct {
	ProviderID string
	Search     string
	Available  *bool
}

type MealInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
}

// MealUpdate carries optional fields; nil means unchanged.
type MealUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	IsAvailable *bool
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.Meal, error) {
	query := s.db.WithContext(ctx).Model(&models.Meal{})
	if f.ProviderID != "" {
		query = query.Where("provider_id = ?", f.ProviderID)
	}
	if f.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Available != nil {
		query = query.Where("is_available = ?", *f.Available)
	}

	var meals []models.Meal
	if err := query.Order("name asc").Find(&meals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list meals", err)
	}
	return meals, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&meal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Newf(apperrors.KindNotFound, "meal %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load meal", err)
	}
	return &meal, nil
}

// Create adds a meal sold by the calling provider.
func (s *Service) Create(ctx context.Context, actor models.Actor, in MealInput) (*models.Meal, error) {
	if !actor.Is(models.RoleProvider) {
		return nil, apperrors.New(apperrors.KindForbidden, "only providers can add meals")
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.NewValidationError("meal name is required",
			apperrors.ValidationDetail{Field: "name", Message: "must not be empty"})
	}

	meal := models.Meal{
		ProviderID:  actor.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Price:       models.Cents(in.Price),
		IsAvailable: true,
	}
	if err := s.db.WithContext(ctx).Create(&meal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to add meal", err)
	}

	s.logger.Info("meal created", zap.String("meal_id", meal.ID), zap.String("provider_id", actor.ID))
	return &meal, nil
}

// Update changes a meal owned by the calling provider. Admins may update any meal.
// Price changes never touch orders that were already placed.
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, in MealUpdate) (*models.Meal, error) {
	meal, err := s.ownedMeal(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.NewValidationError("meal name is required",
				apperrors.ValidationDetail{Field: "name", Message: "must not be empty"})
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		updates["price"] = models.Cents(*in.Price)
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if len(updates) == 0 {
		return meal, nil
	}

	if err := s.db.WithContext(ctx).Model(meal).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update meal", err)
	}

	s.logger.Info("meal updated", zap.String("meal_id", id), zap.String("actor_id", actor.ID))
	return s.Get(ctx, id)
}

// MarkUnavailable withdraws a meal from sale. The row is kept because placed
// orders and reviews still reference it.
func (s *Service) MarkUnavailable(ctx context.Context, actor models.Actor, id string) error {
	meal, err := s.ownedMeal(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(meal).Update("is_available", false).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to remove meal", err)
	}

	s.logger.Info("meal withdrawn", zap.String("meal_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// ResolvePrices loads the live, available meals for ids.
func (s *Service) ResolvePrices(ctx context.Context, ids []string) (map[string]models.Meal, error) {
	return s.ResolvePricesTx(ctx, s.db, ids)
}

// ResolvePricesTx is ResolvePrices inside tx. It fails as a whole, naming every
// meal that is missing or not for sale.
func (s *Service) ResolvePricesTx(ctx context.Context, tx *gorm.DB, ids []string) (map[string]models.Meal, error) {
	var meals []models.Meal
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&meals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPriceResolutionFailed, "failed to look up meal prices", err)
	}

	byID := make(map[string]models.Meal, len(meals))
	for _, m := range meals {
		byID[m.ID] = m
	}

	var missing, unavailable []string
	for _, id := range ids {
		m, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case !m.IsAvailable:
			unavailable = append(unavailable, m.Name)
		}
	}
	if len(missing) == 0 && len(unavailable) == 0 {
		return byID, nil
	}

	sort.Strings(missing)
	sort.Strings(unavailable)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "unknown meals: "+strings.Join(missing, ", "))
	}
	if len(unavailable) > 0 {
		parts = append(parts, "no longer available: "+strings.Join(unavailable, ", "))
	}
	return nil, apperrors.New(apperrors.KindPriceResolutionFailed,
		"could not price the cart; "+strings.Join(parts, "; "))
}

func (s *Service) ownedMeal(ctx context.Context, actor models.Actor, id string) (*models.Meal, error) {
	meal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Is(models.RoleAdmin):
	case actor.Is(models.RoleProvider) && meal.ProviderID == actor.ID:
	default:
		return nil, apperrors.New(apperrors.KindForbidden, "you can only change your own meals")
	}
	return meal, nil
}

func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return apperrors.NewValidationError("price must be greater than zero",
			apperrors.ValidationDetail{Field: "price", Message: "must be > 0"})
	}
	return nil
}
