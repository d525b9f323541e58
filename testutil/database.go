package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"foodhub-api/config"
	"foodhub-api/models"
)

// Password is the plain-text password of every user created by CreateUser.
const Password = "secret123"

// SetupTestDB returns a migrated in-memory database private to t.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser stores a user with role and returns it. The password is Password.
func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	id := uuid.NewString()
	user := &models.User{
		ID:           id,
		Name:         string(role) + " " + id[:8],
		Email:        string(role) + "-" + id[:8] + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateMeal stores an available meal sold by providerID.
func CreateMeal(t *testing.T, db *gorm.DB, providerID, name, price string) *models.Meal {
	t.Helper()

	meal := &models.Meal{
		ProviderID:  providerID,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Category:    "test",
		IsAvailable: true,
	}
	if err := db.Create(meal).Error; err != nil {
		t.Fatalf("failed to create meal: %v", err)
	}
	return meal
}

// CreateOrder stores an order for customerID at status with one line per meal.
// It bypasses checkout and is meant for ledger and review tests.
func CreateOrder(t *testing.T, db *gorm.DB, customerID string, status models.OrderStatus, meals ...*models.Meal) *models.Order {
	t.Helper()

	order := &models.Order{
		CustomerID:    customerID,
		ContactEmail:  "buyer@example.com",
		Address:       SampleAddress(),
		PaymentMethod: models.PaymentCashOnDelivery,
		Status:        status,
	}
	subtotal := decimal.Zero
	for _, m := range meals {
		order.Items = append(order.Items, models.OrderItem{
			MealID:              m.ID,
			ProviderID:          m.ProviderID,
			MealName:            m.Name,
			UnitPriceAtPurchase: m.Price,
			Quantity:            1,
		})
		subtotal = subtotal.Add(m.Price)
	}
	order.Subtotal = subtotal
	order.Tax = decimal.Zero
	order.TotalAmount = subtotal
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	return order
}

// SampleAddress returns a complete shipping address.
func SampleAddress() models.Address {
	return models.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Analytical Row, Flat 3",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "UK",
		Phone:      "+44 20 7946 0000",
	}
}

// Actor returns the actor of user.
func Actor(user *models.User) models.Actor {
	return models.Actor{Role: user.Role, ID: user.ID}
}
