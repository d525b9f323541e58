package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of a food order
type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// ParseOrderStatus accepts any letter case.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentCashOnDelivery is the only accepted payment method.
const PaymentCashOnDelivery = "cashOnDelivery"

// Order is immutable after creation except for Status.
type Order struct {
	ID             string               `json:"id" gorm:"primaryKey;size:36"`
	CustomerID     string               `json:"customerId" gorm:"size:36;not null;index"`
	ContactEmail   string               `json:"email"`
	Address        Address              `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	PaymentMethod  string               `json:"paymentMethod" gorm:"not null"`
	Subtotal       decimal.Decimal      `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Tax            decimal.Decimal      `json:"tax" gorm:"type:decimal(10,2);not null"`
	TotalAmount    decimal.Decimal      `json:"totalAmount" gorm:"type:decimal(10,2);not null"`
	Status         OrderStatus          `json:"status" gorm:"size:32;not null;index;default:'PENDING'"`
	IdempotencyKey *string              `json:"idempotencyKey,omitempty" gorm:"size:64;uniqueIndex"`
	Items          []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	StatusHistory  []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// ContainsMeal reports whether any line item references mealID.
func (o Order) ContainsMeal(mealID string) bool {
	for _, it := range o.Items {
		if it.MealID == mealID {
			return true
		}
	}
	return false
}

// InvolvesProvider reports whether any line item was sold by providerID.
func (o Order) InvolvesProvider(providerID string) bool {
	for _, it := range o.Items {
		if it.ProviderID == providerID {
			return true
		}
	}
	return false
}

// OrderItem is a frozen snapshot of a cart line at checkout.
type OrderItem struct {
	ID                  string          `json:"id" gorm:"primaryKey;size:36"`
	OrderID             string          `json:"orderId" gorm:"size:36;not null;index"`
	MealID              string          `json:"mealId" gorm:"size:36;not null;index"`
	ProviderID          string          `json:"providerId" gorm:"size:36;not null;index"`
	MealName            string          `json:"mealName"`
	UnitPriceAtPurchase decimal.Decimal `json:"unitPriceAtPurchase" gorm:"type:decimal(10,2);not null"`
	Quantity            int             `json:"quantity" gorm:"not null"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    string      `json:"orderId" gorm:"size:36;not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  string      `json:"changedBy"`
	Role       UserRole    `json:"role"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}
