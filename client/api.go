package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"foodhub-api/ledger"
	"foodhub-api/models"
	"foodhub-api/review"
)

const IdempotencyHeader = "Idempotency-Key"

type RegisterInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role,omitempty"`
	Phone    string          `json:"phone,omitempty"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login starts a session; the cookie is kept for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out userEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// MealFilter narrows Meals; zero fields are not sent.
type MealFilter struct {
	ProviderID string
	Search     string
	Available  *bool
}

func (c *Client) Meals(ctx context.Context, f MealFilter) ([]models.Meal, error) {
	q := url.Values{}
	if f.ProviderID != "" {
		q.Set("providerId", f.ProviderID)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Available != nil {
		if *f.Available {
			q.Set("available", "true")
		} else {
			q.Set("available", "false")
		}
	}
	path := "/meal"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var meals []models.Meal
	if err := c.do(ctx, http.MethodGet, path, nil, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

func (c *Client) Meal(ctx context.Context, id string) (*models.Meal, error) {
	var meal models.Meal
	if err := c.do(ctx, http.MethodGet, "/meal/"+url.PathEscape(id), nil, &meal); err != nil {
		return nil, err
	}
	return &meal, nil
}

// Cart is the server's view of the customer's cart. Tax and Total are what
// checkout would charge for it now.
type Cart struct {
	Items    []models.CartLine `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Tax      decimal.Decimal   `json:"tax"`
	Total    decimal.Decimal   `json:"total"`
}

type cartItem struct {
	MealID   string `json:"mealId"`
	Quantity int    `json:"quantity,omitempty"`
}

func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	return c.cartCall(ctx, http.MethodGet, "/cart", nil)
}

// AddToCart merges quantity into the line for mealID.
func (c *Client) AddToCart(ctx context.Context, mealID string, quantity int) (*Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart", cartItem{MealID: mealID, Quantity: quantity})
}

// UpdateCartItem sets an absolute quantity. Below 1 removes the line.
func (c *Client) UpdateCartItem(ctx context.Context, mealID string, quantity int) (*Cart, error) {
	return c.cartCall(ctx, http.MethodPut, "/cart/update", map[string]any{"mealId": mealID, "quantity": quantity})
}

func (c *Client) RemoveFromCart(ctx context.Context, mealID string) (*Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart/remove", cartItem{MealID: mealID})
}

func (c *Client) ClearCart(ctx context.Context) (*Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart/clear", nil)
}

func (c *Client) cartCall(ctx context.Context, method, path string, body any) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, method, path, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// OrderLine is sent for display only; the server prices the stored cart.
type OrderLine struct {
	MealID   string          `json:"mealId"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type OrderInput struct {
	Email         string          `json:"email"`
	Address       models.Address  `json:"address"`
	PaymentMethod string          `json:"paymentMethod"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Items         []OrderLine     `json:"items"`
}

// PlaceOrder submits checkout. A non-empty key makes resubmission return the
// order created by the first attempt.
func (c *Client) PlaceOrder(ctx context.Context, in OrderInput, idempotencyKey string) (*models.Order, error) {
	var headers []string
	if idempotencyKey != "" {
		headers = []string{IdempotencyHeader, idempotencyKey}
	}
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/order", in, &order, headers...); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/order/user", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) ProviderOrders(ctx context.Context, view ledger.View) ([]models.Order, error) {
	var orders []models.Order
	path := "/order/provider?type=" + url.QueryEscape(string(view))
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AdminOrders is the admin dashboard listing.
type AdminOrders struct {
	Orders       []models.Order             `json:"orders"`
	Count        int                        `json:"count"`
	OrderSummary map[models.OrderStatus]int `json:"orderSummary"`
	TotalRevenue decimal.Decimal            `json:"totalRevenue"`
}

func (c *Client) AdminOrders(ctx context.Context) (*AdminOrders, error) {
	var out AdminOrders
	if err := c.do(ctx, http.MethodGet, "/order", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Order(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, "/order/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, note string) (*ledger.TransitionResult, error) {
	body := map[string]string{"status": string(status)}
	if note != "" {
		body["note"] = note
	}
	var out ledger.TransitionResult
	if err := c.do(ctx, http.MethodPut, "/order/status/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reviews(ctx context.Context, mealID string) (*review.MealReviews, error) {
	var out review.MealReviews
	if err := c.do(ctx, http.MethodGet, "/review/"+url.PathEscape(mealID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Eligibility asks the server whether the session's customer may review mealID.
func (c *Client) Eligibility(ctx context.Context, mealID string) (bool, error) {
	var out struct {
		CanReview bool `json:"canReview"`
	}
	if err := c.do(ctx, http.MethodGet, "/review/eligibility/"+url.PathEscape(mealID), nil, &out); err != nil {
		return false, err
	}
	return out.CanReview, nil
}
