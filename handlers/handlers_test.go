package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodhub-api/config"
	"foodhub-api/metrics"
	"foodhub-api/models"
	"foodhub-api/server"
	"foodhub-api/testutil"
)

type env struct {
	db  *gorm.DB
	srv *httptest.Server
}

func newEnv(t *testing.T) *env {
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{
		Server:   config.ServerConfig{CORSOrigin: "http://localhost:3000"},
		Session:  config.SessionConfig{Secret: []byte("test-secret"), CookieName: "session", TTL: time.Hour},
		Checkout: config.CheckoutConfig{TaxPolicy: "flat", TaxFlat: decimal.RequireFromString("3.58")},
	}
	router, err := server.NewRouter(cfg, db, metrics.New(), zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &env{db: db, srv: srv}
}

type session struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *env) anonymous(t *testing.T) *session {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &session{t: t, base: e.srv.URL, client: &http.Client{Jar: jar}}
}

func (e *env) login(t *testing.T, user *models.User) *session {
	s := e.anonymous(t)
	status, _ := s.do(http.MethodPost, "/auth/login", map[string]string{"email": user.Email, "password": testutil.Password})
	require.Equal(t, http.StatusOK, status)
	return s
}

func (s *session) do(method, path string, body any, headers ...string) (int, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.base+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

type cartBody struct {
	Items []struct {
		MealID   string `json:"mealId"`
		Quantity int    `json:"quantity"`
		Meal     struct {
			Name  string          `json:"name"`
			Price decimal.Decimal `json:"price"`
		} `json:"meal"`
	} `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func checkoutBody() map[string]any {
	return map[string]any{
		"email":         "ada@example.com",
		"address":       testutil.SampleAddress(),
		"paymentMethod": models.PaymentCashOnDelivery,
		"totalAmount":   1,
		"items":         []map[string]any{{"mealId": "whatever", "quantity": 1, "price": 0.01}},
	}
}

type world struct {
	*env
	customer     *models.User
	provider     *models.User
	admin        *models.User
	mealA, mealB *models.Meal
}

func newWorld(t *testing.T) world {
	e := newEnv(t)
	provider := testutil.CreateUser(t, e.db, models.RoleProvider)
	return world{
		env:      e,
		customer: testutil.CreateUser(t, e.db, models.RoleCustomer),
		provider: provider,
		admin:    testutil.CreateUser(t, e.db, models.RoleAdmin),
		mealA:    testutil.CreateMeal(t, e.db, provider.ID, "A", "10"),
		mealB:    testutil.CreateMeal(t, e.db, provider.ID, "B", "5"),
	}
}

func (w world) placeOrder(t *testing.T, s *session) models.Order {
	status, _ := s.do(http.MethodPost, "/cart", map[string]any{"mealId": w.mealA.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(http.MethodPost, "/cart", map[string]any{"mealId": w.mealB.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, status)

	status, data := s.do(http.MethodPost, "/order", checkoutBody())
	require.Equal(t, http.StatusCreated, status, string(data))
	return decode[models.Order](t, data)
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)
	s := e.anonymous(t)

	status, data := s.do(http.MethodPost, "/auth/register", map[string]string{
		"name": "Grace", "email": "Grace@Example.com", "password": "hopper1",
	})
	require.Equal(t, http.StatusCreated, status, string(data))
	assert.NotContains(t, string(data), "passwordHash")

	status, data = s.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[struct{ User models.User }](t, data)
	assert.Equal(t, "grace@example.com", me.User.Email)
	assert.Equal(t, models.RoleCustomer, me.User.Role)

	status, _ = s.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, data = s.do(http.MethodPost, "/auth/register", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hopper1",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decode[errorBody](t, data).Code)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	s := newEnv(t).anonymous(t)

	status, data := s.do(http.MethodPost, "/auth/register", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "letmein", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, data).Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)
	user := testutil.CreateUser(t, e.db, models.RoleCustomer)

	status, data := e.anonymous(t).do(http.MethodPost, "/auth/login", map[string]string{"email": user.Email, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", decode[errorBody](t, data).Error)
}

func TestCart_RequiresSession(t *testing.T) {
	status, data := newEnv(t).anonymous(t).do(http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusUnauthorized, status)
	body := decode[errorBody](t, data)
	assert.Equal(t, "UNAUTHENTICATED", body.Code)
	assert.NotEmpty(t, body.Error)
}

func TestCart_Endpoints(t *testing.T) {
	w := newWorld(t)
	s := w.login(t, w.customer)

	status, data := s.do(http.MethodPost, "/cart", map[string]any{"mealId": w.mealA.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, status, string(data))
	status, data = s.do(http.MethodPost, "/cart", map[string]any{"mealId": w.mealB.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, status)
	cart := decode[cartBody](t, data)
	assert.Len(t, cart.Items, 2)
	assert.True(t, decimal.NewFromInt(25).Equal(cart.Subtotal))
	assert.True(t, decimal.RequireFromString("3.58").Equal(cart.Tax), "tax %s", cart.Tax)
	assert.True(t, decimal.RequireFromString("28.58").Equal(cart.Total), "total %s", cart.Total)

	status, data = s.do(http.MethodPost, "/cart", map[string]any{"mealId": w.mealA.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", decode[errorBody](t, data).Code)

	status, data = s.do(http.MethodPut, "/cart/update", map[string]any{"mealId": w.mealA.ID, "quantity": 0})
	require.Equal(t, http.StatusOK, status)
	cart = decode[cartBody](t, data)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, w.mealB.ID, cart.Items[0].MealID)

	status, data = s.do(http.MethodPost, "/cart/remove", map[string]any{"mealId": w.mealA.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[cartBody](t, data).Items, 1)

	status, data = s.do(http.MethodPost, "/cart/clear", nil)
	require.Equal(t, http.StatusOK, status)
	cart = decode[cartBody](t, data)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestCart_ProviderForbidden(t *testing.T) {
	w := newWorld(t)

	status, _ := w.login(t, w.provider).do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestPlaceOrder(t *testing.T) {
	w := newWorld(t)
	s := w.login(t, w.customer)

	order := w.placeOrder(t, s)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("28.58").Equal(order.TotalAmount))
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "London", order.Address.City)

	status, data := s.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[cartBody](t, data).Items)

	status, data = s.do(http.MethodPost, "/order", checkoutBody())
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EMPTY_CART", decode[errorBody](t, data).Code)
}

func TestPlaceOrder_IdempotencyKey(t *testing.T) {
	w := newWorld(t)
	s := w.login(t, w.customer)
	status, _ := s.do(http.MethodPost, "/cart", map[string]any{"mealId": w.mealA.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, status)

	status, data := s.do(http.MethodPost, "/order", checkoutBody(), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, status, string(data))
	first := decode[models.Order](t, data)

	status, data = s.do(http.MethodPost, "/order", checkoutBody(), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, status, string(data))
	assert.Equal(t, first.ID, decode[models.Order](t, data).ID)
}

func TestPlaceOrder_ValidationDetails(t *testing.T) {
	w := newWorld(t)
	s := w.login(t, w.customer)
	body := checkoutBody()
	addr := testutil.SampleAddress()
	addr.PostalCode = ""
	body["address"] = addr

	status, data := s.do(http.MethodPost, "/order", body)
	assert.Equal(t, http.StatusBadRequest, status)
	errBody := decode[errorBody](t, data)
	assert.Equal(t, "VALIDATION_ERROR", errBody.Code)
	require.Len(t, errBody.Details, 1)
	assert.Equal(t, "address.postalCode", errBody.Details[0].Field)
}

func TestOrderStatus_Lifecycle(t *testing.T) {
	w := newWorld(t)
	customer := w.login(t, w.customer)
	provider := w.login(t, w.provider)
	order := w.placeOrder(t, customer)

	status, data := provider.do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": "PREPARING"})
	require.Equal(t, http.StatusOK, status, string(data))
	res := decode[map[string]string](t, data)
	assert.Equal(t, map[string]string{"id": order.ID, "previousStatus": "PENDING", "status": "PREPARING"}, res)

	status, data = provider.do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": "DELIVERED"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ILLEGAL_TRANSITION", decode[errorBody](t, data).Code)

	status, _ = provider.do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": "out_for_delivery"})
	require.Equal(t, http.StatusOK, status)

	status, data = customer.do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": "CANCELLED"})
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, decode[errorBody](t, data).Error)

	status, _ = provider.do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": "DELIVERED"})
	require.Equal(t, http.StatusOK, status)

	status, data = provider.do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": "CANCELLED"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ORDER_FINALIZED", decode[errorBody](t, data).Code)

	status, data = customer.do(http.MethodGet, "/order/"+order.ID, nil)
	require.Equal(t, http.StatusOK, status)
	detail := decode[models.Order](t, data)
	assert.Equal(t, models.StatusDelivered, detail.Status)
	assert.Len(t, detail.StatusHistory, 4)
}

func TestOrderStatus_UnknownStatus(t *testing.T) {
	w := newWorld(t)
	order := w.placeOrder(t, w.login(t, w.customer))

	status, data := w.login(t, w.admin).do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, data).Code)
}

func TestOrderViews(t *testing.T) {
	w := newWorld(t)
	customer := w.login(t, w.customer)
	provider := w.login(t, w.provider)
	admin := w.login(t, w.admin)
	live := w.placeOrder(t, customer)
	done := w.placeOrder(t, customer)
	for _, next := range []string{"PREPARING", "OUT_FOR_DELIVERY", "DELIVERED"} {
		status, _ := provider.do(http.MethodPut, "/order/status/"+done.ID, map[string]string{"status": next})
		require.Equal(t, http.StatusOK, status)
	}

	status, data := customer.do(http.MethodGet, "/order/user", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Order](t, data), 2)

	status, data = provider.do(http.MethodGet, "/order/provider?type=incoming", nil)
	require.Equal(t, http.StatusOK, status)
	incoming := decode[[]models.Order](t, data)
	require.Len(t, incoming, 1)
	assert.Equal(t, live.ID, incoming[0].ID)

	status, data = provider.do(http.MethodGet, "/order/provider?type=history", nil)
	require.Equal(t, http.StatusOK, status)
	history := decode[[]models.Order](t, data)
	require.Len(t, history, 1)
	assert.Equal(t, done.ID, history[0].ID)

	status, _ = provider.do(http.MethodGet, "/order/provider?type=archived", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, data = admin.do(http.MethodGet, "/order", nil)
	require.Equal(t, http.StatusOK, status)
	summary := decode[struct {
		Count        int                        `json:"count"`
		OrderSummary map[models.OrderStatus]int `json:"orderSummary"`
		TotalRevenue decimal.Decimal            `json:"totalRevenue"`
	}](t, data)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 1, summary.OrderSummary[models.StatusDelivered])
	assert.True(t, decimal.RequireFromString("28.58").Equal(summary.TotalRevenue))

	status, _ = customer.do(http.MethodGet, "/order", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestOrderDetail_OtherCustomerForbidden(t *testing.T) {
	w := newWorld(t)
	order := w.placeOrder(t, w.login(t, w.customer))
	stranger := testutil.CreateUser(t, w.db, models.RoleCustomer)

	status, _ := w.login(t, stranger).do(http.MethodGet, "/order/"+order.ID, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestReviews(t *testing.T) {
	w := newWorld(t)
	customer := w.login(t, w.customer)
	provider := w.login(t, w.provider)
	order := w.placeOrder(t, customer)

	status, data := customer.do(http.MethodGet, "/review/eligibility/"+w.mealA.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"canReview":false}`, string(data))

	status, data = customer.do(http.MethodPost, "/review", map[string]any{"mealId": w.mealA.ID, "rating": 4.5})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_ELIGIBLE", decode[errorBody](t, data).Code)

	for _, next := range []string{"PREPARING", "OUT_FOR_DELIVERY", "DELIVERED"} {
		status, _ = provider.do(http.MethodPut, "/order/status/"+order.ID, map[string]string{"status": next})
		require.Equal(t, http.StatusOK, status)
	}

	status, data = customer.do(http.MethodGet, "/review/eligibility/"+w.mealA.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"canReview":true}`, string(data))

	status, data = customer.do(http.MethodPost, "/review", map[string]any{"mealId": w.mealA.ID, "rating": 4.5, "comment": "crispy"})
	require.Equal(t, http.StatusCreated, status, string(data))

	status, data = customer.do(http.MethodPost, "/review", map[string]any{"mealId": w.mealA.ID, "rating": 2})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decode[errorBody](t, data).Code)

	status, data = w.anonymous(t).do(http.MethodGet, "/review/"+w.mealA.ID, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Count         int     `json:"count"`
		AverageRating float64 `json:"averageRating"`
	}](t, data)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 4.5, list.AverageRating)
}

func TestMeals(t *testing.T) {
	w := newWorld(t)
	provider := w.login(t, w.provider)

	status, data := provider.do(http.MethodPost, "/meal", map[string]any{"name": "Bibimbap", "price": 13.5, "category": "korean"})
	require.Equal(t, http.StatusCreated, status, string(data))
	meal := decode[models.Meal](t, data)
	assert.Equal(t, w.provider.ID, meal.ProviderID)

	status, data = provider.do(http.MethodPut, "/meal/update/"+meal.ID, map[string]any{"price": 14})
	require.Equal(t, http.StatusOK, status, string(data))
	assert.True(t, decimal.NewFromInt(14).Equal(decode[models.Meal](t, data).Price))

	status, _ = w.login(t, w.customer).do(http.MethodPost, "/meal", map[string]any{"name": "x", "price": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = provider.do(http.MethodDelete, "/meal/delete/"+meal.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, data = w.anonymous(t).do(http.MethodGet, "/meal?available=true&search=bibim", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Meal](t, data))

	status, _ = w.anonymous(t).do(http.MethodGet, "/meal/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStateMachineInfoAndOps(t *testing.T) {
	s := newEnv(t).anonymous(t)

	status, data := s.do(http.MethodGet, "/order/state-machine", nil)
	require.Equal(t, http.StatusOK, status)
	info := decode[struct {
		Transitions    []map[string]string `json:"transitions"`
		TerminalStates []string            `json:"terminalStates"`
	}](t, data)
	assert.Len(t, info.Transitions, 12)
	assert.ElementsMatch(t, []string{"DELIVERED", "CANCELLED"}, info.TerminalStates)

	status, _ = s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	status, data = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "foodhub_http_requests_total")
}
