package routes

import (
	"github.com/gin-gonic/gin"

	"foodhub-api/handlers"
	"foodhub-api/middleware"
	"foodhub-api/models"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	authRequired := h.Sessions().AuthRequired()

	r.GET("/health", h.Health)

	// ── Public routes ──────────────────────────────────────────────
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)

	r.GET("/meal", h.ListMeals)
	r.GET("/meal/:id", h.GetMeal)
	r.GET("/review/:mealId", h.GetMealReviews)
	r.GET("/order/state-machine", h.GetStateMachineInfo)

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/")
	auth.Use(authRequired)
	{
		auth.GET("/auth/me", h.Me)
		// Customers cancel, providers and admins advance; the ledger decides.
		auth.PUT("/order/status/:id", h.UpdateOrderStatus)
		auth.GET("/order/:id", h.GetOrderDetail)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/")
	customer.Use(authRequired, middleware.RoleRequired(models.RoleCustomer))
	{
		customer.GET("/cart", h.GetCart)
		customer.POST("/cart", h.AddToCart)
		customer.PUT("/cart/update", h.UpdateCartItem)
		customer.POST("/cart/remove", h.RemoveFromCart)
		customer.POST("/cart/clear", h.ClearCart)

		customer.POST("/order", h.PlaceOrder)
		customer.GET("/order/user", h.GetMyOrders)

		customer.GET("/review/eligibility/:mealId", h.GetReviewEligibility)
		customer.POST("/review", h.CreateReview)
	}

	// ── Provider routes ────────────────────────────────────────────
	provider := r.Group("/")
	provider.Use(authRequired, middleware.RoleRequired(models.RoleProvider))
	{
		provider.POST("/meal", h.CreateMeal)
		provider.GET("/order/provider", h.GetProviderOrders)
	}

	// ── Meal owners ────────────────────────────────────────────────
	owner := r.Group("/meal")
	owner.Use(authRequired, middleware.RoleRequired(models.RoleProvider, models.RoleAdmin))
	{
		owner.PUT("/update/:id", h.UpdateMeal)
		owner.DELETE("/delete/:id", h.DeleteMeal)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/")
	admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/order", h.AdminGetAllOrders)
		admin.GET("/users", h.AdminGetAllUsers)
	}
}
