package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodhub-api/cart"
	"foodhub-api/catalog"
	"foodhub-api/checkout"
	"foodhub-api/config"
	"foodhub-api/handlers"
	"foodhub-api/ledger"
	"foodhub-api/metrics"
	"foodhub-api/middleware"
	"foodhub-api/review"
	"foodhub-api/routes"
	"foodhub-api/statemachine"
)

// NewRouter wires the domain services over db and returns the HTTP router.
func NewRouter(cfg *config.Config, db *gorm.DB, m *metrics.Metrics, logger *zap.Logger) (*gin.Engine, error) {
	tax, err := checkout.TaxPolicyFromConfig(cfg.Checkout)
	if err != nil {
		return nil, err
	}

	machine := statemachine.New(statemachine.Policy{
		OperatorCancelAfterDispatch: cfg.Order.OperatorCancelAfterDispatch,
	})
	meals := catalog.NewService(db, logger.Named("catalog"))
	carts := cart.NewStore(db, logger.Named("cart"))

	h := handlers.New(handlers.Deps{
		DB:       db,
		Sessions: middleware.NewSessions(cfg.Session),
		Catalog:  meals,
		Cart:     carts,
		Checkout: checkout.NewService(db, carts, meals, tax, m, logger.Named("checkout")),
		Ledger:   ledger.New(db, machine, m, logger.Named("ledger")),
		Reviews:  review.NewService(db, logger.Named("review")),
		Logger:   logger.Named("http"),
	})

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger.Named("access")),
		middleware.Metrics(m),
		middleware.CORS(cfg.Server.CORSOrigin),
	)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	routes.SetupRoutes(r, h)

	return r, nil
}
