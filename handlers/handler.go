package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodhub-api/apperrors"
	"foodhub-api/cart"
	"foodhub-api/catalog"
	"foodhub-api/checkout"
	"foodhub-api/ledger"
	"foodhub-api/middleware"
	"foodhub-api/review"
)

// Handler serves the REST API. Every route reads the caller from the session
// and passes it explicitly to the domain services.
type Handler struct {
	db       *gorm.DB
	sessions *middleware.Sessions
	catalog  *catalog.Service
	cart     *cart.Store
	checkout *checkout.Service
	ledger   *ledger.Ledger
	reviews  *review.Service
	logger   *zap.Logger
}

type Deps struct {
	DB       *gorm.DB
	Sessions *middleware.Sessions
	Catalog  *catalog.Service
	Cart     *cart.Store
	Checkout *checkout.Service
	Ledger   *ledger.Ledger
	Reviews  *review.Service
	Logger   *zap.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		db:       d.DB,
		sessions: d.Sessions,
		catalog:  d.Catalog,
		cart:     d.Cart,
		checkout: d.Checkout,
		ledger:   d.Ledger,
		reviews:  d.Reviews,
		logger:   d.Logger,
	}
}

func (h *Handler) Sessions() *middleware.Sessions {
	return h.sessions
}

func writeError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the body into req and writes a validation error on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, apperrors.FromBindError(err))
		return false
	}
	return true
}
