package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodhub-api/apperrors"
	"foodhub-api/middleware"
	"foodhub-api/models"
)

type RegisterRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role"`
	Phone    string          `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new account and starts a session. Admin accounts cannot
// be self-registered.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Role == "" {
		req.Role = models.RoleCustomer
	}
	if req.Role != models.RoleCustomer && req.Role != models.RoleProvider {
		writeError(c, apperrors.NewValidationError("invalid role", apperrors.ValidationDetail{
			Field: "role", Message: "must be customer or provider",
		}))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing int64
	if err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		writeError(c, err)
		return
	}
	if existing > 0 {
		writeError(c, apperrors.New(apperrors.KindConflict, "email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(c, err)
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Phone:        req.Phone,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeError(c, apperrors.New(apperrors.KindConflict, "email already registered"))
			return
		}
		writeError(c, err)
		return
	}
	if err := h.sessions.Issue(c, &user); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login checks the password and sets the session cookie
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if err != nil {
		writeError(c, apperrors.New(apperrors.KindUnauthenticated, "invalid email or password"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(c, apperrors.New(apperrors.KindUnauthenticated, "invalid email or password"))
		return
	}
	if err := h.sessions.Issue(c, &user); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *gin.Context) {
	actor := middleware.GetActor(c)

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Where("id = ?", actor.ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(c, apperrors.New(apperrors.KindUnauthenticated, "account no longer exists"))
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
