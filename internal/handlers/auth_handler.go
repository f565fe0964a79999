package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modwarden/backend/internal/auth"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/repository"
)

type AuthHandler struct {
	operatorRepo *repository.OperatorRepository
	jwtService   *auth.JWTService
}

func NewAuthHandler(operatorRepo *repository.OperatorRepository, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		operatorRepo: operatorRepo,
		jwtService:   jwtService,
	}
}

// Register handles operator registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// Hash password
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	operator := &models.Operator{
		ID:           uuid.New(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hashedPassword,
	}

	if err := h.operatorRepo.Create(c.Request.Context(), operator); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create operator")
		return
	}

	// Generate token
	token, err := h.jwtService.GenerateToken(operator.ID, operator.Email)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, models.LoginResponse{
		Token:    token,
		Operator: *operator,
	})
}

// Login handles operator login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	operator, err := h.operatorRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Check password
	if err := auth.CheckPassword(operator.PasswordHash, req.Password); err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Generate token
	token, err := h.jwtService.GenerateToken(operator.ID, operator.Email)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:    token,
		Operator: *operator,
	})
}

// GetMe returns the current operator
func (h *AuthHandler) GetMe(c *gin.Context) {
	operatorID, _ := c.Get("user_id")
	oid := operatorID.(uuid.UUID)

	operator, err := h.operatorRepo.GetByID(c.Request.Context(), oid)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Operator not found")
		return
	}

	c.JSON(http.StatusOK, operator)
}
