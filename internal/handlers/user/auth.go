package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/account"
	"electrocart_back_end/internal/handlers"
	"electrocart_back_end/internal/middleware"
)

type AuthHandler struct {
	accounts *account.Service
}

func NewAuthHandler(accounts *account.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// ================== AUTH LOCALE ==================

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, "Invalid request body")
		return
	}

	res, err := h.accounts.Register(c.Request.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, "Invalid request body")
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": middleware.MsgNoToken})
		return
	}
	c.JSON(http.StatusOK, u.Public())
}
