package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/account"
	"electrocart_back_end/internal/handlers"
)

// ================== MOT DE PASSE OUBLIÉ ==================

// POST /api/auth/forgot-password
// La réponse est identique que l'email existe ou non. Hors production, le token est
// renvoyé quand un compte correspond, pour tester sans SMTP.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, "Email is required")
		return
	}

	ticket, err := h.accounts.RequestPasswordReset(c.Request.Context(), input.Email)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"message": account.MsgResetRequested,
	}
	if ticket != nil {
		body["resetToken"] = ticket.Token
		body["resetUrl"] = ticket.URL
	}
	c.JSON(http.StatusOK, body)
}

// ================== RÉINITIALISATION ==================

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), input.Token, input.Password); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
