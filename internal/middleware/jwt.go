package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/models"
)

const (
	MsgNoToken      = "No token"
	MsgTokenInvalid = "Token invalid"

	ctxUser = "user"
)

// Authenticator vérifie un token et recharge l'utilisateur (account.Service)
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired lit le header `Authorization: Bearer <token>` et place l'utilisateur
// dans le contexte Gin (user, user_id, email, is_admin).
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgNoToken})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				log.Printf("❌ Erreur authentification: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgTokenInvalid})
			return
		}

		c.Set(ctxUser, user)
		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		c.Set("is_admin", user.IsAdmin)
		c.Next()
	}
}

// CurrentUser renvoie l'utilisateur posé par AuthRequired
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
