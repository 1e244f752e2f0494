// Package handlers regroupe les helpers partagés par les handlers HTTP.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/apperr"
)

// RespondError traduit une erreur métier en statut HTTP + {"message"}.
// Les erreurs internes sont journalisées, le client ne reçoit que le message générique.
func RespondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"message": apperr.Message(err)})
}

// BadRequest réponse 400 pour un corps illisible
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}
