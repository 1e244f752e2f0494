package middleware

import (
	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/utils"
)

// AuditResourceKey clé de contexte où un handler peut déposer l'ID créé
const AuditResourceKey = "audit_resource_id"

// AuditCriticalActions audite l'action après traitement: succès si statut 2xx,
// échec sinon.
func AuditCriticalActions(auditor *utils.Auditor, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := c.Param("id")

		c.Next()

		if id := c.GetString(AuditResourceKey); id != "" {
			resourceID = id
		}
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			auditor.LogAction(c, action, resource, resourceID, nil, nil)
		} else {
			auditor.LogFailedAction(c, action, resource, resourceID, "Action échouée")
		}
	}
}
