package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/handlers"
	"electrocart_back_end/internal/orders"
)

// GetSalesStats GET /api/analytics
func GetSalesStats(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.SalesStats(c.Request.Context())
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
