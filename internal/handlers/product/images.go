package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/handlers"
	"electrocart_back_end/internal/services"
)

// =========================
// 🖼️ LISTE DES UPLOADS
// =========================

// ListUploads GET /api/uploads/list: noms des images présentes dans le stockage
func ListUploads(images services.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := images.List(c.Request.Context())
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		c.JSON(http.StatusOK, names)
	}
}
