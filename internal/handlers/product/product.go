package product

import (
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/catalog"
	"electrocart_back_end/internal/handlers"
	"electrocart_back_end/internal/middleware"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/services"
)

type ProductHandler struct {
	catalog *catalog.Service
	images  services.ImageStore
}

func NewProductHandler(cat *catalog.Service, images services.ImageStore) *ProductHandler {
	return &ProductHandler{catalog: cat, images: images}
}

// ================== LECTURE ==================

// GET /api/products?featured=true&category=...
func (h *ProductHandler) List(c *gin.Context) {
	filter := models.ProductFilter{
		Featured: c.Query("featured") == "true",
		Category: strings.TrimSpace(c.Query("category")),
	}
	products, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/:slug
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	p, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/products/by-id/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	p, err := h.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/products/search?q=
func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ================== ÉCRITURE (admin) ==================

// productRequest champs + fichiers d'une requête produit, multipart ou JSON
type productRequest struct {
	fields map[string]any
	files  []*multipart.FileHeader
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func readProductRequest(c *gin.Context) (*productRequest, error) {
	req := &productRequest{fields: map[string]any{}}

	if !isMultipart(c) {
		if c.Request.ContentLength == 0 {
			return req, nil
		}
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&req.fields); err != nil {
			return nil, fmt.Errorf("Invalid request body")
		}
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("Invalid multipart form")
	}
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		if key == "images" && len(values) > 1 {
			req.fields[key] = values
			continue
		}
		req.fields[key] = values[0]
	}
	req.files = form.File["images"]
	if len(req.files) > services.MaxUploadFiles {
		return nil, fmt.Errorf("Too many files (max %d)", services.MaxUploadFiles)
	}
	return req, nil
}

// saveUploads écrit les fichiers reçus; en cas d'échec les fichiers déjà écrits sont retirés.
func (h *ProductHandler) saveUploads(c *gin.Context, files []*multipart.FileHeader) ([]string, error) {
	ctx := c.Request.Context()
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := h.images.Save(ctx, f)
		if err != nil {
			h.discard(c, paths)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (h *ProductHandler) discard(c *gin.Context, paths []string) {
	for _, p := range paths {
		if err := h.images.Remove(c.Request.Context(), p); err != nil {
			log.Printf("⚠️ Suppression upload orphelin %s: %v", p, err)
		}
	}
}

// POST /api/products
func (h *ProductHandler) Create(c *gin.Context) {
	req, err := readProductRequest(c)
	if err != nil {
		handlers.BadRequest(c, err.Error())
		return
	}
	in, err := catalog.ParseProductFields(req.fields)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	uploaded, err := h.saveUploads(c, req.files)
	if err != nil {
		log.Printf("❌ Upload images: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Image upload failed"})
		return
	}

	p, err := h.catalog.Create(c.Request.Context(), in, uploaded)
	if err != nil {
		h.discard(c, uploaded)
		handlers.RespondError(c, err)
		return
	}
	c.Set(middleware.AuditResourceKey, p.ID)
	c.JSON(http.StatusCreated, p)
}

// PUT /api/products/:id
// replaceImages=true remplace toute la liste; sinon deleteImages retire des fichiers
// et les nouveaux uploads sont ajoutés à la fin.
func (h *ProductHandler) Update(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.AuditResourceKey, id)

	req, err := readProductRequest(c)
	if err != nil {
		handlers.BadRequest(c, err.Error())
		return
	}
	in, err := catalog.ParseProductFields(req.fields)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	var ops catalog.ImageOps
	if v, ok := req.fields["replaceImages"]; ok {
		ops.Replace = v == true || strings.EqualFold(fmt.Sprint(v), "true")
	}
	if ops.Delete, err = catalog.ParseNameList(req.fields["deleteImages"]); err != nil {
		handlers.BadRequest(c, "deleteImages must be a list of file names")
		return
	}

	if ops.Uploaded, err = h.saveUploads(c, req.files); err != nil {
		log.Printf("❌ Upload images: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Image upload failed"})
		return
	}

	p, err := h.catalog.Update(c.Request.Context(), id, in, ops)
	if err != nil {
		h.discard(c, ops.Uploaded)
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.AuditResourceKey, id)

	if _, err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
