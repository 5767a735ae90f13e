package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/transferpeer/peerconnect/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// GetCatalog handles GET /api/v1/catalog
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, gin.H{
		"colleges":      h.catalog.Colleges(),
		"fieldsOfStudy": h.catalog.FieldsOfStudy(),
	})
}
