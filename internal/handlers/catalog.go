package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// GET /catalog
func (h *CatalogHandler) List(c *gin.Context) {
	RespondOK(c, gin.H{"items": h.catalog.Items()})
}
