package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bharatabhiyan/marketplace-backend/internal/services"
)

// TaxonomyHandler serves the reference taxonomy used by application forms
// and directory filters
type TaxonomyHandler struct {
	taxonomy *services.TaxonomyService
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(taxonomy *services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: taxonomy}
}

// parseIDList parses a comma-separated query value like "1,2,3" into ids.
// Blank values yield an empty list.
func parseIDList(value string) ([]int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Locations handles GET /api/taxonomy/locations
func (h *TaxonomyHandler) Locations(c *gin.Context) {
	locations, err := h.taxonomy.Locations()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"locations": locations})
}

// Categories handles GET /api/taxonomy/categories
func (h *TaxonomyHandler) Categories(c *gin.Context) {
	categories, err := h.taxonomy.Categories()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"categories": categories})
}

// Types handles GET /api/taxonomy/types?category_ids=1,2
func (h *TaxonomyHandler) Types(c *gin.Context) {
	categoryIDs, err := parseIDList(c.Query("category_ids"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid category_ids", nil)
		return
	}

	types, err := h.taxonomy.Types(categoryIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"types": types})
}

// Areas handles GET /api/taxonomy/areas?location_id=1
func (h *TaxonomyHandler) Areas(c *gin.Context) {
	locationID, err := strconv.ParseInt(c.Query("location_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "location_id is required", nil)
		return
	}

	areas, err := h.taxonomy.Areas(locationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"areas": areas})
}
