package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
	"github.com/bharatabhiyan/marketplace-backend/internal/middleware"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
)

// ProviderHandler handles the provider application profile and the public
// provider directory
type ProviderHandler struct {
	applications *services.ApplicationService
	uploads      *config.UploadConfig
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(applications *services.ApplicationService, uploads *config.UploadConfig) *ProviderHandler {
	return &ProviderHandler{
		applications: applications,
		uploads:      uploads,
	}
}

// SaveProfile handles POST /api/providers/profile (multipart). It creates the
// application draft or updates an editable one; documents already on file are
// kept unless a replacement is uploaded.
func (h *ProviderHandler) SaveProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	categoryIDs, err := parseIDList(c.PostForm("category_ids"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid category_ids", nil)
		return
	}
	typeIDs, err := parseIDList(c.PostForm("type_ids"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid type_ids", nil)
		return
	}
	areaIDs, err := parseIDList(c.PostForm("area_ids"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid area_ids", nil)
		return
	}

	cityID, _ := strconv.ParseInt(c.PostForm("city_id"), 10, 64)

	input := &services.ProfileInput{
		WhatsappNumber:     c.PostForm("whatsapp_number"),
		BusinessName:       c.PostForm("business_name"),
		Experience:         c.PostForm("experience"),
		BusinessAddress:    c.PostForm("business_address"),
		CityID:             cityID,
		Pincode:            c.PostForm("pincode"),
		ServiceDescription: c.PostForm("service_description"),
		AddressProofType:   c.PostForm("address_proof_type"),
		CategoryIDs:        categoryIDs,
		TypeIDs:            typeIDs,
		AreaIDs:            areaIDs,
	}

	// All documents are optional at draft time; completeness is enforced on submit
	docs := []struct {
		field string
		dst   *string
	}{
		{"aadhaar_front", &input.AadhaarFront},
		{"aadhaar_back", &input.AadhaarBack},
		{"address_proof", &input.AddressProof},
		{"profile_photo", &input.ProfilePhoto},
		{"skill_certificate", &input.SkillCertificate},
	}
	for _, doc := range docs {
		path, err := saveUpload(c, h.uploads, doc.field, false)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		*doc.dst = path
	}

	profile, err := h.applications.SaveProfile(userCtx.UserID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Profile saved", gin.H{"application": profile})
}

// Me handles GET /api/providers/me
func (h *ProviderHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.applications.GetByUser(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"application": profile})
}

// Submit handles POST /api/providers/submit
func (h *ProviderHandler) Submit(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.applications.Submit(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Application submitted for verification", gin.H{"application": profile})
}

// Search handles GET /api/providers/search?category_ids=&type_ids=&area_ids=
// It is public and only ever returns VERIFIED providers.
func (h *ProviderHandler) Search(c *gin.Context) {
	categoryIDs, err := parseIDList(c.Query("category_ids"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid category_ids", nil)
		return
	}
	typeIDs, err := parseIDList(c.Query("type_ids"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid type_ids", nil)
		return
	}
	areaIDs, err := parseIDList(c.Query("area_ids"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid area_ids", nil)
		return
	}

	providers, err := h.applications.SearchVerified(categoryIDs, typeIDs, areaIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"providers": providers,
		"count":     len(providers),
	})
}
