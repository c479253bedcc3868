package services

import (
	"fmt"

	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var (
	// ErrUnknownCategory indicates a selected category id does not exist or is inactive
	ErrUnknownCategory = fmt.Errorf("unknown or inactive service category")

	// ErrUnknownType indicates a selected service type id does not exist or is inactive
	ErrUnknownType = fmt.Errorf("unknown or inactive service type")

	// ErrUnknownArea indicates a selected service area id does not exist or is inactive
	ErrUnknownArea = fmt.Errorf("unknown or inactive service area")

	// ErrTypeOutsideCategories indicates a selected type's parent category is
	// not among the selected categories
	ErrTypeOutsideCategories = fmt.Errorf("service type does not belong to a selected category")
)

// TaxonomyService exposes the reference taxonomy and validates provider selections
type TaxonomyService struct {
	repo *database.TaxonomyRepository
}

// NewTaxonomyService creates a new taxonomy service
func NewTaxonomyService(repo *database.TaxonomyRepository) *TaxonomyService {
	return &TaxonomyService{repo: repo}
}

// Locations returns all active locations
func (s *TaxonomyService) Locations() ([]models.Location, error) {
	return s.repo.ListLocations()
}

// Categories returns all active categories
func (s *TaxonomyService) Categories() ([]models.ServiceCategory, error) {
	return s.repo.ListCategories()
}

// Types returns active service types, optionally filtered by parent categories
func (s *TaxonomyService) Types(categoryIDs []int64) ([]models.ServiceType, error) {
	return s.repo.ListTypes(categoryIDs)
}

// Areas returns active service areas within a location
func (s *TaxonomyService) Areas(locationID int64) ([]models.ServiceArea, error) {
	return s.repo.ListAreas(locationID)
}

// ValidateSelection checks a provider's taxonomy picks: every id must exist
// and be active, and every selected type's parent category must be among the
// selected categories. Pure consistency rules live in CheckSelection; this
// method resolves the ids first.
func (s *TaxonomyService) ValidateSelection(categoryIDs, typeIDs, areaIDs []int64) error {
	categories, err := s.repo.ResolveCategories(categoryIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve categories: %w", err)
	}
	types, err := s.repo.ResolveTypes(typeIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve service types: %w", err)
	}
	areas, err := s.repo.ResolveAreas(areaIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve service areas: %w", err)
	}

	return CheckSelection(categoryIDs, typeIDs, areaIDs, categories, types, areas)
}

// CheckSelection applies the selection rules against already-resolved rows.
// It has no dependencies so the rules can be tested without a database.
func CheckSelection(
	categoryIDs, typeIDs, areaIDs []int64,
	categories []models.ServiceCategory,
	types []models.ServiceType,
	areas []models.ServiceArea,
) error {
	activeCategories := make(map[int64]bool, len(categories))
	for _, c := range categories {
		if c.IsActive {
			activeCategories[c.ID] = true
		}
	}
	for _, id := range categoryIDs {
		if !activeCategories[id] {
			return ErrUnknownCategory
		}
	}

	activeTypes := make(map[int64]models.ServiceType, len(types))
	for _, t := range types {
		if t.IsActive {
			activeTypes[t.ID] = t
		}
	}
	selectedCategories := make(map[int64]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		selectedCategories[id] = true
	}
	for _, id := range typeIDs {
		t, ok := activeTypes[id]
		if !ok {
			return ErrUnknownType
		}
		if !selectedCategories[t.CategoryID] {
			return ErrTypeOutsideCategories
		}
	}

	activeAreas := make(map[int64]bool, len(areas))
	for _, a := range areas {
		if a.IsActive {
			activeAreas[a.ID] = true
		}
	}
	for _, id := range areaIDs {
		if !activeAreas[id] {
			return ErrUnknownArea
		}
	}

	return nil
}
