package database

import (
	"github.com/lib/pq"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

// TaxonomyRepository handles the reference-data tables: locations,
// service_categories, service_types and service_areas
type TaxonomyRepository struct {
	db DB
}

// NewTaxonomyRepository creates a new TaxonomyRepository
func NewTaxonomyRepository(db DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ListLocations returns all active locations
func (r *TaxonomyRepository) ListLocations() ([]models.Location, error) {
	query := `
		SELECT id, name, state, is_active, created_at
		FROM locations
		WHERE is_active = true
		ORDER BY name
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.State, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// ListCategories returns all active categories
func (r *TaxonomyRepository) ListCategories() ([]models.ServiceCategory, error) {
	query := `
		SELECT id, name, icon, description, is_active, created_at
		FROM service_categories
		WHERE is_active = true
		ORDER BY name
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.ServiceCategory
	for rows.Next() {
		var c models.ServiceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListTypes returns active service types, optionally filtered to a set of
// parent category ids
func (r *TaxonomyRepository) ListTypes(categoryIDs []int64) ([]models.ServiceType, error) {
	query := `
		SELECT t.id, t.category_id, c.name AS category_name, t.name, t.is_active, t.created_at
		FROM service_types t
		JOIN service_categories c ON c.id = t.category_id
		WHERE t.is_active = true
			AND (cardinality($1::bigint[]) = 0 OR t.category_id = ANY($1))
		ORDER BY t.name
	`
	rows, err := r.db.Query(query, pq.Array(categoryIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.ServiceType
	for rows.Next() {
		var t models.ServiceType
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.CategoryName, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// ListAreas returns active service areas for a location
func (r *TaxonomyRepository) ListAreas(locationID int64) ([]models.ServiceArea, error) {
	query := `
		SELECT id, location_id, name, is_active, created_at
		FROM service_areas
		WHERE location_id = $1 AND is_active = true
		ORDER BY name
	`
	rows, err := r.db.Query(query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []models.ServiceArea
	for rows.Next() {
		var a models.ServiceArea
		if err := rows.Scan(&a.ID, &a.LocationID, &a.Name, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// ResolveCategories loads the rows for a set of category ids. Missing ids are
// simply absent from the result; the caller decides what that means.
func (r *TaxonomyRepository) ResolveCategories(ids []int64) ([]models.ServiceCategory, error) {
	query := `
		SELECT id, name, icon, description, is_active, created_at
		FROM service_categories
		WHERE id = ANY($1)
	`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.ServiceCategory
	for rows.Next() {
		var c models.ServiceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ResolveTypes loads the rows for a set of service type ids
func (r *TaxonomyRepository) ResolveTypes(ids []int64) ([]models.ServiceType, error) {
	query := `
		SELECT id, category_id, '' AS category_name, name, is_active, created_at
		FROM service_types
		WHERE id = ANY($1)
	`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.ServiceType
	for rows.Next() {
		var t models.ServiceType
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.CategoryName, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// ResolveAreas loads the rows for a set of service area ids
func (r *TaxonomyRepository) ResolveAreas(ids []int64) ([]models.ServiceArea, error) {
	query := `
		SELECT id, location_id, name, is_active, created_at
		FROM service_areas
		WHERE id = ANY($1)
	`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []models.ServiceArea
	for rows.Next() {
		var a models.ServiceArea
		if err := rows.Scan(&a.ID, &a.LocationID, &a.Name, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}
