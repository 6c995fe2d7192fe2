package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inventory/internal/models"
)

// sortColumns whitelists the fields a page request may sort by. GORM's Order
// clause interpolates the string, so anything outside this map falls back to
// the store-default ordering.
var sortColumns = map[string]string{
	"name":      "name",
	"category":  "category",
	"price":     "price",
	"quantity":  "quantity",
	"createdAt": "created_at",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetPage retrieves one page of products with optional sorting.
func (r *GORMProductRepository) GetPage(req PageRequest) (*Page, error) {
	return r.paginate(r.db.Model(&models.Product{}), req)
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByCategory retrieves a page of products whose category matches exactly.
func (r *GORMProductRepository) GetByCategory(category string, req PageRequest) (*Page, error) {
	query := r.db.Model(&models.Product{}).Where("category = ?", category)
	return r.paginate(query, req)
}

// SearchByName retrieves a page of products whose name contains the keyword.
// Case handling follows the database collation.
func (r *GORMProductRepository) SearchByName(keyword string, req PageRequest) (*Page, error) {
	query := r.db.Model(&models.Product{}).Where("name LIKE ?", "%"+keyword+"%")
	return r.paginate(query, req)
}

// AdvancedSearch retrieves a page of products matching every filter that is
// present. Absent filters impose no constraint; the price range is inclusive.
func (r *GORMProductRepository) AdvancedSearch(filter SearchFilter, req PageRequest) (*Page, error) {
	query := r.db.Model(&models.Product{})
	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	return r.paginate(query, req)
}

// ListCategories returns the distinct non-empty categories, sorted.
func (r *GORMProductRepository) ListCategories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Product{}).
		Where("category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Count returns the total number of products.
func (r *GORMProductRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// CountByCategory returns the number of products in one category.
func (r *GORMProductRepository) CountByCategory(category string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("category = ?", category).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count products in category %s: %w", category, err)
	}
	return count, nil
}

// SumPrice returns the sum of all product prices, or nil when the table is
// empty. The caller decides whether absence means zero.
func (r *GORMProductRepository) SumPrice() (*float64, error) {
	return r.aggregatePrice("SUM(price)")
}

// AvgPrice returns the average product price, or nil when the table is empty.
func (r *GORMProductRepository) AvgPrice() (*float64, error) {
	return r.aggregatePrice("AVG(price)")
}

func (r *GORMProductRepository) aggregatePrice(expr string) (*float64, error) {
	var result sql.NullFloat64
	row := r.db.Model(&models.Product{}).Select(expr).Row()
	if err := row.Scan(&result); err != nil {
		return nil, fmt.Errorf("failed to compute %s: %w", expr, err)
	}
	if !result.Valid {
		return nil, nil
	}
	return &result.Float64, nil
}

// FindBelowQuantity returns all products with quantity strictly below the
// threshold, in no particular order.
func (r *GORMProductRepository) FindBelowQuantity(threshold int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("quantity < ?", threshold).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products below quantity %d: %w", threshold, err)
	}
	return products, nil
}

// FindMostRecent returns one page of products ordered by creation time,
// newest first.
func (r *GORMProductRepository) FindMostRecent(req PageRequest) ([]models.Product, error) {
	req = req.Normalize()
	var products []models.Product
	err := r.db.Order("created_at DESC").
		Offset(req.Offset()).
		Limit(req.Size).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find most recent products: %w", err)
	}
	return products, nil
}

// Save inserts the product when its ID is empty, assigning a new UUID, and
// otherwise performs a full update of the existing record. Updating an
// unknown ID is an error.
func (r *GORMProductRepository) Save(product *models.Product) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if product.ID == "" {
			product.ID = uuid.New().String()
			if err := tx.Create(product).Error; err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}
			return nil
		}
		var existing models.Product
		if err := tx.First(&existing, "id = ?", product.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product with ID %s for update: %w", product.ID, ErrProductNotFound)
			}
			return fmt.Errorf("failed to load product for update: %w", err)
		}
		existing.Name = product.Name
		existing.Category = product.Category
		existing.Price = product.Price
		existing.Quantity = product.Quantity
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		*product = existing
		return nil
	})
}

// Delete removes a product by its ID. Deleting an unknown ID is an error.
func (r *GORMProductRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s for deletion: %w", id, ErrProductNotFound)
		}
		return nil
	})
}

// paginate runs the count plus the page query and assembles the Page.
func (r *GORMProductRepository) paginate(query *gorm.DB, req PageRequest) (*Page, error) {
	req = req.Normalize()

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count page results: %w", err)
	}

	if column, ok := sortColumns[req.SortBy]; ok {
		direction := "ASC"
		if req.SortDir == SortDesc {
			direction = "DESC"
		}
		query = query.Order(column + " " + direction)
	}

	var products []models.Product
	err := query.Offset(req.Offset()).Limit(req.Size).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", req.Page, err)
	}

	totalPages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return &Page{
		Items:      products,
		Number:     req.Page,
		Size:       req.Size,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}
