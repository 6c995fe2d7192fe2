package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventory/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It backs the service tests and the "memory" database driver option.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(nil), nil
}

// GetPage returns one page of products with optional sorting.
func (r *MockProductRepository) GetPage(req PageRequest) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page(r.snapshot(nil), req), nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	return &product, nil
}

// GetByCategory returns a page of products with an exact category match.
func (r *MockProductRepository) GetByCategory(category string, req PageRequest) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.snapshot(func(p models.Product) bool {
		return p.Category == category
	})
	return r.page(matches, req), nil
}

// SearchByName returns a page of products whose name contains the keyword,
// matched case-insensitively.
func (r *MockProductRepository) SearchByName(keyword string, req PageRequest) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(keyword)
	matches := r.snapshot(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
	return r.page(matches, req), nil
}

// AdvancedSearch returns a page of products matching every present filter.
func (r *MockProductRepository) AdvancedSearch(filter SearchFilter, req PageRequest) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(filter.Name)
	matches := r.snapshot(func(p models.Product) bool {
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			return false
		}
		if filter.Category != "" && p.Category != filter.Category {
			return false
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			return false
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			return false
		}
		return true
	})
	return r.page(matches, req), nil
}

// ListCategories returns the distinct non-empty categories, sorted.
func (r *MockProductRepository) ListCategories() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range r.products {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories, nil
}

// Count returns the total number of products.
func (r *MockProductRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// CountByCategory returns the number of products in one category.
func (r *MockProductRepository) CountByCategory(category string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, p := range r.products {
		if p.Category == category {
			count++
		}
	}
	return count, nil
}

// SumPrice returns the sum of all prices, or nil when the store is empty.
func (r *MockProductRepository) SumPrice() (*float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.products) == 0 {
		return nil, nil
	}
	var sum float64
	for _, p := range r.products {
		sum += p.Price
	}
	return &sum, nil
}

// AvgPrice returns the average price, or nil when the store is empty.
func (r *MockProductRepository) AvgPrice() (*float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.products) == 0 {
		return nil, nil
	}
	var sum float64
	for _, p := range r.products {
		sum += p.Price
	}
	avg := sum / float64(len(r.products))
	return &avg, nil
}

// FindBelowQuantity returns all products with quantity below the threshold.
func (r *MockProductRepository) FindBelowQuantity(threshold int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot(func(p models.Product) bool {
		return p.Quantity < threshold
	}), nil
}

// FindMostRecent returns one page of products, newest first.
func (r *MockProductRepository) FindMostRecent(req PageRequest) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req = req.Normalize()
	products := r.snapshot(nil)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return slicePage(products, req), nil
}

// Save inserts the product when its ID is empty and otherwise replaces the
// mutable fields of the existing record. Updating an unknown ID is an error.
func (r *MockProductRepository) Save(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if product.ID == "" {
		product.ID = uuid.New().String()
		product.CreatedAt = now
		product.UpdatedAt = now
		r.products[product.ID] = *product
		return nil
	}

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s for update: %w", product.ID, ErrProductNotFound)
	}
	existing.Name = product.Name
	existing.Category = product.Category
	existing.Price = product.Price
	existing.Quantity = product.Quantity
	existing.UpdatedAt = now
	r.products[product.ID] = existing
	*product = existing
	return nil
}

// Delete removes a product by its ID. Deleting an unknown ID is an error.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s for deletion: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	return nil
}

// snapshot copies the products matching the filter (nil matches everything)
// in a stable creation-time order, so paging is deterministic.
func (r *MockProductRepository) snapshot(match func(models.Product) bool) []models.Product {
	products := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if match == nil || match(p) {
			products = append(products, p)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.Before(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
	return products
}

// page sorts and slices the matches into a Page.
func (r *MockProductRepository) page(products []models.Product, req PageRequest) *Page {
	req = req.Normalize()
	sortInMemory(products, req)

	total := int64(len(products))
	totalPages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return &Page{
		Items:      slicePage(products, req),
		Number:     req.Page,
		Size:       req.Size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

func slicePage(products []models.Product, req PageRequest) []models.Product {
	start := req.Offset()
	if start >= len(products) {
		return []models.Product{}
	}
	end := start + req.Size
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func sortInMemory(products []models.Product, req PageRequest) {
	var less func(a, b models.Product) bool
	switch req.SortBy {
	case "name":
		less = func(a, b models.Product) bool { return a.Name < b.Name }
	case "category":
		less = func(a, b models.Product) bool { return a.Category < b.Category }
	case "price":
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case "quantity":
		less = func(a, b models.Product) bool { return a.Quantity < b.Quantity }
	case "createdAt":
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}
	if req.SortDir == SortDesc {
		inner := less
		less = func(a, b models.Product) bool { return inner(b, a) }
	}
	sort.SliceStable(products, func(i, j int) bool {
		return less(products[i], products[j])
	})
}
