package services

import (
	"log"

	"inventory/internal/models"
	"inventory/internal/repositories"
)

// EventPublisher publishes product change events to a message broker. The
// rabbitmq client satisfies this; a nil publisher disables events.
type EventPublisher interface {
	PublishProductEvent(event string, payload map[string]interface{}) error
}

// Event names published after successful mutations.
const (
	EventProductSaved   = "product.saved"
	EventProductDeleted = "product.deleted"
)

// ProductService handles business logic related to products. It is a thin
// pass-through over the repository; its only normalization is collapsing
// absent aggregates to zero for display.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
}

// NewProductService creates a new ProductService. The publisher may be nil.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProducts retrieves one page of products.
func (s *ProductService) GetProducts(req repositories.PageRequest) (*repositories.Page, error) {
	return s.repo.GetPage(req)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// GetProductsByCategory retrieves one page of products in a category.
func (s *ProductService) GetProductsByCategory(category string, req repositories.PageRequest) (*repositories.Page, error) {
	return s.repo.GetByCategory(category, req)
}

// SearchProducts retrieves one page of products whose name contains the keyword.
func (s *ProductService) SearchProducts(keyword string, req repositories.PageRequest) (*repositories.Page, error) {
	return s.repo.SearchByName(keyword, req)
}

// AdvancedSearch retrieves one page of products matching the optional filters.
func (s *ProductService) AdvancedSearch(filter repositories.SearchFilter, req repositories.PageRequest) (*repositories.Page, error) {
	return s.repo.AdvancedSearch(filter, req)
}

// GetAllCategories retrieves the distinct product categories.
func (s *ProductService) GetAllCategories() ([]string, error) {
	return s.repo.ListCategories()
}

// GetTotalProductCount returns the number of products in the store.
func (s *ProductService) GetTotalProductCount() (int64, error) {
	return s.repo.Count()
}

// CountByCategory returns the number of products in one category.
func (s *ProductService) CountByCategory(category string) (int64, error) {
	return s.repo.CountByCategory(category)
}

// TotalInventoryValue returns the summed product price. An empty store
// reports zero; the store-level distinction between "no rows" and "zero" is
// collapsed here for display.
func (s *ProductService) TotalInventoryValue() (float64, error) {
	sum, err := s.repo.SumPrice()
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// AveragePrice returns the average product price, zero for an empty store.
func (s *ProductService) AveragePrice() (float64, error) {
	avg, err := s.repo.AvgPrice()
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// FindLowStockProducts returns the products with quantity below the threshold.
func (s *ProductService) FindLowStockProducts(threshold int) ([]models.Product, error) {
	return s.repo.FindBelowQuantity(threshold)
}

// FindRecentProducts returns the most recently created products, newest
// first, as a single page of the given size.
func (s *ProductService) FindRecentProducts(limit int) ([]models.Product, error) {
	req := repositories.PageRequest{Page: 0, Size: limit}
	return s.repo.FindMostRecent(req)
}

// SaveProduct creates or updates a product and publishes a saved event on
// success. Publish failures are logged, not surfaced.
func (s *ProductService) SaveProduct(product *models.Product) error {
	if err := s.repo.Save(product); err != nil {
		return err
	}
	s.publish(EventProductSaved, map[string]interface{}{
		"id":       product.ID,
		"name":     product.Name,
		"category": product.Category,
		"price":    product.Price,
		"quantity": product.Quantity,
	})
	return nil
}

// DeleteProduct deletes a product by its ID and publishes a deleted event on
// success.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publish(EventProductDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *ProductService) publish(event string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(event, payload); err != nil {
		log.Printf("Failed to publish %s event: %v", event, err)
	}
}
