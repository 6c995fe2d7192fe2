package repositories

import (
	"errors"

	"inventory/internal/models"
)

// ErrProductNotFound is returned when a product lookup, update or delete
// targets an ID that does not exist.
var ErrProductNotFound = errors.New("product not found")

// Sort directions accepted by PageRequest.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// PageRequest describes a zero-based page of results with optional sorting.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// DefaultPageSize is used when a request carries no explicit size.
const DefaultPageSize = 10

// Normalize clamps the request to sane values: negative pages become page
// zero and a non-positive size falls back to DefaultPageSize.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.SortDir != SortDesc {
		r.SortDir = SortAsc
	}
	return r
}

// Offset returns the number of records to skip for this page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one bounded slice of results plus paging metadata.
type Page struct {
	Items      []models.Product
	Number     int
	Size       int
	TotalItems int64
	TotalPages int
}

// SearchFilter holds the optional criteria for an advanced search. Nil or
// empty fields impose no constraint; present fields are ANDed together and
// the price bounds are inclusive.
type SearchFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetPage(req PageRequest) (*Page, error)
	GetByID(id string) (*models.Product, error)
	GetByCategory(category string, req PageRequest) (*Page, error)
	SearchByName(keyword string, req PageRequest) (*Page, error)
	AdvancedSearch(filter SearchFilter, req PageRequest) (*Page, error)
	ListCategories() ([]string, error)
	Count() (int64, error)
	CountByCategory(category string) (int64, error)
	SumPrice() (*float64, error)
	AvgPrice() (*float64, error)
	FindBelowQuantity(threshold int) ([]models.Product, error)
	FindMostRecent(req PageRequest) ([]models.Product, error)
	Save(product *models.Product) error
	Delete(id string) error
}
