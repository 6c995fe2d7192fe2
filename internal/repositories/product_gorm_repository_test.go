package repositories_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inventory/internal/models"
	"inventory/internal/repositories"
)

var testDBCounter int64

// newTestRepo opens a fresh in-memory sqlite database per test. The unique
// DSN keeps shared-cache databases from leaking between tests.
func newTestRepo(t *testing.T) *repositories.GORMProductRepository {
	t.Helper()
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:products_test_%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return repositories.NewGORMProductRepository(db)
}

func mustSave(t *testing.T, repo repositories.ProductRepository, p models.Product) models.Product {
	t.Helper()
	require.NoError(t, repo.Save(&p))
	return p
}

func TestSaveAssignsIDAndRoundTrips(t *testing.T) {
	repo := newTestRepo(t)

	product := models.Product{Name: "Hammer", Category: "Tools", Price: 12.5, Quantity: 8}
	require.NoError(t, repo.Save(&product))
	assert.NotEmpty(t, product.ID)

	fetched, err := repo.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, fetched.ID)
	assert.Equal(t, "Hammer", fetched.Name)
	assert.Equal(t, "Tools", fetched.Category)
	assert.Equal(t, 12.5, fetched.Price)
	assert.Equal(t, 8, fetched.Quantity)
}

func TestSaveUpdatesExistingProduct(t *testing.T) {
	repo := newTestRepo(t)

	created := mustSave(t, repo, models.Product{Name: "Hammer", Category: "Tools", Price: 12.5, Quantity: 8})

	update := models.Product{ID: created.ID, Name: "Sledgehammer", Category: "Heavy Tools", Price: 30, Quantity: 0}
	require.NoError(t, repo.Save(&update))

	fetched, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Sledgehammer", fetched.Name)
	assert.Equal(t, "Heavy Tools", fetched.Category)
	assert.Equal(t, 30.0, fetched.Price)
	assert.Equal(t, 0, fetched.Quantity)
	// The creation timestamp survives a full update.
	assert.WithinDuration(t, created.CreatedAt, fetched.CreatedAt, time.Second)
}

func TestSaveUpdateOfUnknownIDFails(t *testing.T) {
	repo := newTestRepo(t)

	missing := models.Product{ID: "c1f9e7f0-0000-0000-0000-000000000000", Name: "Ghost"}
	err := repo.Save(&missing)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestGetByIDMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID("does-not-exist")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestDeleteRemovesProduct(t *testing.T) {
	repo := newTestRepo(t)

	created := mustSave(t, repo, models.Product{Name: "Hammer", Price: 12.5, Quantity: 8})
	require.NoError(t, repo.Delete(created.ID))

	_, err := repo.GetByID(created.ID)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestDeleteUnknownIDFails(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Delete("does-not-exist")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestGetPagePaginationAndSorting(t *testing.T) {
	repo := newTestRepo(t)

	for i := 1; i <= 25; i++ {
		mustSave(t, repo, models.Product{
			Name:     fmt.Sprintf("Product %02d", i),
			Price:    float64(i),
			Quantity: i,
		})
	}

	page, err := repo.GetPage(repositories.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, int64(25), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)

	lastPage, err := repo.GetPage(repositories.PageRequest{Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, lastPage.Items, 5)

	// Sorted descending by price, the first item is the most expensive.
	sorted, err := repo.GetPage(repositories.PageRequest{Page: 0, Size: 5, SortBy: "price", SortDir: repositories.SortDesc})
	require.NoError(t, err)
	require.Len(t, sorted.Items, 5)
	assert.Equal(t, 25.0, sorted.Items[0].Price)
	assert.Equal(t, 21.0, sorted.Items[4].Price)

	// An unknown sort field falls back to store-default order without error.
	_, err = repo.GetPage(repositories.PageRequest{Page: 0, Size: 5, SortBy: "price; DROP TABLE products"})
	assert.NoError(t, err)
}

func TestGetByCategory(t *testing.T) {
	repo := newTestRepo(t)

	mustSave(t, repo, models.Product{Name: "Hammer", Category: "Tools", Price: 12.5})
	mustSave(t, repo, models.Product{Name: "Laptop", Category: "Electronics", Price: 1200})
	mustSave(t, repo, models.Product{Name: "Wrench", Category: "Tools", Price: 9})

	page, err := repo.GetByCategory("Tools", repositories.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
	for _, p := range page.Items {
		assert.Equal(t, "Tools", p.Category)
	}
}

func TestSearchByName(t *testing.T) {
	repo := newTestRepo(t)

	mustSave(t, repo, models.Product{Name: "Claw Hammer", Price: 12.5})
	mustSave(t, repo, models.Product{Name: "Sledge Hammer", Price: 30})
	mustSave(t, repo, models.Product{Name: "Screwdriver", Price: 5})

	page, err := repo.SearchByName("Hammer", repositories.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
}

func TestAdvancedSearchFiltersAreOptionalAndANDed(t *testing.T) {
	repo := newTestRepo(t)

	mustSave(t, repo, models.Product{Name: "Hammer", Category: "Tools", Price: 12.5})
	mustSave(t, repo, models.Product{Name: "Wrench", Category: "Tools", Price: 25})
	mustSave(t, repo, models.Product{Name: "Screwdriver", Category: "Tools", Price: 5})
	mustSave(t, repo, models.Product{Name: "Laptop", Category: "Electronics", Price: 12})

	minPrice := 5.0
	maxPrice := 20.0
	page, err := repo.AdvancedSearch(repositories.SearchFilter{
		Category: "Tools",
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	}, repositories.PageRequest{})
	require.NoError(t, err)

	// Only Tools priced within [5, 20]; name is ignored when absent.
	require.Equal(t, int64(2), page.TotalItems)
	names := []string{page.Items[0].Name, page.Items[1].Name}
	assert.ElementsMatch(t, []string{"Hammer", "Screwdriver"}, names)

	// No filters matches everything.
	all, err := repo.AdvancedSearch(repositories.SearchFilter{}, repositories.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.TotalItems)
}

func TestListCategories(t *testing.T) {
	repo := newTestRepo(t)

	mustSave(t, repo, models.Product{Name: "Hammer", Category: "Tools"})
	mustSave(t, repo, models.Product{Name: "Wrench", Category: "Tools"})
	mustSave(t, repo, models.Product{Name: "Laptop", Category: "Electronics"})
	mustSave(t, repo, models.Product{Name: "Mystery Box"})

	categories, err := repo.ListCategories()
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Tools"}, categories)
}

func TestCounts(t *testing.T) {
	repo := newTestRepo(t)

	mustSave(t, repo, models.Product{Name: "Hammer", Category: "Tools"})
	mustSave(t, repo, models.Product{Name: "Wrench", Category: "Tools"})
	mustSave(t, repo, models.Product{Name: "Laptop", Category: "Electronics"})

	total, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	tools, err := repo.CountByCategory("Tools")
	require.NoError(t, err)
	assert.Equal(t, int64(2), tools)

	none, err := repo.CountByCategory("Furniture")
	require.NoError(t, err)
	assert.Equal(t, int64(0), none)
}

func TestPriceAggregates(t *testing.T) {
	repo := newTestRepo(t)

	// Empty store: both aggregates are absent, not zero.
	sum, err := repo.SumPrice()
	require.NoError(t, err)
	assert.Nil(t, sum)
	avg, err := repo.AvgPrice()
	require.NoError(t, err)
	assert.Nil(t, avg)

	mustSave(t, repo, models.Product{Name: "A", Price: 10})
	mustSave(t, repo, models.Product{Name: "B", Price: 20})
	mustSave(t, repo, models.Product{Name: "C", Price: 33})

	sum, err = repo.SumPrice()
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.InDelta(t, 63.0, *sum, 1e-9)

	avg, err = repo.AvgPrice()
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 21.0, *avg, 1e-9)

	// avg == sum / count within rounding tolerance.
	count, err := repo.Count()
	require.NoError(t, err)
	assert.InDelta(t, *sum/float64(count), *avg, 1e-9)
}

func TestFindBelowQuantity(t *testing.T) {
	repo := newTestRepo(t)

	a := mustSave(t, repo, models.Product{Name: "A", Quantity: 3})
	mustSave(t, repo, models.Product{Name: "B", Quantity: 15})
	mustSave(t, repo, models.Product{Name: "C", Quantity: 10})

	low, err := repo.FindBelowQuantity(10)
	require.NoError(t, err)
	// Strictly below the threshold: quantity 10 itself is excluded.
	require.Len(t, low, 1)
	assert.Equal(t, a.ID, low[0].ID)
}

func TestFindMostRecent(t *testing.T) {
	repo := newTestRepo(t)

	for i := 1; i <= 7; i++ {
		mustSave(t, repo, models.Product{Name: fmt.Sprintf("Product %d", i)})
		// sqlite stores timestamps with limited precision; spacing the
		// inserts keeps the creation order unambiguous.
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := repo.FindMostRecent(repositories.PageRequest{Page: 0, Size: 5})
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "Product 7", recent[0].Name)
	assert.Equal(t, "Product 3", recent[4].Name)
}
