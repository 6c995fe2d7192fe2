package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"inventory/internal/services"
)

// Dashboard constants: items with quantity below the threshold count as low
// stock, and the recent list is capped at recentProductLimit.
const (
	lowStockThreshold  = 10
	recentProductLimit = 5
)

// DashboardHandler renders the aggregate statistics page.
type DashboardHandler struct {
	service *services.ProductService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.ProductService) *DashboardHandler {
	return &DashboardHandler{
		service: service,
	}
}

// RegisterRoutes registers the dashboard route with the Fiber app.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/dashboard", h.HandleShowDashboard)
}

// HandleShowDashboard assembles the summary statistics: total count,
// per-category counts, total inventory value, average price, the low-stock
// list and the most recent products. Any failing sub-query aborts the render.
func (h *DashboardHandler) HandleShowDashboard(c *fiber.Ctx) error {
	totalProducts, err := h.service.GetTotalProductCount()
	if err != nil {
		return h.renderError(c, "count products", err)
	}

	categories, err := h.service.GetAllCategories()
	if err != nil {
		return h.renderError(c, "list categories", err)
	}
	productsByCategory := make(map[string]int64, len(categories))
	for _, category := range categories {
		count, err := h.service.CountByCategory(category)
		if err != nil {
			return h.renderError(c, "count category "+category, err)
		}
		productsByCategory[category] = count
	}

	totalValue, err := h.service.TotalInventoryValue()
	if err != nil {
		return h.renderError(c, "compute total value", err)
	}

	averagePrice, err := h.service.AveragePrice()
	if err != nil {
		return h.renderError(c, "compute average price", err)
	}

	lowStockProducts, err := h.service.FindLowStockProducts(lowStockThreshold)
	if err != nil {
		return h.renderError(c, "find low stock products", err)
	}

	recentProducts, err := h.service.FindRecentProducts(recentProductLimit)
	if err != nil {
		return h.renderError(c, "find recent products", err)
	}

	return c.Render("dashboard", fiber.Map{
		"Title":              "Dashboard",
		"TotalProducts":      totalProducts,
		"Categories":         categories,
		"ProductsByCategory": productsByCategory,
		"TotalValue":         totalValue,
		"AveragePrice":       averagePrice,
		"LowStockProducts":   lowStockProducts,
		"LowStockCount":      len(lowStockProducts),
		"RecentProducts":     recentProducts,
	}, "layouts/main")
}

func (h *DashboardHandler) renderError(c *fiber.Ctx, step string, err error) error {
	log.Printf("Error rendering dashboard (%s): %v", step, err)
	return c.Status(fiber.StatusInternalServerError).Render("error", fiber.Map{
		"Title": "Error",
		"Error": "Could not load dashboard statistics",
	}, "layouts/main")
}
