package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"
)

// ProductHandler handles the server-rendered product pages.
type ProductHandler struct {
	service  *services.ProductService
	sessions *session.Store
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, sessions *session.Store) *ProductHandler {
	return &ProductHandler{
		service:  service,
		sessions: sessions,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/new", h.HandleNewForm)
	productRoutes.Get("/edit/:id", h.HandleEditForm)
	productRoutes.Post("/save", h.HandleSaveProduct)
	productRoutes.Get("/delete/:id", h.HandleDeleteProduct)
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/advanced-search", h.HandleAdvancedSearch)
}

// pageRequestFromQuery builds the page request from the common query params.
func pageRequestFromQuery(c *fiber.Ctx) repositories.PageRequest {
	return repositories.PageRequest{
		Page:    c.QueryInt("page", 0),
		Size:    c.QueryInt("size", repositories.DefaultPageSize),
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir", repositories.SortAsc),
	}
}

// listViewData fills in every key the product-list template touches, so a
// render from any of the three list flows never hits a missing value.
func listViewData(overrides fiber.Map) fiber.Map {
	data := fiber.Map{
		"Title":            "Products",
		"Products":         []models.Product{},
		"CurrentPage":      0,
		"TotalPages":       0,
		"PageSize":         repositories.DefaultPageSize,
		"Categories":       []string{},
		"SelectedCategory": "",
		"SortBy":           "",
		"SortDir":          repositories.SortAsc,
		"Keyword":          "",
		"SearchName":       "",
		"SearchCategory":   "",
		"SearchMinPrice":   "",
		"SearchMaxPrice":   "",
		"Message":          "",
		"Error":            "",
	}
	for key, value := range overrides {
		data[key] = value
	}
	return data
}

// HandleListProducts renders the paginated product list, optionally filtered
// by category.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	req := pageRequestFromQuery(c)
	selectedCategory := c.Query("category")

	var (
		page *repositories.Page
		err  error
	)
	if selectedCategory != "" {
		page, err = h.service.GetProductsByCategory(selectedCategory, req)
	} else {
		page, err = h.service.GetProducts(req)
	}
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return h.renderError(c, "Could not retrieve products")
	}

	categories, err := h.service.GetAllCategories()
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return h.renderError(c, "Could not retrieve categories")
	}

	message, errMsg := popFlashes(h.sessions, c)
	return c.Render("product-list", listViewData(fiber.Map{
		"Products":         page.Items,
		"CurrentPage":      page.Number,
		"TotalPages":       page.TotalPages,
		"PageSize":         page.Size,
		"Categories":       categories,
		"SelectedCategory": selectedCategory,
		"SortBy":           req.SortBy,
		"SortDir":          req.SortDir,
		"Message":          message,
		"Error":            errMsg,
	}), "layouts/main")
}

// HandleNewForm renders a blank product form.
func (h *ProductHandler) HandleNewForm(c *fiber.Ctx) error {
	return c.Render("product-form", fiber.Map{
		"Title":   "New Product",
		"Product": models.Product{},
		"Errors":  map[string]string{},
	}, "layouts/main")
}

// HandleEditForm renders the form for an existing product. A missing ID
// redirects back to the list with an error flash instead of rendering.
func (h *ProductHandler) HandleEditForm(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(id)
	if err != nil {
		log.Printf("Error loading product %s for edit: %v", id, err)
		message := "Error loading product"
		if errors.Is(err, repositories.ErrProductNotFound) {
			message = "Product not found"
		}
		setFlash(h.sessions, c, flashErrorKey, message)
		return c.Redirect("/products", fiber.StatusSeeOther)
	}
	return c.Render("product-form", fiber.Map{
		"Title":   "Edit Product",
		"Product": *product,
		"Errors":  map[string]string{},
	}, "layouts/main")
}

// productForm carries the raw submitted field values so numeric parse
// failures can be reported per field instead of failing the bind.
type productForm struct {
	ID       string `form:"id"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Price    string `form:"price"`
	Quantity string `form:"quantity"`
}

// HandleSaveProduct creates or updates a product from the submitted form.
// Validation failures re-render the form with per-field messages;
// persistence failures redirect to the list with an error flash.
func (h *ProductHandler) HandleSaveProduct(c *fiber.Ctx) error {
	var form productForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing product form: %v", err)
		setFlash(h.sessions, c, flashErrorKey, "Invalid form submission")
		return c.Redirect("/products", fiber.StatusSeeOther)
	}

	product, fieldErrors := h.bindAndValidate(form)
	if len(fieldErrors) > 0 {
		title := "New Product"
		if product.ID != "" {
			title = "Edit Product"
		}
		return c.Render("product-form", fiber.Map{
			"Title":   title,
			"Product": product,
			"Errors":  fieldErrors,
		}, "layouts/main")
	}

	if err := h.service.SaveProduct(&product); err != nil {
		log.Printf("Error saving product: %v", err)
		setFlash(h.sessions, c, flashErrorKey, "Error: "+err.Error())
		return c.Redirect("/products", fiber.StatusSeeOther)
	}

	setFlash(h.sessions, c, flashMessageKey, "Product saved successfully!")
	return c.Redirect("/products", fiber.StatusSeeOther)
}

// HandleDeleteProduct deletes a product by ID. Both outcomes redirect to the
// list with a flash message.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(id); err != nil {
		log.Printf("Error deleting product %s: %v", id, err)
		setFlash(h.sessions, c, flashErrorKey, "Error deleting product: "+err.Error())
	} else {
		setFlash(h.sessions, c, flashMessageKey, "Product deleted successfully!")
	}
	return c.Redirect("/products", fiber.StatusSeeOther)
}

// HandleSearchProducts renders a keyword substring search over product names.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	keyword := c.Query("keyword")
	if keyword == "" {
		return c.Redirect("/products", fiber.StatusSeeOther)
	}

	req := pageRequestFromQuery(c)
	page, err := h.service.SearchProducts(keyword, req)
	if err != nil {
		log.Printf("Error searching products for %q: %v", keyword, err)
		return h.renderError(c, "Could not search products")
	}

	categories, err := h.service.GetAllCategories()
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return h.renderError(c, "Could not retrieve categories")
	}

	return c.Render("product-list", listViewData(fiber.Map{
		"Title":       "Search Results",
		"Products":    page.Items,
		"CurrentPage": page.Number,
		"TotalPages":  page.TotalPages,
		"PageSize":    page.Size,
		"Categories":  categories,
		"Keyword":     keyword,
	}), "layouts/main")
}

// HandleAdvancedSearch renders a multi-filter search. Every filter is
// optional; submitted values are echoed back for form persistence.
func (h *ProductHandler) HandleAdvancedSearch(c *fiber.Ctx) error {
	filter := repositories.SearchFilter{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		MinPrice: queryFloat(c, "minPrice"),
		MaxPrice: queryFloat(c, "maxPrice"),
	}

	req := pageRequestFromQuery(c)
	page, err := h.service.AdvancedSearch(filter, req)
	if err != nil {
		log.Printf("Error running advanced search: %v", err)
		return h.renderError(c, "Could not search products")
	}

	categories, err := h.service.GetAllCategories()
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return h.renderError(c, "Could not retrieve categories")
	}

	return c.Render("product-list", listViewData(fiber.Map{
		"Title":          "Advanced Search",
		"Products":       page.Items,
		"CurrentPage":    page.Number,
		"TotalPages":     page.TotalPages,
		"PageSize":       page.Size,
		"Categories":     categories,
		"SearchName":     filter.Name,
		"SearchCategory": filter.Category,
		"SearchMinPrice": c.Query("minPrice"),
		"SearchMaxPrice": c.Query("maxPrice"),
	}), "layouts/main")
}

// bindAndValidate converts the raw form into a Product and collects every
// field error, merging numeric parse failures with validator violations.
func (h *ProductHandler) bindAndValidate(form productForm) (models.Product, map[string]string) {
	fieldErrors := make(map[string]string)
	product := models.Product{
		ID:       strings.TrimSpace(form.ID),
		Name:     strings.TrimSpace(form.Name),
		Category: strings.TrimSpace(form.Category),
	}

	if form.Price != "" {
		price, err := strconv.ParseFloat(form.Price, 64)
		if err != nil {
			fieldErrors["price"] = "Price must be a number"
		} else {
			product.Price = price
		}
	}
	if form.Quantity != "" {
		quantity, err := strconv.Atoi(form.Quantity)
		if err != nil {
			fieldErrors["quantity"] = "Quantity must be a whole number"
		} else {
			product.Quantity = quantity
		}
	}

	if err := h.validate.Struct(product); err != nil {
		invalid, _ := err.(validator.ValidationErrors)
		for _, fe := range invalid {
			field := strings.ToLower(fe.Field())
			if _, exists := fieldErrors[field]; exists {
				continue
			}
			fieldErrors[field] = validationMessage(fe)
		}
	}
	return product, fieldErrors
}

// validationMessage translates a validator violation to a display message.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// queryFloat parses an optional numeric query param; unparsable values are
// treated as absent.
func queryFloat(c *fiber.Ctx, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// renderError renders the shared error page with a 500 status.
func (h *ProductHandler) renderError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).Render("error", fiber.Map{
		"Title": "Error",
		"Error": message,
	}, "layouts/main")
}
