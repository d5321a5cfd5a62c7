package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// CatalogHandler CRUD mínimo de productos y ubicaciones (protegido). El motor
// solo necesita el catálogo para validar movimientos; esto lo hace operable.
type CatalogHandler struct {
	products  repository.ProductRepository
	locations repository.LocationRepository
	log       *logger.Logger
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(products repository.ProductRepository, locations repository.LocationRepository, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, locations: locations, log: log.WithComponent("http.catalog")}
}

// CreateProduct registra un producto del tenant.
// POST /api/products
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.SKU == "" || in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "sku y name son obligatorios"})
	}
	// SKU único por tenant: respuesta clara antes del insert
	existing, err := h.products.GetBySKU(c.Context(), tenantID, in.SKU)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if existing != nil {
		return respondError(c, h.log, domain.ErrDuplicate)
	}
	now := time.Now()
	p := &entity.Product{
		TenantID:  tenantID,
		SKU:       in.SKU,
		Name:      in.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.products.Create(c.Context(), p); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// ListProducts lista los productos del tenant.
// GET /api/products
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.products.List(c.Context(), tenantID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"products": list, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// CreateLocation registra una ubicación del tenant.
// POST /api/locations
func (h *CatalogHandler) CreateLocation(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.CreateLocationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Code == "" || in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "code y name son obligatorios"})
	}
	now := time.Now()
	l := &entity.Location{
		TenantID:  tenantID,
		Code:      in.Code,
		Name:      in.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.locations.Create(c.Context(), l); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(l)
}

// ListLocations lista las ubicaciones del tenant.
// GET /api/locations
func (h *CatalogHandler) ListLocations(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	list, err := h.locations.List(c.Context(), tenantID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"locations": list})
}
