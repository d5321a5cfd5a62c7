package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/projection"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// LedgerHandler maneja las peticiones HTTP del kardex y la proyección de
// balances (protegido).
type LedgerHandler struct {
	ledgerUC     *ledger.UseCase
	projectionUC *projection.UseCase
	log          *logger.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(ledgerUC *ledger.UseCase, projectionUC *projection.UseCase, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, projectionUC: projectionUC, log: log.WithComponent("http.ledger")}
}

// AppendMovement registra un movimiento en el kardex.
// POST /api/ledger/movements
func (h *LedgerHandler) AppendMovement(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.AppendMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.ledgerUC.Append(c.Context(), tenantID, ledger.AppendInput{
		ProductID:      in.ProductID,
		LocationID:     in.LocationID,
		Type:           in.Type,
		RefType:        in.RefType,
		RefID:          in.RefID,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementToResponse(mov))
}

// ListMovements lee el kardex de un producto.
// GET /api/ledger/movements?product_id=&location_id=&from=&to=&fy=&limit=&offset=
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	filter := ledger.ListFilter{
		ProductID:     c.Query("product_id"),
		LocationID:    c.Query("location_id"),
		FinancialYear: c.Query("fy"),
		Limit:         page.Limit,
		Offset:        page.Offset,
	}
	if from, ok := parseTimeQuery(c, "from"); ok {
		filter.From = from
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetro from inválido (RFC3339)"})
	}
	if to, ok := parseTimeQuery(c, "to"); ok {
		filter.To = to
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetro to inválido (RFC3339)"})
	}

	movs, err := h.ledgerUC.List(c.Context(), tenantID, filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, len(movs))
	for i, m := range movs {
		out[i] = dto.MovementToResponse(m)
	}
	return c.JSON(fiber.Map{
		"movements": out,
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// GetBalance devuelve el balance materializado o reconstruido a una fecha.
// Sin product_id lista la proyección completa del tenant.
// GET /api/ledger/balances?product_id=&location_id=&as_of=
func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	asOf, ok := parseTimeQuery(c, "as_of")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetro as_of inválido (RFC3339)"})
	}
	if c.Query("product_id") == "" {
		if asOf != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "as_of requiere product_id y location_id"})
		}
		list, err := h.projectionUC.ListBalances(c.Context(), tenantID)
		if err != nil {
			return respondError(c, h.log, err)
		}
		out := make([]dto.BalanceResponse, len(list))
		for i, b := range list {
			out[i] = dto.BalanceToResponse(b, nil)
		}
		return c.JSON(fiber.Map{"balances": out})
	}
	b, err := h.projectionUC.GetBalance(c.Context(), tenantID, c.Query("product_id"), c.Query("location_id"), asOf)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.BalanceToResponse(b, asOf))
}

// RebuildBalance reconstruye balance y capas desde el kardex.
// POST /api/ledger/balances/rebuild
func (h *LedgerHandler) RebuildBalance(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.RebuildBalanceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	b, err := h.projectionUC.Rebuild(c.Context(), tenantID, in.ProductID, in.LocationID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("tenant_id", tenantID).Str("product_id", in.ProductID).Str("location_id", in.LocationID).Msg("balance reconstruido")
	return c.JSON(dto.BalanceToResponse(b, nil))
}

// GetLayers devuelve el snapshot de capas de valoración de un producto.
// GET /api/ledger/valuation/layers?product_id=
func (h *LedgerHandler) GetLayers(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	layers, err := h.ledgerUC.Layers(c.Context(), tenantID, c.Query("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"layers": dto.LayersToResponse(layers)})
}

// MigrateValuation cambia el método de valoración del tenant (solo admin).
// POST /api/admin/valuation/migrate
func (h *LedgerHandler) MigrateValuation(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.MigrateValuationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.ledgerUC.MigrateValuation(c.Context(), tenantID, in.Method); err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("tenant_id", tenantID).Str("method", in.Method).Msg("método de valoración migrado")
	return c.JSON(fiber.Map{"message": "método de valoración migrado", "method": in.Method})
}

// parseTimeQuery lee un query param RFC3339 opcional. ok=false si el valor
// existe pero no parsea.
func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
