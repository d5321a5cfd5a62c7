package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/reconciliation"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// ReconciliationHandler maneja la conciliación de inventario físico (protegido).
type ReconciliationHandler struct {
	uc  *reconciliation.UseCase
	log *logger.Logger
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(uc *reconciliation.UseCase, log *logger.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc, log: log.WithComponent("http.reconciliation")}
}

// Compare contrasta un conteo físico con el balance proyectado.
// POST /api/reconciliations
func (h *ReconciliationHandler) Compare(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.CompareReconciliationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.uc.Compare(c.Context(), tenantID, reconciliation.CompareInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		CountedQty: in.CountedQty,
		CreatedBy:  GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReconciliationToResponse(record))
}

// GetByID devuelve un registro de conciliación.
// GET /api/reconciliations/:id
func (h *ReconciliationHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	record, err := h.uc.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ReconciliationToResponse(record))
}

// Apply aplica la variación del registro como un ADJUST del kardex.
// POST /api/reconciliations/:id/apply
func (h *ReconciliationHandler) Apply(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	record, err := h.uc.ApplyAdjustment(c.Context(), tenantID, c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("tenant_id", tenantID).Str("record_id", record.ID).Str("variance", record.Variance.String()).Msg("conciliación aplicada")
	return c.JSON(dto.ReconciliationToResponse(record))
}
