package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/billing"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// DocumentHandler maneja la finalización, anulación y pagos de documentos
// (protegido).
type DocumentHandler struct {
	uc  *billing.UseCase
	log *logger.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *billing.UseCase, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log.WithComponent("http.billing")}
}

// Finalize finaliza un documento: número, consumo de stock y persistencia en
// una sola unidad atómica.
// POST /api/documents
func (h *DocumentHandler) Finalize(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.FinalizeDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]billing.LineInput, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = billing.LineInput{
			ProductID:  l.ProductID,
			LocationID: l.LocationID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		}
	}
	doc, err := h.uc.FinalizeDocument(c.Context(), tenantID, billing.FinalizeInput{
		CustomerID:     in.CustomerID,
		Prefix:         in.Prefix,
		Lines:          lines,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("tenant_id", tenantID).Str("document_id", doc.ID).Int64("number", doc.Number).Str("scope", doc.ScopeKey).Msg("documento finalizado")
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentToResponse(doc))
}

// GetByID devuelve el documento con líneas y pagos.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	detail, err := h.uc.GetDocument(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.DocumentDetailToResponse(detail.Document, detail.Lines, detail.Payments))
}

// Void anula un documento no pagado y devuelve el stock consumido.
// POST /api/documents/:id/void
func (h *DocumentHandler) Void(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	doc, err := h.uc.VoidDocument(c.Context(), tenantID, c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("tenant_id", tenantID).Str("document_id", doc.ID).Msg("documento anulado")
	return c.JSON(dto.DocumentToResponse(doc))
}

// RegisterPayment registra un pago y recalcula el estado del documento.
// POST /api/documents/:id/payments
func (h *DocumentHandler) RegisterPayment(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	var in dto.RegisterPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	receivedAt := time.Now()
	if in.ReceivedAt != nil {
		receivedAt = *in.ReceivedAt
	}
	doc, err := h.uc.RegisterPayment(c.Context(), tenantID, c.Params("id"), in.Amount, receivedAt)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentToResponse(doc))
}
