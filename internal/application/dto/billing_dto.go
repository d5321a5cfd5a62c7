package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// FinalizeDocumentRequest cuerpo de POST /api/documents.
type FinalizeDocumentRequest struct {
	CustomerID     string                `json:"customer_id"`
	Prefix         string                `json:"prefix"` // scope de numeración, ej. "INV"
	Lines          []DocumentLineRequest `json:"lines"`
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
}

// DocumentLineRequest línea de documento a finalizar.
type DocumentLineRequest struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// DocumentResponse cabecera del documento en respuestas.
type DocumentResponse struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	Prefix      string          `json:"prefix"`
	ScopeKey    string          `json:"scope_key"`
	Number      int64           `json:"number"`
	Status      string          `json:"status"`
	NetTotal    decimal.Decimal `json:"net_total"`
	CostTotal   decimal.Decimal `json:"cost_total"`
	FinalizedAt time.Time       `json:"finalized_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DocumentToResponse mapea la entidad al DTO de salida.
func DocumentToResponse(d *entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		CustomerID:  d.CustomerID,
		Prefix:      d.Prefix,
		ScopeKey:    d.ScopeKey,
		Number:      d.Number,
		Status:      d.Status,
		NetTotal:    d.NetTotal,
		CostTotal:   d.CostTotal,
		FinalizedAt: d.FinalizedAt,
		CreatedAt:   d.CreatedAt,
	}
}

// DocumentLineResponse línea con el costo calculado por el motor.
type DocumentLineResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// PaymentResponse pago registrado en respuestas.
type PaymentResponse struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt time.Time       `json:"received_at"`
}

// DocumentDetailResponse documento completo con líneas y pagos.
type DocumentDetailResponse struct {
	DocumentResponse
	Lines    []DocumentLineResponse `json:"lines"`
	Payments []PaymentResponse      `json:"payments"`
}

// DocumentDetailToResponse mapea documento, líneas y pagos al DTO de salida.
func DocumentDetailToResponse(d *entity.Document, lines []*entity.DocumentLine, payments []*entity.Payment) DocumentDetailResponse {
	out := DocumentDetailResponse{
		DocumentResponse: DocumentToResponse(d),
		Lines:            make([]DocumentLineResponse, len(lines)),
		Payments:         make([]PaymentResponse, len(payments)),
	}
	for i, l := range lines {
		out.Lines[i] = DocumentLineResponse{
			ProductID:  l.ProductID,
			LocationID: l.LocationID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			UnitCost:   l.UnitCost,
			Subtotal:   l.Subtotal,
		}
	}
	for i, p := range payments {
		out.Payments[i] = PaymentResponse{ID: p.ID, Amount: p.Amount, ReceivedAt: p.ReceivedAt}
	}
	return out
}

// RegisterPaymentRequest cuerpo de POST /api/documents/:id/payments.
type RegisterPaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt *time.Time      `json:"received_at,omitempty"` // vacío = ahora
}

// CreateProductRequest cuerpo de POST /api/products.
type CreateProductRequest struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// CreateLocationRequest cuerpo de POST /api/locations.
type CreateLocationRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
